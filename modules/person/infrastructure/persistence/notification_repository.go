package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/estate-office/modules/person/domain/entities/notification"
	"github.com/iota-uz/estate-office/pkg/composables"
)

const (
	listNotificationsQuery = `
		SELECT id, type, notifiable_type, notifiable_id, data, read_at, created_at
		FROM notifications
		WHERE notifiable_type = $1 AND notifiable_id = $2
		ORDER BY created_at DESC, id`

	markAllReadQuery = `
		UPDATE notifications SET read_at = now()
		WHERE notifiable_type = $1 AND notifiable_id = $2 AND read_at IS NULL`

	insertNotificationQuery = `
		INSERT INTO notifications (id, type, notifiable_type, notifiable_id, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
)

type NotificationRepository struct{}

func NewNotificationRepository() notification.Repository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) ListFor(
	ctx context.Context,
	notifiableType string,
	notifiableID int64,
) ([]notification.Notification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, listNotificationsQuery, notifiableType, notifiableID)
	if err != nil {
		return nil, gerrors.Wrap(err, "list notifications")
	}
	defer rows.Close()

	out := make([]notification.Notification, 0)
	for rows.Next() {
		var (
			n    notification.Notification
			id   pgtype.UUID
			data []byte
		)
		if err := rows.Scan(&id, &n.Type, &n.NotifiableType, &n.NotifiableID, &data, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, gerrors.Wrap(err, "scan notification")
		}
		n.ID = uuidFromPgUUID(id)
		n.Data = rawJSON(data)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "iterate notifications")
	}
	return out, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, notifiableType string, notifiableID int64) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, markAllReadQuery, notifiableType, notifiableID)
	if err != nil {
		return 0, gerrors.Wrap(err, "mark notifications read")
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	data := dbJSON(n.Data)
	if data == nil {
		data = []byte("{}")
	}
	if err := tx.QueryRow(
		ctx,
		insertNotificationQuery,
		pgUUIDFromUUID(n.ID),
		n.Type,
		n.NotifiableType,
		n.NotifiableID,
		data,
	).Scan(&n.CreatedAt); err != nil {
		return gerrors.Wrap(err, "create notification")
	}
	return nil
}
