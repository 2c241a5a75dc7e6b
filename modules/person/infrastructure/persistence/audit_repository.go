package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/estate-office/modules/person/domain/entities/audit"
	"github.com/iota-uz/estate-office/modules/person/infrastructure/persistence/models"
	"github.com/iota-uz/estate-office/pkg/composables"
)

const (
	insertAuditQuery = `
		INSERT INTO audits (auditable_type, auditable_id, user_id, event, old_values, new_values, diff)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	listAuditsQuery = `
		SELECT a.id, a.auditable_type, a.auditable_id, a.user_id, a.event,
		       a.old_values, a.new_values, a.diff, a.created_at,
		       u.name, u.email
		FROM audits a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.auditable_type = $1 AND a.auditable_id = $2
		ORDER BY a.created_at DESC, a.id DESC`
)

type AuditRepository struct{}

func NewAuditRepository() audit.Repository {
	return &AuditRepository{}
}

func (r *AuditRepository) Create(ctx context.Context, a *audit.Audit) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if err := tx.QueryRow(
		ctx,
		insertAuditQuery,
		a.AuditableType,
		a.AuditableID,
		a.UserID,
		a.Event,
		dbJSON(a.OldValues),
		dbJSON(a.NewValues),
		dbJSON(a.Diff),
	).Scan(&a.ID, &a.CreatedAt); err != nil {
		return gerrors.Wrap(err, "create audit")
	}
	return nil
}

func (r *AuditRepository) ListFor(ctx context.Context, auditableType string, auditableID int64) ([]audit.Audit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, listAuditsQuery, auditableType, auditableID)
	if err != nil {
		return nil, gerrors.Wrap(err, "list audits")
	}
	defer rows.Close()

	out := make([]audit.Audit, 0)
	for rows.Next() {
		var row models.Audit
		if err := rows.Scan(
			&row.ID,
			&row.AuditableType,
			&row.AuditableID,
			&row.UserID,
			&row.Event,
			&row.OldValues,
			&row.NewValues,
			&row.Diff,
			&row.CreatedAt,
			&row.UserName,
			&row.UserEmail,
		); err != nil {
			return nil, gerrors.Wrap(err, "scan audit")
		}
		out = append(out, toDomainAudit(row))
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "iterate audits")
	}
	return out, nil
}
