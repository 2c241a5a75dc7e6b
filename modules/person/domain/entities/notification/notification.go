package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const TypePersonMerged = "person.merged"

type Notification struct {
	ID             uuid.UUID       `json:"id"`
	Type           string          `json:"type"`
	NotifiableType string          `json:"notifiable_type"`
	NotifiableID   int64           `json:"notifiable_id"`
	Data           json.RawMessage `json:"data"`
	ReadAt         *time.Time      `json:"read_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Repository interface {
	// ListFor returns the notifications of one notifiable, newest first.
	ListFor(ctx context.Context, notifiableType string, notifiableID int64) ([]Notification, error)
	MarkAllRead(ctx context.Context, notifiableType string, notifiableID int64) (int64, error)
	Create(ctx context.Context, n *Notification) error
}
