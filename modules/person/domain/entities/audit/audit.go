package audit

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventMerged  = "merged"
)

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Audit struct {
	ID            int64           `json:"id"`
	AuditableType string          `json:"auditable_type"`
	AuditableID   int64           `json:"auditable_id"`
	UserID        *int64          `json:"user_id"`
	Event         string          `json:"event"`
	OldValues     json.RawMessage `json:"old_values"`
	NewValues     json.RawMessage `json:"new_values"`
	Diff          json.RawMessage `json:"diff"`
	CreatedAt     time.Time       `json:"created_at"`
	User          *User           `json:"user"`
}

type Repository interface {
	Create(ctx context.Context, a *Audit) error
	ListFor(ctx context.Context, auditableType string, auditableID int64) ([]Audit, error)
}
