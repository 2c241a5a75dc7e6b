package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/estate-office/pkg/repo"
)

// Queue stores jobs inside the caller's transaction, so a job becomes
// visible to workers only once that transaction commits.
type Queue interface {
	Enqueue(ctx context.Context, tx repo.Tx, job Job) (uuid.UUID, error)
}

type queue struct {
	table pgx.Identifier
	m     *metrics
}

func NewQueue(table pgx.Identifier) (Queue, error) {
	if len(table) == 0 {
		return nil, invalidConfig("table is required")
	}
	return &queue{table: table, m: getMetrics()}, nil
}

func (q *queue) Enqueue(ctx context.Context, tx repo.Tx, job Job) (uuid.UUID, error) {
	if tx == nil {
		return uuid.Nil, invalidConfig("tx is required")
	}
	if strings.TrimSpace(job.Kind) == "" {
		return uuid.Nil, invalidConfig("kind is required")
	}
	if len(job.Payload) == 0 {
		job.Payload = []byte("{}")
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}

	var runAt any
	if !job.RunAt.IsZero() {
		runAt = job.RunAt
	}

	sql := fmt.Sprintf(
		`INSERT INTO %s (id, kind, payload, available_at)
		 VALUES ($1, $2, $3, COALESCE($4::timestamptz, now()))
		 RETURNING id`,
		q.table.Sanitize(),
	)
	var id uuid.UUID
	if err := tx.QueryRow(ctx, sql, job.ID, job.Kind, []byte(job.Payload), runAt).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("jobs enqueue: %w", err)
	}

	q.m.enqueueTotal.WithLabelValues(TableLabel(q.table), job.Kind).Inc()
	return id, nil
}
