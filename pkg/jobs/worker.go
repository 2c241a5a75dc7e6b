package jobs

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/estate-office/pkg/composables"
)

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRetry
	outcomeDead
)

func (o outcome) String() string {
	switch o {
	case outcomeAck:
		return "success"
	case outcomeRetry:
		return "retry"
	default:
		return "dead"
	}
}

// decide maps a handler result to the next state of the job.
func decide(err error, attempts, maxAttempts int) outcome {
	switch {
	case err == nil:
		return outcomeAck
	case IsPermanent(err), attempts >= maxAttempts:
		return outcomeDead
	default:
		return outcomeRetry
	}
}

// Worker claims due jobs and runs them through a Handler.
type Worker struct {
	pool    *pgxpool.Pool
	table   pgx.Identifier
	handler Handler
	opts    WorkerOptions

	lockKey    int64
	tableLabel string
	m          *metrics
}

func NewWorker(pool *pgxpool.Pool, table pgx.Identifier, handler Handler, opts WorkerOptions) (*Worker, error) {
	if pool == nil {
		return nil, invalidConfig("pool is required")
	}
	if len(table) == 0 {
		return nil, invalidConfig("table is required")
	}
	if handler == nil {
		return nil, invalidConfig("handler is required")
	}
	opts.setDefaults()
	return &Worker{
		pool:       pool,
		table:      table,
		handler:    handler,
		opts:       opts,
		lockKey:    advisoryLockKey("jobs:" + TableLabel(table)),
		tableLabel: TableLabel(table),
		m:          getMetrics(),
	}, nil
}

func (w *Worker) Run(ctx context.Context) error {
	if !w.opts.SingleActive {
		w.m.leader.WithLabelValues(w.tableLabel).Set(1)
		return w.loop(ctx)
	}

	for {
		conn, err := w.pool.Acquire(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.opts.Logger.WithError(err).Warn("jobs: failed to acquire connection for leader lock")
			if err := sleep(ctx, w.opts.PollInterval); err != nil {
				return err
			}
			continue
		}

		var leader bool
		if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1::bigint)`, w.lockKey).Scan(&leader); err != nil || !leader {
			conn.Release()
			if err != nil {
				w.opts.Logger.WithError(err).Warn("jobs: advisory lock attempt failed")
			}
			w.m.leader.WithLabelValues(w.tableLabel).Set(0)
			if err := sleep(ctx, w.opts.PollInterval); err != nil {
				return err
			}
			continue
		}

		w.m.leader.WithLabelValues(w.tableLabel).Set(1)
		w.opts.Logger.WithField("table", w.tableLabel).Info("jobs: worker became leader")

		// The connection stays checked out so the session lock is held.
		err = w.loop(ctx)
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1::bigint)`, w.lockKey)
		conn.Release()
		w.m.leader.WithLabelValues(w.tableLabel).Set(0)
		return err
	}
}

func (w *Worker) loop(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	nextObserve := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if time.Now().After(nextObserve) {
			if err := w.observePending(ctx); err != nil {
				w.opts.Logger.WithError(err).Debug("jobs: observe pending failed")
			}
			nextObserve = time.Now().Add(w.opts.ObservePendingEvery)
		}

		if _, err := w.ProcessOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			w.opts.Logger.WithError(err).Warn("jobs: tick failed")
		}
	}
}

type claimed struct {
	id        uuid.UUID
	kind      string
	payload   []byte
	attempts  int
	createdAt time.Time
}

// ProcessOnce claims one batch and runs it. It returns the number of jobs run.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	batch, err := w.claim(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range batch {
		w.run(ctx, c)
	}
	return len(batch), nil
}

func (w *Worker) run(ctx context.Context, c claimed) {
	log := w.opts.Logger.WithFields(logrus.Fields{
		"table":    w.tableLabel,
		"job_id":   c.id.String(),
		"kind":     c.kind,
		"attempts": c.attempts,
	})

	jobCtx, cancel := context.WithTimeout(ctx, w.opts.DispatchTimeout)
	jobCtx = composables.WithPool(jobCtx, w.pool)
	jobCtx = composables.WithLogger(jobCtx, log)

	start := time.Now()
	err := safeHandle(jobCtx, w.handler, Delivery{
		Meta: Meta{
			ID:         c.id,
			Kind:       c.kind,
			Attempts:   c.attempts,
			EnqueuedAt: c.createdAt,
		},
		Payload: c.payload,
	})
	cancel()

	next := decide(err, c.attempts, w.opts.MaxAttempts)
	w.m.dispatchTotal.WithLabelValues(w.tableLabel, c.kind, next.String()).Inc()
	w.m.dispatchLatency.WithLabelValues(w.tableLabel, c.kind, next.String()).Observe(time.Since(start).Seconds())

	var stateErr error
	switch next {
	case outcomeAck:
		stateErr = w.ack(ctx, c.id)
	case outcomeRetry:
		at := time.Now().Add(backoff(c.attempts, w.opts.MaxBackoff) + jitter(w.opts.Rand, w.opts.JitterMax))
		log.WithError(err).WithField("retry_at", at).Warn("jobs: job failed, will retry")
		stateErr = w.nack(ctx, c.id, truncate(err.Error(), w.opts.LastErrorMaxLen), at)
	case outcomeDead:
		log.WithError(err).Error("jobs: job is dead")
		w.m.deadTotal.WithLabelValues(w.tableLabel, c.kind).Inc()
		stateErr = w.dead(ctx, c.id, truncate(err.Error(), w.opts.LastErrorMaxLen))
	}
	if stateErr != nil {
		log.WithError(stateErr).Warnf("jobs: %s update failed", next)
	}
}

func safeHandle(ctx context.Context, h Handler, d Delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("jobs: handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, d)
}

func (w *Worker) claim(ctx context.Context) ([]claimed, error) {
	now := time.Now()
	tx, err := w.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	table := w.table.Sanitize()
	rows, err := tx.Query(ctx, fmt.Sprintf(
		`SELECT id, kind, payload, attempts, created_at
		   FROM %s
		  WHERE finished_at IS NULL
		    AND dead_at IS NULL
		    AND available_at <= $1
		    AND (locked_at IS NULL OR locked_at < $2)
		  ORDER BY available_at, created_at
		  LIMIT $3
		  FOR UPDATE SKIP LOCKED`,
		table,
	), now, now.Add(-w.opts.LockTTL), w.opts.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("jobs claim select: %w", err)
	}

	var items []claimed
	var ids []uuid.UUID
	for rows.Next() {
		var c claimed
		if err := rows.Scan(&c.id, &c.kind, &c.payload, &c.attempts, &c.createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("jobs claim scan: %w", err)
		}
		c.attempts++
		items = append(items, c)
		ids = append(ids, c.id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jobs claim rows: %w", err)
	}

	if len(ids) > 0 {
		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`UPDATE %s SET locked_at = $1, attempts = attempts + 1 WHERE id = ANY($2)`, table),
			now, pgtype.FlatArray[uuid.UUID](ids),
		); err != nil {
			return nil, fmt.Errorf("jobs claim update: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

func (w *Worker) ack(ctx context.Context, id uuid.UUID) error {
	_, err := w.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET finished_at = now(), locked_at = NULL, last_error = NULL WHERE id = $1`,
		w.table.Sanitize(),
	), id)
	if err != nil {
		return fmt.Errorf("jobs ack: %w", err)
	}
	return nil
}

func (w *Worker) nack(ctx context.Context, id uuid.UUID, lastError string, availableAt time.Time) error {
	_, err := w.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET locked_at = NULL, last_error = $2, available_at = $3 WHERE id = $1`,
		w.table.Sanitize(),
	), id, lastError, availableAt)
	if err != nil {
		return fmt.Errorf("jobs nack: %w", err)
	}
	return nil
}

func (w *Worker) dead(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := w.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET locked_at = NULL, last_error = $2, dead_at = now() WHERE id = $1`,
		w.table.Sanitize(),
	), id, lastError)
	if err != nil {
		return fmt.Errorf("jobs dead: %w", err)
	}
	return nil
}

func (w *Worker) observePending(ctx context.Context) error {
	var pending int64
	q := fmt.Sprintf(`SELECT count(*) FROM %s WHERE finished_at IS NULL AND dead_at IS NULL`, w.table.Sanitize())
	if err := w.pool.QueryRow(ctx, q).Scan(&pending); err != nil {
		return fmt.Errorf("jobs pending count: %w", err)
	}
	w.m.pending.WithLabelValues(w.tableLabel).Set(float64(pending))
	return nil
}

func advisoryLockKey(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
