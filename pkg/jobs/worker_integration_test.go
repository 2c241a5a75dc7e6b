//go:build integration

package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func TestWorker_Integration_AckRetryDead(t *testing.T) {
	dsn := os.Getenv("ESTATE_TEST_DSN")
	if dsn == "" {
		t.Skip("ESTATE_TEST_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	name := "jobs_it_" + uuid.NewString()[:8]
	table, err := ParseIdentifier("public." + name)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, fmt.Sprintf(`
CREATE TABLE %s (
  id           UUID        PRIMARY KEY,
  kind         TEXT        NOT NULL,
  payload      JSONB       NOT NULL,
  attempts     INT         NOT NULL DEFAULT 0,
  available_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  locked_at    TIMESTAMPTZ NULL,
  finished_at  TIMESTAMPTZ NULL,
  dead_at      TIMESTAMPTZ NULL,
  last_error   TEXT        NULL,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`, table.Sanitize()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), fmt.Sprintf("DROP TABLE IF EXISTS %s", table.Sanitize()))
	})

	q, err := NewQueue(table)
	require.NoError(t, err)
	okID, err := q.Enqueue(ctx, pool, Job{Kind: "ok"})
	require.NoError(t, err)
	flakyID, err := q.Enqueue(ctx, pool, Job{Kind: "flaky"})
	require.NoError(t, err)
	poisonID, err := q.Enqueue(ctx, pool, Job{Kind: "poison"})
	require.NoError(t, err)

	mux := NewMux()
	mux.HandleFunc("ok", func(context.Context, Delivery) error { return nil })
	mux.HandleFunc("flaky", func(context.Context, Delivery) error { return errors.New("try later") })
	mux.HandleFunc("poison", func(context.Context, Delivery) error { return Permanent(errors.New("never")) })

	w, err := NewWorker(pool, table, HandlerFunc(mux.Dispatch), WorkerOptions{MaxAttempts: 5})
	require.NoError(t, err)

	n, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	state := func(id uuid.UUID) (finished, dead bool, attempts int) {
		err := pool.QueryRow(ctx, fmt.Sprintf(
			`SELECT finished_at IS NOT NULL, dead_at IS NOT NULL, attempts FROM %s WHERE id = $1`, table.Sanitize(),
		), id).Scan(&finished, &dead, &attempts)
		require.NoError(t, err)
		return
	}

	finished, dead, attempts := state(okID)
	require.True(t, finished)
	require.False(t, dead)
	require.Equal(t, 1, attempts)

	finished, dead, _ = state(flakyID)
	require.False(t, finished)
	require.False(t, dead)

	_, dead, _ = state(poisonID)
	require.True(t, dead)

	// The flaky job is backed off, so nothing is due right now.
	n, err = w.ProcessOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	c, err := NewCleaner(pool, table, CleanerOptions{Enabled: true, Retention: time.Nanosecond})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	deleted, err := c.CleanOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
}
