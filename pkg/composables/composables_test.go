package composables

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/estate-office/pkg/constants"
)

func TestUseTx_WithoutTxOrPool(t *testing.T) {
	t.Parallel()

	_, err := UseTx(context.Background())
	require.ErrorIs(t, err, ErrNoPool)
}

func TestInTx_WithoutPoolFails(t *testing.T) {
	t.Parallel()

	called := false
	err := InTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrNoPool)
	require.False(t, called)
}

func TestUseLogger_FallsBackToStandardLogger(t *testing.T) {
	t.Parallel()

	entry := UseLogger(context.Background())
	require.NotNil(t, entry)
	require.Equal(t, logrus.StandardLogger(), entry.Logger)

	scoped := logrus.NewEntry(logrus.New()).WithField("request-id", "abc")
	ctx := WithLogger(context.Background(), scoped)
	require.Same(t, scoped, UseLogger(ctx))
}

func TestUseRequestID(t *testing.T) {
	t.Parallel()

	_, ok := UseRequestID(context.Background())
	require.False(t, ok)

	ctx := context.WithValue(context.Background(), constants.ParamsKey, &Params{RequestID: "rid-1"})
	id, ok := UseRequestID(ctx)
	require.True(t, ok)
	require.Equal(t, "rid-1", id)
}

type recordingTx struct {
	pgx.Tx

	commits   int
	rollbacks int
	closed    bool
}

func (tx *recordingTx) Commit(context.Context) error {
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	tx.commits++
	return nil
}

func (tx *recordingTx) Rollback(context.Context) error {
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	tx.rollbacks++
	return nil
}

type recordingBeginner struct {
	tx *recordingTx
}

func (b recordingBeginner) Begin(context.Context) (pgx.Tx, error) {
	return b.tx, nil
}

func TestRunInTx(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		tx := &recordingTx{}
		var seen any
		err := runInTx(context.Background(), recordingBeginner{tx: tx}, func(ctx context.Context) error {
			seen = ctx.Value(constants.TxKey)
			return nil
		})
		require.NoError(t, err)
		require.Same(t, tx, seen)
		require.Equal(t, 1, tx.commits)
		require.Zero(t, tx.rollbacks)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		tx := &recordingTx{}
		boom := errors.New("boom")
		err := runInTx(context.Background(), recordingBeginner{tx: tx}, func(context.Context) error {
			return boom
		})
		require.ErrorIs(t, err, boom)
		require.Zero(t, tx.commits)
		require.Equal(t, 1, tx.rollbacks)
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		tx := &recordingTx{}
		require.Panics(t, func() {
			_ = runInTx(context.Background(), recordingBeginner{tx: tx}, func(context.Context) error {
				panic("handler exploded")
			})
		})
		require.Zero(t, tx.commits)
		require.Equal(t, 1, tx.rollbacks)
	})
}
