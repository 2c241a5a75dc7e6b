package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestStubRows_ScanConvertsAndWrapsPointers(t *testing.T) {
	now := time.Now()
	rows := &StubRows{Data: [][]any{{int64(7), "Anna", now, nil}}}

	require.True(t, rows.Next())
	var (
		id   int64
		name *string
		at   time.Time
		sex  *string
	)
	require.NoError(t, rows.Scan(&id, &name, &at, &sex))
	require.Equal(t, int64(7), id)
	require.Equal(t, "Anna", *name)
	require.Equal(t, now, at)
	require.Nil(t, sex)
	require.False(t, rows.Next())
}

func TestStubRows_ScanRejectsMismatch(t *testing.T) {
	rows := &StubRows{Data: [][]any{{"x"}}}
	require.True(t, rows.Next())
	var n int
	require.Error(t, rows.Scan(&n))

	var a, b string
	require.Error(t, rows.Scan(&a, &b))
}

func TestStubTx_RecordsCalls(t *testing.T) {
	tx := &StubTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return NoRows()
		},
	}
	_, err := tx.Exec(context.Background(), "DELETE FROM x WHERE id = $1", 1)
	require.NoError(t, err)

	var id int64
	require.ErrorIs(t, tx.QueryRow(context.Background(), "SELECT 1").Scan(&id), pgx.ErrNoRows)

	require.Len(t, tx.Calls, 2)
	require.Equal(t, []any{1}, tx.Calls[0].Args)
	require.Equal(t, int64(3), Tag("UPDATE 3").RowsAffected())
}
