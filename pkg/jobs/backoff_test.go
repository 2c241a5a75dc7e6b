package jobs

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoff(t *testing.T) {
	t.Parallel()

	maxBackoff := time.Minute
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{attempts: 0, want: 0},
		{attempts: 1, want: time.Second},
		{attempts: 2, want: 2 * time.Second},
		{attempts: 3, want: 4 * time.Second},
		{attempts: 7, want: time.Minute}, // cap
		{attempts: 100, want: time.Minute},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, backoff(tc.attempts, maxBackoff), "attempts=%d", tc.attempts)
	}
}

func TestJitterDeterministic(t *testing.T) {
	t.Parallel()

	maxJitter := 200 * time.Millisecond
	got := jitter(rand.New(rand.NewSource(1)), maxJitter)
	require.GreaterOrEqual(t, got, time.Duration(0))
	require.LessOrEqual(t, got, maxJitter)
	require.Equal(t, got, jitter(rand.New(rand.NewSource(1)), maxJitter))
	require.Zero(t, jitter(nil, maxJitter))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", truncate("anything", 0))
	require.Equal(t, "hello", truncate("hello world", 5))
	require.Equal(t, "short", truncate("short", 100))
	// "ü" is two bytes; cutting in the middle drops it.
	require.Equal(t, "M", truncate("Müller", 2))
}
