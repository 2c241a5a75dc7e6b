package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "ESTATE_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "modules", "person")
	requireMkdirAll(t, sub)

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(sub))

	_ = os.Unsetenv("ESTATE_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "ok", os.Getenv("ESTATE_TEST_ENV_LOAD"))
}

func TestConfiguration_DefaultsAreValid(t *testing.T) {
	c := &Configuration{}
	require.NoError(t, env.Parse(c))
	require.NoError(t, c.validate())

	c.finalize()
	require.Equal(t, "localhost:3200", c.SocketAddress)
	require.Contains(t, c.Database.Opts, "dbname=estate_office")
	require.Equal(t, time.Second, c.Jobs.PollInterval)
	require.Equal(t, []string{"http://localhost:3000"}, c.CorsOriginList())
}

func TestConfiguration_RejectsBadJobsOptions(t *testing.T) {
	t.Setenv("JOBS_BATCH_SIZE", "0")

	c := &Configuration{}
	require.NoError(t, env.Parse(c))
	require.ErrorContains(t, c.validate(), "JOBS_BATCH_SIZE")
}

func TestRateLimitOptions_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		opts    RateLimitOptions
		wantErr bool
	}{
		{name: "memory", opts: RateLimitOptions{GlobalRPS: 10, Storage: "memory"}},
		{name: "negative", opts: RateLimitOptions{GlobalRPS: -1, Storage: "memory"}, wantErr: true},
		{name: "unknown storage", opts: RateLimitOptions{GlobalRPS: 1, Storage: "disk"}, wantErr: true},
		{name: "redis without url", opts: RateLimitOptions{GlobalRPS: 1, Storage: "redis"}, wantErr: true},
		{name: "redis", opts: RateLimitOptions{GlobalRPS: 1, Storage: "redis", RedisURL: "localhost:6379"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}
