// Package itf runs integration tests against a real Postgres. Every test
// gets its own migrated schema; tests are skipped when ESTATE_TEST_DSN is
// unset.
package itf

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/estate-office/migrations"
	"github.com/iota-uz/estate-office/pkg/application"
	"github.com/iota-uz/estate-office/pkg/eventbus"
	"github.com/iota-uz/estate-office/pkg/jobs"
	"github.com/iota-uz/estate-office/pkg/listview"
)

const (
	DSNEnv = "ESTATE_TEST_DSN"

	maxSchemaNameLength = 63
	hashSuffixLength    = 9 // "_" + 8 hex chars
)

// DSN returns the integration database or skips tb.
func DSN(tb testing.TB) string {
	tb.Helper()
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		tb.Skipf("%s is not set", DSNEnv)
	}
	return dsn
}

// NewPool connects to dsn with search_path pinned to schema.
func NewPool(dsn, schema string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Minute * 5
	config.MaxConnIdleTime = time.Second * 30
	if schema != "" {
		config.ConnConfig.RuntimeParams["search_path"] = schema
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	return pool, nil
}

// CreateSchema replaces schema with an empty one and drops it on cleanup.
func CreateSchema(tb testing.TB, dsn, schema string) {
	tb.Helper()
	ctx := context.Background()

	admin, err := NewPool(dsn, "")
	if err != nil {
		tb.Fatal(err)
	}
	defer admin.Close()

	ident := pgx.Identifier{schema}.Sanitize()
	if _, err := admin.Exec(ctx, "DROP SCHEMA IF EXISTS "+ident+" CASCADE"); err != nil {
		tb.Fatal(err)
	}
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+ident); err != nil {
		tb.Fatal(err)
	}

	tb.Cleanup(func() {
		cleanup, err := NewPool(dsn, "")
		if err != nil {
			tb.Logf("Warning: failed to drop schema %s: %v", schema, err)
			return
		}
		defer cleanup.Close()
		if _, err := cleanup.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+ident+" CASCADE"); err != nil {
			tb.Logf("Warning: failed to drop schema %s: %v", schema, err)
		}
	})
}

// Migrate applies the embedded goose migrations through pool.
func Migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return goose.Up(db, ".")
}

func SetupApplication(pool *pgxpool.Pool, mods ...application.Module) (application.Application, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	queue, err := jobs.NewQueue(pgx.Identifier{"jobs"})
	if err != nil {
		return nil, err
	}
	app := application.New(&application.ApplicationOptions{
		Pool:      pool,
		EventBus:  eventbus.NewEventPublisher(logger),
		Logger:    logger,
		ListViews: listview.Options{PageSize: 25, MaxPageSize: 100, MaxExportRows: 1000},
		Queue:     queue,
	})
	for _, m := range mods {
		if err := m.Register(app); err != nil {
			return nil, fmt.Errorf("register %s: %w", m.Name(), err)
		}
	}
	return app, nil
}

// sanitizeSchemaName lowercases name, replaces anything that is not a
// letter, digit or underscore and keeps it within the identifier limit.
func sanitizeSchemaName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	sanitized := b.String()
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "it"
	}
	if sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "it_" + sanitized
	}
	if len(sanitized) <= maxSchemaNameLength {
		return sanitized
	}

	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(name)))[:8]
	return sanitized[:maxSchemaNameLength-hashSuffixLength] + "_" + hash
}
