package itf

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/estate-office/pkg/application"
	"github.com/iota-uz/estate-office/pkg/composables"
)

// TestContext provides a fluent API for building test contexts
type TestContext struct {
	ctx        context.Context
	modules    []application.Module
	schemaName string
	noTx       bool
}

func NewTestContext() *TestContext {
	return &TestContext{
		ctx:     context.Background(),
		modules: []application.Module{},
	}
}

func (tc *TestContext) WithModules(modules ...application.Module) *TestContext {
	tc.modules = append(tc.modules, modules...)
	return tc
}

// WithSchemaName overrides the schema derived from the test name.
func (tc *TestContext) WithSchemaName(name string) *TestContext {
	tc.schemaName = name
	return tc
}

// WithoutTx leaves the context bound to the pool only, for code that
// commits on its own (job handlers, workers).
func (tc *TestContext) WithoutTx() *TestContext {
	tc.noTx = true
	return tc
}

// Build creates the test context with all dependencies
func (tc *TestContext) Build(tb testing.TB) *TestEnvironment {
	tb.Helper()
	dsn := DSN(tb)

	name := tc.schemaName
	if name == "" {
		name = tb.Name()
	}
	schema := sanitizeSchemaName(name)
	CreateSchema(tb, dsn, schema)

	pool, err := NewPool(dsn, schema)
	if err != nil {
		tb.Fatal(err)
	}
	if err := Migrate(pool); err != nil {
		pool.Close()
		tb.Fatal(err)
	}

	app, err := SetupApplication(pool, tc.modules...)
	if err != nil {
		pool.Close()
		tb.Fatal(err)
	}

	env := &TestEnvironment{
		Ctx:    composables.WithPool(tc.ctx, pool),
		Pool:   pool,
		App:    app,
		Schema: schema,
	}
	if !tc.noTx {
		tx, err := pool.Begin(tc.ctx)
		if err != nil {
			pool.Close()
			tb.Fatal(err)
		}
		env.Tx = tx
		env.Ctx = composables.WithTx(env.Ctx, tx)
	}

	tb.Cleanup(func() {
		if env.Tx != nil {
			if err := env.Tx.Rollback(context.Background()); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
				tb.Logf("Warning: failed to rollback transaction: %v", err)
			}
		}
		pool.Close()
	})
	return env
}

// TestEnvironment contains all test dependencies
type TestEnvironment struct {
	Ctx    context.Context
	Pool   *pgxpool.Pool
	Tx     pgx.Tx
	App    application.Application
	Schema string
}

func (te *TestEnvironment) Service(service any) any {
	return te.App.Service(service)
}

// GetService is a generic helper that retrieves and casts a service
func GetService[T any](te *TestEnvironment) *T {
	var zero T
	return te.App.Service(zero).(*T)
}

// Exec runs sql on the environment context and fails tb on error.
func (te *TestEnvironment) Exec(tb testing.TB, sql string, args ...any) {
	tb.Helper()
	tx, err := composables.UseTx(te.Ctx)
	if err != nil {
		tb.Fatal(err)
	}
	if _, err := tx.Exec(te.Ctx, sql, args...); err != nil {
		tb.Fatalf("exec %q: %v", sql, err)
	}
}

// WithTx returns a new context with the test transaction
func (te *TestEnvironment) WithTx(ctx context.Context) context.Context {
	return composables.WithTx(ctx, te.Tx)
}
