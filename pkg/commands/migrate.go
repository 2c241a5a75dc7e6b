package commands

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/iota-uz/estate-office/migrations"
	"github.com/iota-uz/estate-office/pkg/configuration"
)

func newMigrateCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Applies, rolls back or lists the embedded goose migrations.`,
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres connection string (defaults to DB_* settings)")

	run := func(fn func(db *sql.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			db, err := openMigrationsDB(dsn)
			if err != nil {
				return err
			}
			defer db.Close()
			return fn(db)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(db *sql.DB) error {
				return errors.Wrap(goose.Up(db, "."), "migrate up")
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: run(func(db *sql.DB) error {
				return errors.Wrap(goose.Down(db, "."), "migrate down")
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the state of every migration",
			Args:  cobra.NoArgs,
			RunE: run(func(db *sql.DB) error {
				return errors.Wrap(goose.Status(db, "."), "migrate status")
			}),
		},
	)
	return cmd
}

func openMigrationsDB(dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = configuration.Use().Database.Opts
	}
	if err := configureGoose(); err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return db, nil
}

// configureGoose points goose at the embedded migrations.
func configureGoose() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	return nil
}
