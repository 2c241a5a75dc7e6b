package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iota-uz/estate-office/pkg/commands/common"
	"github.com/iota-uz/estate-office/pkg/configuration"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Background job tooling",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the job worker and cleaner without the HTTP server",
		Long:  `Processes queued jobs (for example person merges) until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			conf := configuration.Use()
			conf.Jobs.WorkerEnabled = true

			pool, err := common.GetDatabasePool(ctx, "")
			if err != nil {
				return err
			}
			defer pool.Close()

			app, err := common.NewApplication(conf, pool)
			if err != nil {
				return err
			}
			if err := common.StartJobs(ctx, conf, pool, app); err != nil {
				return err
			}
			conf.Logger().Info("jobs: worker running")
			<-ctx.Done()
			return nil
		},
	})
	return cmd
}
