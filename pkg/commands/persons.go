package commands

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/services"
	"github.com/iota-uz/estate-office/pkg/commands/common"
	"github.com/iota-uz/estate-office/pkg/composables"
	"github.com/iota-uz/estate-office/pkg/configuration"
)

func newPersonsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persons",
		Short: "Person maintenance",
	}
	cmd.AddCommand(newPersonsMergeCmd())
	return cmd
}

func newPersonsMergeCmd() *cobra.Command {
	var attributes string
	cmd := &cobra.Command{
		Use:   "merge <left> <right>",
		Short: "Queue a merge of person <right> into person <left>",
		Long: `Enqueues the same persons.merge job the HTTP endpoint creates. The job
runs on the next worker poll; <right> is deleted once it completes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, right, err := parseMergeIDs(args)
			if err != nil {
				return err
			}
			attrs, err := person.ParseAttributes([]byte(attributes))
			if err != nil {
				return errors.Wrap(err, "--attributes")
			}

			ctx := cmd.Context()
			pool, err := common.GetDatabasePool(ctx, "")
			if err != nil {
				return err
			}
			defer pool.Close()

			app, err := common.NewApplication(configuration.Use(), pool)
			if err != nil {
				return err
			}
			persons := app.Service(services.PersonService{}).(*services.PersonService)

			jobID, err := persons.Merge(composables.WithPool(ctx, pool), left, right, attrs)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "queued merge job %s\n", jobID)
			return err
		},
	}
	cmd.Flags().StringVar(&attributes, "attributes", "", `attributes applied to <left>, e.g. '{"name":"Muster"}'`)
	return cmd
}

func parseMergeIDs(args []string) (int64, int64, error) {
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return 0, 0, errors.Errorf("invalid person id %q", arg)
		}
		ids[i] = id
	}
	return ids[0], ids[1], nil
}
