// Package commands holds the cobra commands of the estate-office CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// NewUtilityCommands creates all utility commands (migrate, jobs, persons)
func NewUtilityCommands() []*cobra.Command {
	return []*cobra.Command{
		newMigrateCmd(),
		newJobsCmd(),
		newPersonsCmd(),
	}
}
