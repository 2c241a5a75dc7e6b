package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iota-uz/estate-office/pkg/commands"
	"github.com/iota-uz/estate-office/pkg/configuration"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "command",
		Short:         "estate-office maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(commands.NewUtilityCommands()...)
	return cmd
}

func Execute() {
	err := newRootCmd().Execute()
	configuration.Use().Unload()
	if err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
