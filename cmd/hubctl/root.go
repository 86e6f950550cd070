package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hubctl",
		Short:         "Bulk-register users, servers and databases through a HUB proxy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newTemplateCmd())
	cmd.AddCommand(newPingCmd())
	return cmd
}

func Execute() {
	err := newRootCmd().Execute()
	if code := exitCode(err); code != exitOK {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// cobra flag and argument errors
	return exitUsage
}
