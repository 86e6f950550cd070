package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qp-hub-backend/internal/export"
	"qp-hub-backend/internal/model"
)

func newTemplateCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template users|servers|databases [--out <file>]",
		Short: "Write the sample CSV template for a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := model.ParseKind(args[0])
			if !ok {
				return usageError("unknown kind %q", args[0])
			}
			body, _ := export.Template(kind)
			if out == "" {
				out = export.TemplateFilename(kind)
			}
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file, - for stdout (default <kind>_template.csv)")
	return cmd
}
