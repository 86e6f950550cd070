package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/projector"
)

func newParseCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "parse users|servers|databases --file <csv>",
		Short: "Dry run: print the records a CSV projects to as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := model.ParseKind(args[0])
			if !ok {
				return usageError("unknown kind %q", args[0])
			}
			if file == "" {
				return usageError("--file is required")
			}
			text, err := readCSV(file)
			if err != nil {
				return usageError("%v", err)
			}

			var records any
			switch kind {
			case model.KindUser:
				records = projector.Users.ParseText(text)
			case model.KindServer:
				records = projector.Servers.ParseText(text)
			case model.KindDatabase:
				records = projector.Databases.ParseText(text)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(records); err != nil {
				return failure(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV file to parse")
	return cmd
}
