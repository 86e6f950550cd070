package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qp-hub-backend/internal/hubclient"
)

func newPingCmd() *cobra.Command {
	var hubURL string

	cmd := &cobra.Command{
		Use:   "ping [--hub-url <url>]",
		Short: "Check that the hub is running",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := hubclient.New(hubclient.Options{HubURL: hubURL}).Ping(cmd.Context())
			if err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", res.Message, res.Timestamp.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
	cmd.Flags().StringVar(&hubURL, "hub-url", hubclient.DefaultHubURL, "hub proxy base URL")
	return cmd
}
