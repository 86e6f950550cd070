package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"qp-hub-backend/internal/csvrecord"
	"qp-hub-backend/internal/export"
	"qp-hub-backend/internal/hubclient"
	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/pkg/logger"
	"qp-hub-backend/internal/projector"
	"qp-hub-backend/internal/sequencer"
	"qp-hub-backend/internal/tracker"
	"qp-hub-backend/pkg/utils"
)

type uploadOptions struct {
	File        string
	HubURL      string
	TargetURL   string
	Token       string
	Password    string
	Concurrency int
	ExportPath  string
	LogLevel    string
}

func newUploadCmd() *cobra.Command {
	var opts uploadOptions

	cmd := &cobra.Command{
		Use:   "upload users|servers|databases --file <csv> --target-url <url> --token <token>",
		Short: "Parse a CSV locally and register every row through the hub",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := model.ParseKind(args[0])
			if !ok {
				return usageError("unknown kind %q", args[0])
			}
			if strings.TrimSpace(opts.File) == "" {
				return usageError("--file is required")
			}
			if strings.TrimSpace(opts.Token) == "" {
				return usageError("--token is required")
			}
			target, err := utils.ValidateTargetURL(opts.TargetURL)
			if err != nil {
				return usageError("--target-url: %v", err)
			}
			opts.TargetURL = target
			if opts.Concurrency < 1 {
				return usageError("--concurrency must be at least 1")
			}

			text, err := readCSV(opts.File)
			if err != nil {
				return usageError("%v", err)
			}

			client := hubclient.New(hubclient.Options{
				HubURL:    opts.HubURL,
				TargetURL: opts.TargetURL,
				Token:     opts.Token,
			})
			log := logger.NewLogger(opts.LogLevel, "console")
			defer log.Sync()

			out := cmd.OutOrStdout()
			var summary model.Summary
			switch kind {
			case model.KindUser:
				users := projector.Users.ParseText(text)
				if opts.Password == "" && lo.ContainsBy(users, func(u model.User) bool { return u.Password == "" }) {
					return usageError("--password is required when rows have no password")
				}
				summary, err = upload(cmd.Context(), out, kind, users, client.UserSubmitter(opts.Password), opts, log)
			case model.KindServer:
				summary, err = upload(cmd.Context(), out, kind, projector.Servers.ParseText(text), client.ServerSubmitter(), opts, log)
			case model.KindDatabase:
				summary, err = upload(cmd.Context(), out, kind, projector.Databases.ParseText(text), client.DatabaseSubmitter(), opts, log)
			}
			if err != nil {
				return err
			}
			if summary.FailCount > 0 {
				return &exitError{code: exitPartial, err: errors.Errorf("%d of %d rows failed", summary.FailCount, summary.Total())}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.File, "file", "", "CSV file to upload")
	f.StringVar(&opts.HubURL, "hub-url", hubclient.DefaultHubURL, "hub proxy base URL")
	f.StringVar(&opts.TargetURL, "target-url", "", "QueryPie platform URL")
	f.StringVar(&opts.Token, "token", "", "QueryPie API token")
	f.StringVar(&opts.Password, "password", "", "initial password for users without one")
	f.IntVar(&opts.Concurrency, "concurrency", 1, "rows in flight at once")
	f.StringVar(&opts.ExportPath, "export", "", "write results to a .csv or .xlsx file")
	f.StringVar(&opts.LogLevel, "log-level", "warn", "log level")
	return cmd
}

func readCSV(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read csv")
	}
	return string(csvrecord.StripBOM(raw)), nil
}

func upload[T export.Entity](ctx context.Context, w io.Writer, kind model.Kind, recs []T, sub sequencer.Submitter[T], opts uploadOptions, log *logger.Logger) (model.Summary, error) {
	if len(recs) == 0 {
		return model.Summary{}, usageError("no valid %s rows in %s", kind, opts.File)
	}

	t := tracker.New[T](len(recs))
	t.Replace(recs)
	cancel := t.Subscribe(rowPrinter(w, t, len(recs)))
	defer cancel()

	fmt.Fprintf(w, "uploading %d %s to %s via %s\n", len(recs), kind, opts.TargetURL, opts.HubURL)
	summary := sequencer.New(t, sub, opts.Concurrency, log).Named("hubctl-" + string(kind)).Submit(ctx)
	printSummary(w, summary)

	if opts.ExportPath != "" {
		if err := writeExport(opts.ExportPath, kind, t.Rows()); err != nil {
			return summary, failure(err)
		}
		fmt.Fprintf(w, "results written to %s\n", opts.ExportPath)
	}
	return summary, nil
}
