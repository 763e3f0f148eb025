package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"payboard/internal/cli"
	"payboard/internal/core"
	apphttp "payboard/internal/http"
	"payboard/internal/metrics"
	"payboard/internal/services"
	"payboard/internal/store/memory"
	"payboard/internal/view"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// TableFlags holds the optional submission for the table command.
type TableFlags struct {
	Month   string
	Success string
	Failed  string
}

// submitted reports whether any record flag was given.
func submitted(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("month") || cmd.Flags().Changed("success") || cmd.Flags().Changed("failed")
}

func newRootCommand() *cobra.Command {
	serve := createServeCommand()
	root := &cobra.Command{
		Use:           "payboard",
		Short:         "Payment status dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve, createTableCommand())
	return root
}

func createServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg, cmd.OutOrStdout())

			publisher, closePublisher := cli.NewEventPublisher(cfg, logger)
			defer closePublisher()

			st := memory.NewSeeded()
			metrics.UpdateRecordsHeld(st.Len())
			svc := services.NewDashboardService(st, publisher)
			srv := apphttp.NewServer(cfg.Addr(), svc, apphttp.Options{
				RateLimitPerMinute: cfg.RateLimitPerMinute,
				Logger:             logger,
			})
			srv.ReadTimeout = 10 * time.Second
			srv.WriteTimeout = 10 * time.Second
			srv.IdleTimeout = 60 * time.Second
			srv.MaxHeaderBytes = 1 << 16

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("Starting payboard server",
				"addr", cfg.Addr(),
				"events", cfg.EventsEnabled())
			return cli.RunServer(ctx, srv, cfg.ShutdownTimeout, logger)
		},
	}
}

func createTableCommand() *cobra.Command {
	flags := &TableFlags{}
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the record table, optionally after submitting one record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in *core.FormInput
			if submitted(cmd) {
				in = &core.FormInput{Month: flags.Month, Success: flags.Success, Failed: flags.Failed}
			}
			return runTable(cmd.Context(), cmd.OutOrStdout(), in)
		},
	}
	def := core.DefaultForm()
	cmd.Flags().StringVar(&flags.Month, "month", def.Month, "month of the record to submit")
	cmd.Flags().StringVar(&flags.Success, "success", def.Success, "successful payments")
	cmd.Flags().StringVar(&flags.Failed, "failed", def.Failed, "failed payments")
	return cmd
}

// runTable prints the seed table, after submitting in when it is not nil.
// Field errors are printed and returned.
func runTable(ctx context.Context, out io.Writer, in *core.FormInput) error {
	svc := services.NewDashboardService(memory.NewSeeded(), nil)

	if in != nil {
		if _, err := svc.Submit(ctx, *in); err != nil {
			var fe core.FieldErrors
			if errors.As(err, &fe) {
				for _, f := range fe.Fields() {
					_, _ = fmt.Fprintf(out, "%s: %s\n", f, fe[f])
				}
			}
			return err
		}
	}

	recs, err := svc.Snapshot(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, cli.RenderTable(view.Table(recs)))
	return err
}
