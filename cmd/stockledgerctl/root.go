package main

import (
	"context"
	"time"

	"github.com/smallbiznis/stockledger/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "stockledgerctl",
	Short:         "Post supplier and customer invoices to the stock ledger",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var startTimeout time.Duration

func init() {
	rootCmd.PersistentFlags().DurationVar(&startTimeout, "start-timeout", 15*time.Second, "Time allowed to connect to the database and stores")
}

// runApp starts the dependency graph, calls fn and stops the graph again.
func runApp(ctx context.Context, fn func(context.Context) error, opts ...fx.Option) error {
	opts = append([]fx.Option{fx.NopLogger, app.Infrastructure}, opts...)
	application := fx.New(opts...)
	if err := application.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := application.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()

	return fn(ctx)
}
