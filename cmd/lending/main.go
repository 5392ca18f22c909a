package main

import (
	"context"
	stdLog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/library-lending/lending/app"
	"github.com/Astemirdum/library-lending/lending/config"
)

// @title        Library Lending API
// @version      1.0
// @description  Lend and return books, track overdue loans and read the audit trail.
// @host         localhost:8060
// @BasePath     /api/v1
func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLog.Fatal("load envs from .env ", err)
	}

	var storage string
	loadConfig := func() *config.Config {
		return config.NewConfig(
			config.WithLogLevel(zapcore.DebugLevel),
			config.WithWriteTimeout(time.Minute),
			config.WithStorage(storage),
		)
	}

	root := &cobra.Command{
		Use:          "lending",
		Short:        "Library lending service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&storage, "storage", "", "storage backend: postgres or memory (STORAGE env wins)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the audit pipeline",
			Run: func(cmd *cobra.Command, args []string) {
				app.Run(loadConfig())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.Migrate(loadConfig())
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Mark every lending past its due date as overdue",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return app.Sweep(ctx, loadConfig())
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
