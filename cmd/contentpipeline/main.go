package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"ContentPipeline/internal/app"
	"ContentPipeline/internal/config"
	"ContentPipeline/internal/logging"
)

var dryRun bool

var rootCmd = &cobra.Command{
	Use:   "contentpipeline",
	Short: "Editorial content pipeline: writes queued records and publishes approved ones",
}

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Run one writing batch over queued records",
	Run: func(cmd *cobra.Command, args []string) {
		runStage(func(ctx context.Context, a *app.Application) error {
			return a.RunWrite(ctx)
		})
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Run one publishing batch over approved records",
	Run: func(cmd *cobra.Command, args []string) {
		runStage(func(ctx context.Context, a *app.Application) error {
			return a.RunPublish(ctx)
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run both stages on the configured interval",
	Run: func(cmd *cobra.Command, args []string) {
		runStage(func(ctx context.Context, a *app.Application) error {
			return a.Serve(ctx)
		})
	},
}

// runStage builds the application and executes one stage. A non-zero exit is
// reserved for run-level fatal errors; per-record failures do not trigger it.
func runStage(stage func(context.Context, *app.Application) error) {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger, dryRun)
	if err != nil {
		logger.Error("cannot build application", "error", err)
		os.Exit(1)
	}

	if err := stage(ctx, application); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Preview selection without making changes")
	rootCmd.AddCommand(writeCmd, publishCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
