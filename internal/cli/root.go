// Package cli implements the pilot command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-coursework/internal/app"
	"github.com/p-n-ai/pai-coursework/internal/platform/config"
	"github.com/p-n-ai/pai-coursework/internal/platform/logging"
)

var (
	envFiles []string

	// appOptions is applied to every app the commands build.
	appOptions []app.Option
)

var rootCmd = &cobra.Command{
	Use:   "pilot",
	Short: "Resolve coursework units with a language model",
	Long: `pilot classifies coursework units, generates answers for essays and
multiple-choice questions and hands them to a submission adapter.
Configuration comes from PILOT_ environment variables and optional .env files.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, ".env files to load (default ./.env)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	// stdout carries command output.
	if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
	}
	return cfg, nil
}

// setup configures logging and builds the pipeline. The returned func
// releases both.
func setup(ctx context.Context, cfg *config.Config) (*app.App, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, logOut, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	a, err := app.New(ctx, cfg, appOptions...)
	if err != nil {
		closeQuietly(logOut)
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		closeQuietly(logOut)
	}, nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
