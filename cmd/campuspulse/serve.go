package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/campuspulse"
	"github.com/jpalmerr/campuspulse/config"
)

const (
	shutdownTimeout = 10 * time.Second
	defaultEnvFile  = ".env"
)

// newLogger creates a JSON logger for CLI use.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// parseLogLevel maps a --log-level flag value to a slog level.
func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", s)
	}
	return level, nil
}

// loadEnvFile loads variables referenced by ${VAR} in the config. Existing
// environment variables win. A missing default .env is not an error; a
// missing explicit file is.
func loadEnvFile(path string, explicit bool) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file: %w", err)
}

// serveFlags holds the values bound to serveCmd's flags.
var serveFlags struct {
	configPath string
	envFile    string
	logLevel   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Poll every configured widget and serve the dashboard until SIGINT or
SIGTERM.

Variables from .env (or --env-file) are loaded before the config is read, so
${VAR} references in urls and headers can point at them.

  campuspulse serve -c campuspulse.yaml
  campuspulse serve -c /etc/campuspulse/config.yaml --env-file /etc/campuspulse/env --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()
	f.StringVarP(&serveFlags.configPath, "config", "c", "", "path to config file (required)")
	f.StringVar(&serveFlags.envFile, "env-file", "", "path to a dotenv file (default .env if present)")
	f.StringVar(&serveFlags.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, _ []string) error {
	level, err := parseLogLevel(serveFlags.logLevel)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), level)

	envFile, explicit := serveFlags.envFile, serveFlags.envFile != ""
	if !explicit {
		envFile = defaultEnvFile
	}
	if err := loadEnvFile(envFile, explicit); err != nil {
		return err
	}

	cfg, err := config.Load(serveFlags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	direct, fromGrids := cfg.WidgetCount()
	logger.Info("config loaded", "path", serveFlags.configPath, "widgets", direct, "grid_widgets", fromGrids)

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build widgets: %w", err)
	}
	d, err := campuspulse.New(append(opts, campuspulse.WithLogger(logger))...)
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, d, logger)
}

// serve runs d until ctx is cancelled, then waits at most shutdownTimeout
// for Start to return.
func serve(ctx context.Context, d *campuspulse.Dashboard, logger *slog.Logger) error {
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		timer := time.NewTimer(shutdownTimeout)
		defer timer.Stop()
		select {
		case err = <-done:
		case <-timer.C:
			logger.Warn("shutdown timed out, exiting anyway", "timeout", shutdownTimeout.String())
			return nil
		}
	}
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
