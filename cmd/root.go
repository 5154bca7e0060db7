package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pixbatch/internal/config"
)

var (
	version    = "0.1.0"
	verbose    bool
	configPath string

	cfg      config.Config
	logger   = slog.Default()
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "pixbatch",
	Short: "Batch image compressor, converter and resizer",
	Long: `pixbatch compresses images to a target size, converts between
PNG, JPEG, WebP and AVIF, and resizes with aspect-ratio lock.

Every input is processed one at a time. A single result is written as
is; several results are bundled into one zip archive.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return closeLog()
	},
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the running batch after
// the current image.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"pixbatch %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// setup loads the configuration and installs the logger.
func setup(*cobra.Command, []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if verbose {
		level = slog.LevelDebug
	}
	logger, closeLog = config.SetupLogger(cfg.LogFile, level)
	slog.SetDefault(logger)
	logger.Debug("config loaded",
		"profile", cfg.Profile, "out", cfg.OutputDir, "cache_entries", cfg.CacheEntries)
	return nil
}
