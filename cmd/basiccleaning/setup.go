package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/basiccleaning/internal/artifact"
	"github.com/nao1215/basiccleaning/internal/config"
	applog "github.com/nao1215/basiccleaning/internal/log"
)

// artifactStore is what commands need from a backend.
type artifactStore interface {
	artifact.Store
	artifact.Catalog
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config flag from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// loadConfig creates a Config from defaults, the global flags and the
// configuration file.
//
// If the user named a configuration file that does not exist, it is an
// error. Otherwise a missing file just leaves the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getConfigFlag(cmd)

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath == "" {
		if cfg.ConfigFilePath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return cfg, nil
	}

	f, err := config.LoadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	cfg.Apply(f)

	return cfg, nil
}

// newLogger creates the logger for cfg, writing to the command's stderr.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return applog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogFormat)
}

// openStore opens the artifact store selected by cfg. The returned function
// releases it and must be called once the store is no longer used.
func openStore(cfg *config.Config, logger *slog.Logger) (artifactStore, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendS3:
		s, err := artifact.NewS3Store(artifact.S3Options{
			Bucket:         cfg.Store.Bucket,
			Region:         cfg.Store.Region,
			Prefix:         cfg.Store.Prefix,
			Endpoint:       cfg.Store.Endpoint,
			ForcePathStyle: cfg.Store.ForcePathStyle,
			CacheDir:       cfg.Store.CacheDir,
			Logger:         logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open s3 store: %w", err)
		}
		return s, func() error { return nil }, nil

	case config.BackendLocal:
		opts := artifact.DefaultLocalOptions()
		opts.CacheDir = cfg.Store.CacheDir
		opts.Logger = logger

		s, err := artifact.OpenLocal(cfg.Store.Dir, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local store: %w", err)
		}
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", config.ErrInvalidBackend, cfg.Store.Backend)
	}
}

// commandContext returns the command context, cancelled on interrupt.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
