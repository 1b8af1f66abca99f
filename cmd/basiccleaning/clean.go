package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/basiccleaning/internal/config"
	"github.com/nao1215/basiccleaning/internal/model"
	"github.com/nao1215/basiccleaning/internal/pipeline"
	"github.com/nao1215/basiccleaning/internal/report"
)

// runCleanCmd executes one cleaning run.
func runCleanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg)

	ctx, stop := commandContext(cmd)
	defer stop()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close artifact store", "error", err)
		}
	}()

	run, runErr := pipeline.Run(ctx, store, params(cfg), pipeline.CleaningOptions{
		OutputFile: cfg.OutputFile,
		NAValues:   cfg.NAValues,
		Logger:     logger,
	})

	if err := outputReport(cmd, cfg, run); err != nil {
		if runErr != nil {
			return errors.Join(runErr, err)
		}
		return err
	}
	return runErr
}

// buildConfig creates a Config from the configuration file and the flags
// of the cleaning run.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if cfg.InputArtifact, err = cmd.Flags().GetString(flagInputArtifact); err != nil {
		return nil, err
	}
	if cfg.OutputArtifact, err = cmd.Flags().GetString(flagOutputArtifact); err != nil {
		return nil, err
	}
	if cfg.OutputType, err = cmd.Flags().GetString(flagOutputType); err != nil {
		return nil, err
	}
	if cfg.OutputDescription, err = cmd.Flags().GetString(flagOutputDescription); err != nil {
		return nil, err
	}
	if cfg.MinPrice, err = cmd.Flags().GetFloat64(flagMinPrice); err != nil {
		return nil, err
	}
	if cfg.MaxPrice, err = cmd.Flags().GetFloat64(flagMaxPrice); err != nil {
		return nil, err
	}

	return cfg, nil
}

// params returns the run parameters held by cfg.
func params(cfg *config.Config) model.Params {
	return model.Params{
		InputArtifact:     cfg.InputArtifact,
		OutputArtifact:    cfg.OutputArtifact,
		OutputType:        cfg.OutputType,
		OutputDescription: cfg.OutputDescription,
		MinPrice:          cfg.MinPrice,
		MaxPrice:          cfg.MaxPrice,
	}
}

// outputReport writes the run report in the configured format, to the
// report file or stdout. Nothing is written for ReportFormatNone.
func outputReport(cmd *cobra.Command, cfg *config.Config, run *model.CleaningRun) error {
	if cfg.ReportFormat == config.ReportFormatNone || run == nil {
		return nil
	}

	var output io.Writer = cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	w, err := report.New(cfg.ReportFormat, output)
	if err != nil {
		return err
	}
	if _, err := w.Write(run); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
