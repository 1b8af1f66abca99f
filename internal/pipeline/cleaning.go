package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/basiccleaning/internal/artifact"
	"github.com/nao1215/basiccleaning/internal/model"
)

// CleaningOptions configures the cleaning pipeline.
type CleaningOptions struct {
	// OutputFile is the local file the cleaned dataset is written to.
	// Defaults to DefaultOutputFile.
	OutputFile string

	// NAValues overrides the markers read as missing values.
	NAValues []string

	// Logger receives step logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewCleaningPipeline builds the cleaning steps in order:
// fetch, read_csv, price_range, drop_missing, save_csv, publish.
func NewCleaningPipeline(store artifact.Store, opts CleaningOptions) *Pipeline {
	logger := orDefault(opts.Logger)

	p := New(WithLogger(logger))
	p.AddSteps(
		NewFetchStep(store, logger),
		NewReadStep(opts.NAValues, logger),
		NewPriceRangeStep(logger),
		NewDropMissingStep(logger),
		NewSaveStep(opts.OutputFile, logger),
		NewPublishStep(store, logger),
	)
	return p
}

// Run executes a cleaning run for params against store.
// The returned run is populated even when an error is returned.
func Run(ctx context.Context, store artifact.Store, params model.Params, opts CleaningOptions) (*model.CleaningRun, error) {
	run := model.NewCleaningRun(params)
	orDefault(opts.Logger).Debug("starting cleaning run", "run_id", run.RunID, "job_type", run.JobType)

	err := NewCleaningPipeline(store, opts).Execute(ctx, run)
	return run, err
}
