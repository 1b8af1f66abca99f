package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/basiccleaning/internal/artifact"
	"github.com/nao1215/basiccleaning/internal/model"
	"github.com/nao1215/basiccleaning/internal/table"
)

// DefaultOutputFile is the local file the cleaned dataset is written to.
const DefaultOutputFile = "clean_sample.csv"

// errNoTable is returned when a step that needs data runs before read_csv.
var errNoTable = errors.New("no dataset loaded")

// FetchStep resolves the input artifact to a local file.
type FetchStep struct {
	resolver artifact.Resolver
	logger   *slog.Logger
}

// NewFetchStep creates a step that materializes the input artifact through resolver.
func NewFetchStep(resolver artifact.Resolver, logger *slog.Logger) *FetchStep {
	return &FetchStep{resolver: resolver, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do resolves run.Params.InputArtifact and stores the local path on run.
func (s *FetchStep) Do(ctx context.Context, run *model.CleaningRun) error {
	s.logger.Info("downloading input artifact", "artifact", run.Params.InputArtifact)

	path, err := s.resolver.Resolve(ctx, run.Params.InputArtifact)
	if err != nil {
		return err
	}
	run.InputPath = path

	s.logger.Debug("input artifact available", "path", path)
	return nil
}

// ReadStep parses the fetched file into the working table.
type ReadStep struct {
	opts   []table.ReadOption
	logger *slog.Logger
}

// NewReadStep creates a step that reads CSV with the given NA markers.
// A nil naValues keeps table.DefaultNAValues.
func NewReadStep(naValues []string, logger *slog.Logger) *ReadStep {
	s := &ReadStep{logger: orDefault(logger)}
	if naValues != nil {
		s.opts = append(s.opts, table.WithNAValues(naValues))
	}
	return s
}

// Name returns the step name.
func (s *ReadStep) Name() string {
	return "read_csv"
}

// Do reads run.InputPath.
func (s *ReadStep) Do(_ context.Context, run *model.CleaningRun) error {
	s.logger.Info("reading data", "path", run.InputPath)

	t, err := table.ReadFile(run.InputPath, s.opts...)
	if err != nil {
		return err
	}
	run.Table = t
	run.Columns = t.Columns()
	run.Stats.InputRows = t.Len()

	s.logger.Debug("data loaded", "rows", t.Len(), "columns", len(t.Columns()))
	return nil
}

// PriceRangeStep keeps rows whose price lies within the run's bounds.
type PriceRangeStep struct {
	logger *slog.Logger
}

// NewPriceRangeStep creates the price range filter step.
func NewPriceRangeStep(logger *slog.Logger) *PriceRangeStep {
	return &PriceRangeStep{logger: orDefault(logger)}
}

// Name returns the step name.
func (s *PriceRangeStep) Name() string {
	return "price_range"
}

// Do filters run.Table on the price column. Inverted bounds yield an empty table.
func (s *PriceRangeStep) Do(_ context.Context, run *model.CleaningRun) error {
	if run.Table == nil {
		return errNoTable
	}

	s.logger.Info("filtering rows with price between",
		"min_price", run.Params.MinPrice,
		"max_price", run.Params.MaxPrice,
	)

	filtered, err := run.Table.Between(model.PriceColumn, run.Params.MinPrice, run.Params.MaxPrice)
	if err != nil {
		return fmt.Errorf("failed to filter %s: %w", run.InputPath, err)
	}
	run.Table = filtered
	run.Stats.InRangeRows = filtered.Len()

	s.logger.Debug("price filter applied", "kept", filtered.Len(), "dropped", run.Stats.OutOfRangeRows())
	return nil
}

// DropMissingStep drops every row with a missing value in any column.
type DropMissingStep struct {
	logger *slog.Logger
}

// NewDropMissingStep creates the missing value filter step.
func NewDropMissingStep(logger *slog.Logger) *DropMissingStep {
	return &DropMissingStep{logger: orDefault(logger)}
}

// Name returns the step name.
func (s *DropMissingStep) Name() string {
	return "drop_missing"
}

// Do removes incomplete rows from run.Table.
func (s *DropMissingStep) Do(_ context.Context, run *model.CleaningRun) error {
	if run.Table == nil {
		return errNoTable
	}

	s.logger.Info("dropping rows with missing values")

	run.Stats.MissingByColumn = run.Table.CountMissing()
	run.Table = run.Table.DropMissing()
	run.Stats.OutputRows = run.Table.Len()

	s.logger.Debug("missing values dropped", "kept", run.Table.Len(), "dropped", run.Stats.IncompleteRows())
	return nil
}

// SaveStep writes the cleaned table to a local file.
type SaveStep struct {
	path   string
	logger *slog.Logger
}

// NewSaveStep creates a step that writes to path, or DefaultOutputFile if empty.
func NewSaveStep(path string, logger *slog.Logger) *SaveStep {
	if path == "" {
		path = DefaultOutputFile
	}
	return &SaveStep{path: path, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *SaveStep) Name() string {
	return "save_csv"
}

// Do writes run.Table and records the output path.
func (s *SaveStep) Do(_ context.Context, run *model.CleaningRun) error {
	if run.Table == nil {
		return errNoTable
	}

	s.logger.Info("saving cleaned data", "path", s.path, "rows", run.Table.Len())

	if err := run.Table.WriteFile(s.path); err != nil {
		return err
	}
	run.OutputPath = s.path
	return nil
}

// PublishStep registers the output file as a new artifact version.
type PublishStep struct {
	publisher artifact.Publisher
	logger    *slog.Logger
}

// NewPublishStep creates a step that publishes through publisher.
func NewPublishStep(publisher artifact.Publisher, logger *slog.Logger) *PublishStep {
	return &PublishStep{publisher: publisher, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *PublishStep) Name() string {
	return "publish"
}

// Do publishes run.OutputPath with the run's metadata.
func (s *PublishStep) Do(ctx context.Context, run *model.CleaningRun) error {
	if run.OutputPath == "" {
		return errors.New("no output file to publish")
	}

	meta := run.ArtifactMetadata()
	s.logger.Info("logging artifact", "name", meta.Name, "type", meta.Type)

	ref, err := s.publisher.Publish(ctx, run.OutputPath, meta)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", meta.Name, err)
	}
	run.Output = &ref

	s.logger.Info("artifact published", "artifact", ref.String(), "digest", ref.Digest)
	return nil
}

// orDefault returns logger, or slog.Default() when it is nil.
func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
