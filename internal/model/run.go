package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/basiccleaning/internal/artifact"
	"github.com/nao1215/basiccleaning/internal/table"
)

// JobTypeBasicCleaning is the job type recorded on artifacts produced by a cleaning run.
const JobTypeBasicCleaning = "basic_cleaning"

// PriceColumn is the column the range filter applies to.
const PriceColumn = "price"

// Params are the invocation parameters of a cleaning run.
// They are fixed for the duration of the run.
type Params struct {
	// InputArtifact is the store reference of the raw CSV.
	InputArtifact string `json:"input_artifact"`

	// OutputArtifact is the name the cleaned file is published under.
	OutputArtifact string `json:"output_artifact"`

	// OutputType is the category tag of the published artifact.
	OutputType string `json:"output_type"`

	// OutputDescription is free text stored with the published artifact.
	OutputDescription string `json:"output_description"`

	// MinPrice is the inclusive lower price bound.
	MinPrice float64 `json:"min_price"`

	// MaxPrice is the inclusive upper price bound.
	MaxPrice float64 `json:"max_price"`
}

// Stats holds row counts collected while the run executes.
type Stats struct {
	// InputRows is the number of data rows read from the input file.
	InputRows int `json:"input_rows"`

	// InRangeRows is the number of rows left after the price filter.
	InRangeRows int `json:"in_range_rows"`

	// OutputRows is the number of rows written to the output file.
	OutputRows int `json:"output_rows"`

	// MissingByColumn counts missing cells per column among in-range rows.
	MissingByColumn map[string]int `json:"missing_by_column,omitempty"`
}

// OutOfRangeRows returns how many rows the price filter dropped.
func (s Stats) OutOfRangeRows() int {
	return s.InputRows - s.InRangeRows
}

// IncompleteRows returns how many in-range rows were dropped for missing values.
func (s Stats) IncompleteRows() int {
	return s.InRangeRows - s.OutputRows
}

// CleaningRun is the state of one execution of the cleaning step.
type CleaningRun struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`

	// JobType is the kind of job, always JobTypeBasicCleaning.
	JobType string `json:"job_type"`

	// Params are the invocation parameters.
	Params Params `json:"params"`

	// StartedAt is when the pipeline started executing.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the pipeline stopped, successfully or not.
	FinishedAt time.Time `json:"finished_at"`

	// InputPath is the local copy of the input artifact.
	InputPath string `json:"input_path,omitempty"`

	// Columns is the header of the input file.
	Columns []string `json:"columns,omitempty"`

	// Table is the working dataset. Each step replaces it with its result.
	Table *table.Table `json:"-"`

	// OutputPath is the local file the cleaned dataset was written to.
	OutputPath string `json:"output_path,omitempty"`

	// Output is the reference assigned by the store on publish.
	Output *artifact.Reference `json:"output,omitempty"`

	// Stats holds row counts.
	Stats Stats `json:"stats"`

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error is the error that stopped the run, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewCleaningRun creates a run with a fresh id for params.
func NewCleaningRun(params Params) *CleaningRun {
	return &CleaningRun{
		RunID:   uuid.NewString(),
		JobType: JobTypeBasicCleaning,
		Params:  params,
	}
}

// Succeeded reports whether the run published its output without error.
func (r *CleaningRun) Succeeded() bool {
	return r.Error == nil && r.ErrorMessage == "" && r.Output != nil
}

// Duration returns how long the run took, or zero if it has not finished.
func (r *CleaningRun) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ArtifactMetadata builds the metadata the cleaned file is published with.
// Extra carries the run configuration and row counts.
func (r *CleaningRun) ArtifactMetadata() artifact.Metadata {
	return artifact.Metadata{
		Name:        r.Params.OutputArtifact,
		Type:        r.Params.OutputType,
		Description: r.Params.OutputDescription,
		Extra: map[string]any{
			"run_id":         r.RunID,
			"job_type":       r.JobType,
			"input_artifact": r.Params.InputArtifact,
			"min_price":      r.Params.MinPrice,
			"max_price":      r.Params.MaxPrice,
			"input_rows":     r.Stats.InputRows,
			"output_rows":    r.Stats.OutputRows,
		},
	}
}
