package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/basiccleaning/internal/model"
)

// Step is one stage of a cleaning run. Steps run in sequence, each reading
// and updating the run left by the previous ones.
type Step interface {
	// Do executes the step. A returned error stops the pipeline.
	Do(ctx context.Context, run *model.CleaningRun) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in the order they were added.
// The first failing step stops execution.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// now returns the current time; replaced in tests.
	now func() time.Time
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence and records the outcome on run.
// Cancellation is checked before each step; steps that block honor ctx
// themselves.
//
// Returns the first error encountered, which is also stored in run.Error.
func (p *Pipeline) Execute(ctx context.Context, run *model.CleaningRun) error {
	run.StartedAt = p.now()
	defer func() {
		run.FinishedAt = p.now()
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"run_id", run.RunID,
				"reason", ctx.Err(),
			)
			p.fail(run, ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"run_id", run.RunID,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"run_id", run.RunID,
				"error", err,
			)
			p.fail(run, err)
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"run_id", run.RunID,
		)
		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}

	return nil
}

func (p *Pipeline) fail(run *model.CleaningRun, err error) {
	run.Error = err
	run.ErrorMessage = err.Error()
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
