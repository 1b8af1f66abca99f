package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/basiccleaning/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *model.CleaningRun) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *model.CleaningRun) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func newTestRun() *model.CleaningRun {
	return model.NewCleaningRun(model.Params{InputArtifact: "sample.csv:latest"})
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		t.Parallel()

		p := New(WithLogger(nil))
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})
}

func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds single step", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "test-step"})

		if p.StepCount() != 1 {
			t.Errorf("expected 1 step, got %d", p.StepCount())
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "first"})
		p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

		names := p.StepNames()

		expected := []string{"first", "second", "third"}
		if len(names) != len(expected) {
			t.Fatalf("expected %d names, got %d", len(expected), len(names))
		}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})

	t.Run("returns empty slice for empty pipeline", func(t *testing.T) {
		t.Parallel()

		if names := New().StepNames(); len(names) != 0 {
			t.Errorf("expected empty slice, got %v", names)
		}
	})
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		executionOrder := make([]string, 0)

		p := New()
		for _, name := range []string{"step-1", "step-2"} {
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *model.CleaningRun) error {
					executionOrder = append(executionOrder, name)
					return nil
				},
			})
		}

		run := newTestRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Join(executionOrder, ",") != "step-1,step-2" {
			t.Errorf("wrong execution order: %v", executionOrder)
		}
		if strings.Join(run.PerformedSteps, ",") != "step-1,step-2" {
			t.Errorf("expected performed steps step-1,step-2, got %v", run.PerformedSteps)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		second := &mockStep{name: "should-not-run"}

		p := New()
		p.AddSteps(
			&mockStep{name: "ok"},
			&mockStep{
				name: "failing-step",
				doFunc: func(_ context.Context, _ *model.CleaningRun) error {
					return expectedErr
				},
			},
			second,
		)

		run := newTestRun()
		err := p.Execute(context.Background(), run)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if second.callCount != 0 {
			t.Error("step after the failure should not have been called")
		}
		if !errors.Is(run.Error, expectedErr) {
			t.Errorf("expected run error %v, got %v", expectedErr, run.Error)
		}
		if run.ErrorMessage != expectedErr.Error() {
			t.Errorf("expected error message %q, got %q", expectedErr.Error(), run.ErrorMessage)
		}
		if len(run.PerformedSteps) != 1 || run.PerformedSteps[0] != "ok" {
			t.Errorf("expected only the first step recorded, got %v", run.PerformedSteps)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := New()
		p.AddStep(step)

		run := newTestRun()
		err := p.Execute(ctx, run)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
		if !errors.Is(run.Error, context.Canceled) {
			t.Errorf("expected run error context.Canceled, got %v", run.Error)
		}
	})

	t.Run("records start and finish times", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		calls := 0

		p := New()
		p.now = func() time.Time {
			calls++
			return start.Add(time.Duration(calls-1) * time.Second)
		}
		p.AddStep(&mockStep{name: "noop"})

		run := newTestRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !run.StartedAt.Equal(start) {
			t.Errorf("expected start %v, got %v", start, run.StartedAt)
		}
		if run.Duration() != time.Second {
			t.Errorf("expected duration 1s, got %v", run.Duration())
		}
	})

	t.Run("logs failures with the step name", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		p := New(WithLogger(logger))
		p.AddStep(&mockStep{
			name: "broken",
			doFunc: func(_ context.Context, _ *model.CleaningRun) error {
				return errors.New("boom")
			},
		})

		_ = p.Execute(context.Background(), newTestRun()) //nolint:errcheck // checked via log output

		out := buf.String()
		if !strings.Contains(out, "step failed") || !strings.Contains(out, "step=broken") {
			t.Errorf("expected failure log with step name, got %q", out)
		}
	})
}

func TestMockStep(t *testing.T) {
	t.Parallel()

	step := &mockStep{name: "my-step"}
	run := newTestRun()

	_ = step.Do(context.Background(), run)
	_ = step.Do(context.Background(), run)

	if step.callCount != 2 {
		t.Errorf("expected call count 2, got %d", step.callCount)
	}
	if step.Name() != "my-step" {
		t.Errorf("expected name 'my-step', got %q", step.Name())
	}
}
