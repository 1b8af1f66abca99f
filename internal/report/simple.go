package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/nao1215/basiccleaning/internal/model"
)

// SimpleWriter outputs a plain text run summary for the terminal.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(run *model.CleaningRun) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeRows(&sb, run)
	w.writeMissing(&sb, run)
	w.writeFooter(&sb, run)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.CleaningRun) {
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("                  BASIC CLEANING RUN\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run ID:      %s\n", run.RunID)
	fmt.Fprintf(sb, "Input:       %s\n", run.Params.InputArtifact)
	fmt.Fprintf(sb, "Output:      %s\n", outputRef(run))
	fmt.Fprintf(sb, "Type:        %s\n", run.Params.OutputType)
	fmt.Fprintf(sb, "Price range: [%g, %g]\n", run.Params.MinPrice, run.Params.MaxPrice)
	if !run.StartedAt.IsZero() {
		fmt.Fprintf(sb, "Started:     %s\n", run.StartedAt.Format(timeLayout))
	}
	fmt.Fprintf(sb, "Duration:    %s\n", run.Duration())

	if run.ErrorMessage != "" {
		fmt.Fprintf(sb, "Status:      %s - %s\n", status(run), run.ErrorMessage)
	} else {
		fmt.Fprintf(sb, "Status:      %s\n", status(run))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeRows(sb *strings.Builder, run *model.CleaningRun) {
	sb.WriteString("ROWS\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  Read:          %d\n", run.Stats.InputRows)
	fmt.Fprintf(sb, "  Out of range:  %d\n", run.Stats.OutOfRangeRows())
	fmt.Fprintf(sb, "  Incomplete:    %d\n", run.Stats.IncompleteRows())
	fmt.Fprintf(sb, "  Written:       %d\n", run.Stats.OutputRows)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeMissing(sb *strings.Builder, run *model.CleaningRun) {
	if len(run.Stats.MissingByColumn) == 0 {
		return
	}

	sb.WriteString("MISSING VALUES (in-range rows)\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	for _, col := range missingColumns(run) {
		fmt.Fprintf(sb, "  %-20s %d\n", col, run.Stats.MissingByColumn[col])
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, run *model.CleaningRun) {
	if len(run.PerformedSteps) > 0 {
		fmt.Fprintf(sb, "Steps: %s\n", strings.Join(run.PerformedSteps, " -> "))
	}
}

// missingColumns returns the columns with at least one missing value, in
// header order when known and sorted otherwise.
func missingColumns(run *model.CleaningRun) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, col := range run.Columns {
		if run.Stats.MissingByColumn[col] > 0 {
			cols = append(cols, col)
			seen[col] = true
		}
	}

	var rest []string
	for col, n := range run.Stats.MissingByColumn {
		if n > 0 && !seen[col] {
			rest = append(rest, col)
		}
	}
	slices.Sort(rest)
	return append(cols, rest...)
}
