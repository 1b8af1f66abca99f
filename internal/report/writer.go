package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/basiccleaning/internal/model"
)

// Supported report formats.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// ErrUnknownFormat is returned by New for a format it does not know.
var ErrUnknownFormat = errors.New("unknown report format")

// Writer writes the summary of a cleaning run.
type Writer interface {
	// Write outputs the summary of run and returns the number of bytes written.
	Write(run *model.CleaningRun) (int, error)
}

// New returns the Writer for format, writing to output.
func New(format string, output io.Writer) (Writer, error) {
	switch format {
	case FormatText:
		return NewSimpleWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeLayout is used for timestamps in text and Markdown reports.
const timeLayout = "2006-01-02 15:04:05 MST"

// status returns a one-word state of run.
func status(run *model.CleaningRun) string {
	switch {
	case run.Succeeded():
		return "Published"
	case run.ErrorMessage != "":
		return "Failed"
	default:
		return "Incomplete"
	}
}

// outputRef returns the published reference of run, or "-".
func outputRef(run *model.CleaningRun) string {
	if run.Output == nil {
		return "-"
	}
	return run.Output.String()
}
