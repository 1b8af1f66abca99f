package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/basiccleaning/internal/model"
)

// JSONWriter outputs run summaries as JSON for tool integration.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
// Output is compact unless an indent option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonReport is the serialized form of a run. Derived counts are spelled
// out so consumers do not recompute them.
type jsonReport struct {
	*model.CleaningRun

	Status         string `json:"status"`
	DurationMillis int64  `json:"duration_ms"`
	OutOfRangeRows int    `json:"out_of_range_rows"`
	IncompleteRows int    `json:"incomplete_rows"`
}

// Write outputs the run summary in JSON format, followed by a newline.
func (w *JSONWriter) Write(run *model.CleaningRun) (int, error) {
	v := jsonReport{
		CleaningRun:    run,
		Status:         status(run),
		DurationMillis: run.Duration().Milliseconds(),
		OutOfRangeRows: run.Stats.OutOfRangeRows(),
		IncompleteRows: run.Stats.IncompleteRows(),
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
