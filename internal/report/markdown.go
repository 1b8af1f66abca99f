package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/basiccleaning/internal/model"
)

// MarkdownWriter outputs run summaries in Markdown, suitable for attaching
// to a pull request or a run log.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(run *model.CleaningRun) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeRows(md, run)
	w.writeMissing(md, run)
	w.writeSteps(md, run)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.CleaningRun) {
	md.H1("Basic Cleaning Run")
	md.PlainText("")

	started := "-"
	if !run.StartedAt.IsZero() {
		started = run.StartedAt.Format(timeLayout)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + run.RunID + "`"},
			{"Input", "`" + run.Params.InputArtifact + "`"},
			{"Output", "`" + outputRef(run) + "`"},
			{"Type", run.Params.OutputType},
			{"Description", run.Params.OutputDescription},
			{"Price range", "[" + formatPrice(run.Params.MinPrice) + ", " + formatPrice(run.Params.MaxPrice) + "]"},
			{"Started", started},
			{"Duration", run.Duration().String()},
			{"Status", status(run)},
		},
	})
	md.PlainText("")

	switch {
	case run.ErrorMessage != "":
		md.Cautionf("Run failed: %s", run.ErrorMessage)
	case run.Succeeded() && run.Stats.OutputRows == 0:
		md.Warningf("No rows survived cleaning; %s holds a header only.", outputRef(run))
	case run.Succeeded():
		md.Tip("Run completed and the cleaned data was published.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeRows(md *markdown.Markdown, run *model.CleaningRun) {
	md.H2("Rows")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Rows"},
		Rows: [][]string{
			{"Read", strconv.Itoa(run.Stats.InputRows)},
			{"Out of price range", strconv.Itoa(run.Stats.OutOfRangeRows())},
			{"Incomplete", strconv.Itoa(run.Stats.IncompleteRows())},
			{"**Written**", "**" + strconv.Itoa(run.Stats.OutputRows) + "**"},
		},
	})
	md.PlainText("")

	if run.Stats.InputRows > 0 {
		w.writePieChart(md, run)
	}
}

// writePieChart writes a mermaid pie chart of where the input rows went.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.CleaningRun) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Input Rows"),
		piechart.WithShowData(true),
	)

	if n := run.Stats.OutputRows; n > 0 {
		chart.LabelAndIntValue("Kept", uint64(n))
	}
	if n := run.Stats.OutOfRangeRows(); n > 0 {
		chart.LabelAndIntValue("Out of range", uint64(n))
	}
	if n := run.Stats.IncompleteRows(); n > 0 {
		chart.LabelAndIntValue("Incomplete", uint64(n))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeMissing(md *markdown.Markdown, run *model.CleaningRun) {
	cols := missingColumns(run)
	if len(cols) == 0 {
		return
	}

	md.H2("Missing Values")
	md.PlainText("")

	rows := make([][]string, len(cols))
	for i, col := range cols {
		rows[i] = []string{"`" + col + "`", strconv.Itoa(run.Stats.MissingByColumn[col])}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Column", "Missing"},
		Rows:   rows,
	})
	md.PlainText("")
	md.Note("Counts cover rows inside the price range only.")
	md.PlainText("")
}

func (w *MarkdownWriter) writeSteps(md *markdown.Markdown, run *model.CleaningRun) {
	if len(run.PerformedSteps) == 0 {
		return
	}
	md.H2("Steps")
	md.PlainText("")
	md.BulletList(run.PerformedSteps...)
	md.PlainText("")
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
