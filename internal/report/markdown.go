package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/textcrawl/internal/model"
)

// maxMarkdownFailures caps the failure table so a large run stays readable.
const maxMarkdownFailures = 50

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for pasting a run into an issue or wiki page.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounts(md, summary)
	w.writeFailures(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *model.Summary) {
	md.H1("textcrawl Run Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + s.RunID + "`"},
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.Duration().Round(time.Millisecond).String()},
			{"Concurrency", strconv.Itoa(s.Concurrency)},
			{"Status", statusText(s)},
		},
	})
	md.PlainText("")

	if len(s.Seeds) > 0 {
		md.H2("Seeds")
		md.PlainText("")
		md.BulletList(s.Seeds...)
		md.PlainText("")
	}
}

// writeCounts writes the page counters and an alert for the outcome.
func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, s *model.Summary) {
	md.H2("Pages")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Discovered", strconv.Itoa(s.URLsDiscovered)},
			{"Fetched", strconv.Itoa(s.PagesFetched)},
			{"Stored", strconv.Itoa(s.PagesStored)},
			{"Failed", strconv.Itoa(s.PagesFailed)},
		},
	})
	md.PlainText("")

	switch {
	case s.Cancelled:
		md.Warningf("The run was cancelled. %d page(s) were stored before it stopped.", s.PagesStored)
	case s.PagesStored == 0:
		md.Cautionf("No pages were stored. %d URL(s) failed.", len(s.Failures))
	case len(s.Failures) > 0:
		md.Note("Some URLs failed. See the failures section below.")
	default:
		md.Tip("Every discovered URL was stored.")
	}
	md.PlainText("")
}

// writeFailures writes a stage pie chart and a table of failed URLs.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, s *model.Summary) {
	md.H2("Failures")
	md.PlainText("")

	if len(s.Failures) == 0 {
		md.PlainText("No failures.")
		md.PlainText("")
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Failures by Stage"),
		piechart.WithShowData(true),
	)
	counts := s.FailuresByStage()
	for _, stage := range stageOrder {
		if counts[stage] > 0 {
			chart.LabelAndIntValue(string(stage), uint64(counts[stage]))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	failures := s.Failures
	if len(failures) > maxMarkdownFailures {
		failures = failures[:maxMarkdownFailures]
	}
	rows := make([][]string, len(failures))
	for i, f := range failures {
		rows[i] = []string{
			truncateString(f.URL, 60),
			string(f.Stage),
			f.Kind,
			truncateString(f.Message, 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Stage", "Kind", "Message"},
		Rows:   rows,
	})
	md.PlainText("")

	if rest := len(s.Failures) - len(failures); rest > 0 {
		md.PlainTextf("... and %d more.", rest)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [textcrawl](https://github.com/nao1215/textcrawl)*")
}
