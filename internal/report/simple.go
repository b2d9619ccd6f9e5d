package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/textcrawl/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors so the output can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// verbose lists every failed URL instead of only per-stage counts.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables listing every failed URL.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	w.writeFailures(&sb, summary)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run identity and status.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         TEXTCRAWL RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run ID:       %s\n", s.RunID)
	fmt.Fprintf(sb, "Started:      %s\n", s.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:     %s\n", s.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Concurrency:  %d\n", s.Concurrency)
	fmt.Fprintf(sb, "Seeds:        %d\n", len(s.Seeds))
	fmt.Fprintf(sb, "Status:       %s\n", statusText(s))
	sb.WriteString("\n")
}

// writeCounts writes the page counters.
func (w *SimpleWriter) writeCounts(sb *strings.Builder, s *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  DISCOVERED: %d\n", s.URLsDiscovered)
	fmt.Fprintf(sb, "  FETCHED:    %d\n", s.PagesFetched)
	fmt.Fprintf(sb, "  STORED:     %d\n", s.PagesStored)
	fmt.Fprintf(sb, "  FAILED:     %d\n", s.PagesFailed)
	sb.WriteString("\n")
}

// writeFailures writes failures grouped by stage.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, s *model.Summary) {
	if len(s.Failures) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	counts := s.FailuresByStage()
	for _, stage := range stageOrder {
		if counts[stage] == 0 {
			continue
		}
		fmt.Fprintf(sb, "  %-8s %d\n", strings.ToUpper(string(stage))+":", counts[stage])
		if !w.verbose {
			continue
		}
		for _, f := range s.Failures {
			if f.Stage == stage {
				fmt.Fprintf(sb, "    [-] %s (%s)\n", f.URL, f.Kind)
			}
		}
	}
	sb.WriteString("\n")
}
