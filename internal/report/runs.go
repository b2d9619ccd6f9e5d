package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/textcrawl/internal/model"
)

// RunsWriter renders a list of past runs as a text table.
type RunsWriter struct {
	baseWriter
}

// NewRunsWriter creates a RunsWriter that outputs to the given writer.
func NewRunsWriter(output io.Writer) *RunsWriter {
	return &RunsWriter{baseWriter: newBaseWriter(output)}
}

// WriteRuns outputs one line per run, in the order given.
func (w *RunsWriter) WriteRuns(runs []*model.Summary) (int, error) {
	if len(runs) == 0 {
		return io.WriteString(w.output, "No crawl runs recorded.\n")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-36s  %-19s  %9s  %7s  %7s  %7s  %s\n",
		"RUN ID", "STARTED", "DURATION", "STORED", "FAILED", "SEEN", "STATUS")
	for _, s := range runs {
		fmt.Fprintf(&sb, "%-36s  %-19s  %9s  %7d  %7d  %7d  %s\n",
			s.RunID,
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			s.Duration().Round(time.Second),
			s.PagesStored,
			s.PagesFailed,
			s.URLsDiscovered,
			statusText(s),
		)
	}
	return w.output.Write([]byte(sb.String()))
}
