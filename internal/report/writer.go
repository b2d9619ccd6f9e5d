package report

import (
	"io"

	"github.com/nao1215/textcrawl/internal/model"
)

// Writer defines the interface for run summary output.
//
// Design decision: We use an interface so the crawl command can write the
// same Summary to the terminal and to a file in different formats with
// one call.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.Summary) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because each Writer renders its own format.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// stageOrder is the order in which failure stages are listed.
var stageOrder = []model.Stage{
	model.StageSeed,
	model.StageFetch,
	model.StageStatus,
	model.StageExtract,
	model.StageStore,
}

// statusText describes how a run ended.
func statusText(s *model.Summary) string {
	switch {
	case s.Cancelled:
		return "Cancelled (partial results)"
	case s.State != model.RunStateDone:
		return "In progress (" + string(s.State) + ")"
	default:
		return "Complete"
	}
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
