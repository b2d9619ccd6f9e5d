package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/textcrawl/internal/model"
)

// JSONWriter outputs summaries in JSON format.
//
// Design decision: We use standard encoding/json because the Summary is a
// plain struct with json tags and no third-party encoder in use here adds
// anything for it.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// version is included in the output when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// WithVersion wraps the summary with the textcrawl version that produced it.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport wraps a Summary with output metadata.
type JSONReport struct {
	// Version is the textcrawl version that generated this report.
	Version string `json:"version"`

	// DurationSeconds is the run's wall-clock time.
	DurationSeconds float64 `json:"duration_seconds"`

	// Summary is the run summary.
	Summary *model.Summary `json:"summary"`
}

// Write outputs the summary in JSON format.
func (w *JSONWriter) Write(summary *model.Summary) (int, error) {
	if w.version == "" {
		return w.writeJSON(summary)
	}
	return w.writeJSON(&JSONReport{
		Version:         w.version,
		DurationSeconds: summary.Duration().Seconds(),
		Summary:         summary,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
