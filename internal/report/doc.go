// Package report renders crawl run summaries and run history.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown for sharing a run in an issue or wiki
//   - RunsWriter: A table of past runs read back from the database
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
