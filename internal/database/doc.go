// Package database provides SQLite-based crawl history for textcrawl.
//
// This package implements the CrawlDB, which stores:
//   - One row per crawl run with its Summary counters
//   - The source URL and title of every stored page
//   - The URLs that failed in each run, with stage and kind
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the
// history is a single local file next to the page store, and the CGO-free
// driver keeps cross-compilation trivial. WAL mode lets the search server
// read history while a crawl writes it.
package database
