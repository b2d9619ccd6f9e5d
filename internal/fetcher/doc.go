// Package fetcher issues HTTP GET requests for the crawler.
//
// A Fetcher returns the status, headers and body of every response it
// receives, whatever the status code; deciding what counts as success is
// the caller's job. Transport failures are classified into a *FetchError
// with one of a small set of kinds so the crawler can record them.
//
// Design decision: Timeouts, refused connections and generic network
// errors are retried with exponential backoff (github.com/sethvargo/go-retry).
// TLS failures, malformed URLs and redirect loops are not, because a second
// attempt would fail the same way.
//
// # Usage
//
//	f, err := fetcher.New(fetcher.WithTimeout(5*time.Second), fetcher.WithRetries(2))
//	resp, err := f.Fetch(ctx, "https://example.com/")
package fetcher
