// Package crawler drives a crawl: it seeds a frontier, runs a fixed pool
// of workers over it, and collects the outcome of every URL into a
// model.Summary.
//
// # Architecture
//
// Each worker loops over
//
//	Frontier.Next -> Fetcher.Fetch -> Extractor.Extract -> Store.Save -> Frontier.Offer(links) -> Frontier.Complete
//
// until the frontier reports that the queue is empty with nothing in
// flight, the page limit closes it, or the run's context is cancelled.
// A Run moves through the states idle, seeding, running, draining and
// done.
//
// Design decision: A failure of one URL, at any stage, is recorded in the
// Summary and the worker moves on. Only invalid input to Start is returned
// as an error, because a crawl that has started always produces a Summary.
//
// # Link policy
//
// Discovered links are resolved against the page and normalized by the
// extractor before the frontier sees them. The crawler then applies:
//   - a maximum depth from the seeds
//   - optionally, same-host restriction to the seed hosts
//   - ignore and follow glob patterns on the URL path, globally or per host
//
// # Politeness
//
// Concurrency bounds the number of requests in flight and each worker
// pauses between fetches (WithDelay). robots.txt is not consulted.
//
// # Usage
//
//	c := crawler.New(f, s, crawler.WithConcurrency(4), crawler.WithMaxDepth(2))
//	summary, err := c.Crawl(ctx, []string{"https://example.com/"})
package crawler
