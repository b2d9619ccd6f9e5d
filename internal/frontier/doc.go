// Package frontier owns the state of one crawl run: the FIFO queue of URLs
// waiting to be fetched, the URLs currently being processed, and the URLs
// already visited.
//
// Every URL moves through the states queued, in-flight and visited exactly
// once. The membership check and the insertion happen in the same critical
// section, so a URL offered by many workers at the same moment is queued
// once and fetched once.
//
// A Frontier is created per run and never shared between runs.
package frontier
