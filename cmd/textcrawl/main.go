// Package main provides the entry point for the textcrawl CLI.
//
// textcrawl crawls the web from a list of seed URLs, stores the visible
// text of every page, and serves a case-insensitive substring search over
// the stored pages.
//
// Usage:
//
//	textcrawl crawl https://www.example.com
//	textcrawl search "example"
//	textcrawl serve --crawl
//
// See --help for all available options.
package main

// main is the entry point for textcrawl.
func main() {
	Execute()
}
