// Package extractor turns fetched HTML into visible text, a title and
// absolute outbound links.
//
// The text is an approximation of what a browser shows: every text node
// under <body> outside script-like elements, joined by spaces with runs of
// whitespace collapsed. It is not CSS-aware, so content hidden with styles
// is still extracted.
package extractor
