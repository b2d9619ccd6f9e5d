// Package model defines the data structures shared by the crawler engine.
//
// This package contains the following main types:
//   - URL helpers: NormalizeURL and ResolveURL define URL identity
//   - Page: a stored page record and its deterministic id
//   - Summary: the result record of a crawl run
//   - ValidationError: rejected caller input (seeds, search terms)
//
// Design decision: We keep these types in their own package so that the
// frontier, store, crawler, search and report packages can share them
// without import cycles.
package model
