// Package store persists extracted page text as flat files.
//
// The layout is one UTF-8 file per page, outputDir/<pageID>.txt, where the
// page id is derived from the normalized source URL (see model.PageID).
// Writes go to a temporary file that is renamed into place, so readers
// never observe a partially written page.
package store
