package model

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// PageIDLength is the number of hex characters in a page id.
const PageIDLength = 32

// Page is a stored page record.
// A Page is created once, on the first successful save of its URL, and is
// never mutated afterwards.
type Page struct {
	// ID is the opaque identifier of the page. It is derived from URL
	// so the same URL always maps to the same id.
	ID string `json:"id"`

	// URL is the normalized source URL the text was extracted from.
	URL string `json:"url"`

	// Title is the document title, if any. It is not part of the stored blob.
	Title string `json:"title,omitempty"`

	// Text is the extracted visible text.
	Text string `json:"-"`

	// SavedAt is when the text was written to storage.
	SavedAt time.Time `json:"saved_at"`
}

// PageID returns the stable page id for a normalized URL.
//
// The id is the first 128 bits of the BLAKE2b-256 digest, hex encoded.
// Hashing the URL rather than counting saves keeps ids reproducible across
// runs and restarts.
func PageID(normalizedURL string) string {
	sum := blake2b.Sum256([]byte(normalizedURL))
	return hex.EncodeToString(sum[:])[:PageIDLength]
}

// IsValidPageID reports whether s has the shape of a page id.
// Store implementations use this to keep ids from escaping their directory.
func IsValidPageID(s string) bool {
	if len(s) != PageIDLength {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
