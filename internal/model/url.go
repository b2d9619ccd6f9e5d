package model

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URL errors.
var (
	// ErrInvalidURL is returned when a string cannot be turned into an
	// absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrUnsupportedScheme is returned for schemes other than http and https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// defaultPorts maps schemes to the port that is implied when none is given.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// NormalizeURL canonicalizes an absolute http(s) URL so that string
// equality means entity equality.
//
// The rules are:
//  1. scheme and host are lowercased
//  2. the default port for the scheme is removed
//  3. the fragment is dropped
//  4. an empty path becomes "/"
//  5. the query is kept as-is
//
// Relative references are rejected; use ResolveURL for those.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return normalize(u)
}

// ResolveURL resolves href against base and normalizes the result.
// base must itself be an absolute URL.
func ResolveURL(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return normalize(base.ResolveReference(ref))
}

// Hostname returns the lowercased host (without port) of a URL string, or
// an empty string if it cannot be parsed.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func normalize(u *url.URL) (string, error) {
	if !u.IsAbs() {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, u.String())
	}

	scheme := strings.ToLower(u.Scheme)
	port, ok := defaultPorts[scheme]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, u.String())
	}

	n := *u
	n.Scheme = scheme
	n.Host = strings.ToLower(n.Host)
	if h, p, err := net.SplitHostPort(n.Host); err == nil && p == port {
		n.Host = h
		if strings.Contains(h, ":") {
			n.Host = "[" + h + "]"
		}
	}
	n.Fragment = ""
	n.RawFragment = ""
	if n.Path == "" && n.Opaque == "" {
		n.Path = "/"
		n.RawPath = ""
	}
	n.User = nil

	return n.String(), nil
}
