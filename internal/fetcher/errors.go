package fetcher

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind string

const (
	// KindTimeout means the request or body read exceeded the per-fetch timeout.
	KindTimeout Kind = "Timeout"
	// KindConnectionRefused means the remote host refused the TCP connection.
	KindConnectionRefused Kind = "ConnectionRefused"
	// KindTLSError means the TLS handshake or certificate verification failed.
	KindTLSError Kind = "TLSError"
	// KindMalformedURL means the URL could not be requested at all.
	KindMalformedURL Kind = "MalformedURL"
	// KindTooManyRedirects means the redirect limit was exceeded.
	KindTooManyRedirects Kind = "TooManyRedirects"
	// KindNetwork covers other I/O failures such as DNS errors and resets.
	KindNetwork Kind = "Network"
)

// Sentinel errors matched by errors.Is against a *FetchError of the same kind.
var (
	// ErrTimeout matches fetch timeouts.
	ErrTimeout = errors.New("fetch timed out")
	// ErrConnectionRefused matches refused connections.
	ErrConnectionRefused = errors.New("connection refused")
	// ErrTLS matches TLS failures.
	ErrTLS = errors.New("TLS error")
	// ErrMalformedURL matches unusable URLs.
	ErrMalformedURL = errors.New("malformed URL")
	// ErrTooManyRedirects matches redirect-limit failures.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrNetwork matches unclassified network failures.
	ErrNetwork = errors.New("network error")

	// ErrInvalidProxyAddress is returned by New when the SOCKS5 proxy
	// address is not in "host:port" form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

var kindSentinels = map[Kind]error{
	KindTimeout:           ErrTimeout,
	KindConnectionRefused: ErrConnectionRefused,
	KindTLSError:          ErrTLS,
	KindMalformedURL:      ErrMalformedURL,
	KindTooManyRedirects:  ErrTooManyRedirects,
	KindNetwork:           ErrNetwork,
}

// FetchError is returned by Fetch when no HTTP response could be obtained.
type FetchError struct {
	Kind Kind
	URL  string
	Err  error
}

// Error implements error.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *FetchError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Retryable reports whether another attempt might succeed.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindConnectionRefused, KindNetwork:
		return true
	default:
		return false
	}
}
