package fetcher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
)

// Default settings for a Fetcher.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultRetries      = 2
	DefaultRetryBackoff = 500 * time.Millisecond
	DefaultMaxBodySize  = 10 * 1024 * 1024
	DefaultMaxRedirects = 10
	DefaultUserAgent    = "textcrawl/1.0 (+https://github.com/nao1215/textcrawl)"

	// retryJitterPercent spreads retries of many workers hitting the same
	// failing host.
	retryJitterPercent = 10
)

// Response is the result of a successful round trip, whatever the status.
type Response struct {
	// URL is the URL that was requested.
	URL string
	// FinalURL is the URL after following redirects.
	FinalURL string
	// StatusCode is the HTTP status code.
	StatusCode int
	// ContentType is the Content-Type response header.
	ContentType string
	// Header holds all response headers.
	Header http.Header
	// Body is the response body, at most MaxBodySize bytes.
	Body []byte
	// Truncated is true when the body was longer than MaxBodySize.
	Truncated bool
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher performs HTTP GET requests. It is safe for concurrent use and
// holds no per-request state.
type Fetcher struct {
	client *http.Client

	timeout      time.Duration
	retries      uint64
	retryBackoff time.Duration
	maxBodySize  int64
	maxRedirects int
	userAgent    string

	// proxyAddress is an optional SOCKS5 proxy in "host:port" form.
	proxyAddress string

	// hosts maps a lowercased hostname to headers injected for it.
	hosts map[string]HostHeaders

	// defaultHeaders are injected for hosts not in hosts.
	defaultHeaders *HostHeaders

	// baseTransport replaces the default transport; used by tests.
	baseTransport http.RoundTripper

	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-attempt timeout, covering the body read.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRetries sets how many times a retryable failure is retried.
// 0 disables retries.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retries = uint64(n)
		}
	}
}

// WithRetryBackoff sets the base delay of the exponential backoff.
func WithRetryBackoff(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.retryBackoff = d
		}
	}
}

// WithMaxBodySize sets the maximum number of body bytes read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithMaxRedirects sets how many redirects are followed.
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRedirects = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithProxy routes all requests through a SOCKS5 proxy at address.
func WithProxy(address string) Option {
	return func(f *Fetcher) {
		f.proxyAddress = address
	}
}

// WithHostHeaders injects headers and a cookie into requests for host.
func WithHostHeaders(host string, h HostHeaders) Option {
	return func(f *Fetcher) {
		if f.hosts == nil {
			f.hosts = make(map[string]HostHeaders)
		}
		f.hosts[strings.ToLower(host)] = h
	}
}

// WithDefaultHeaders injects headers and a cookie into requests for every
// host that has no WithHostHeaders entry.
func WithDefaultHeaders(h HostHeaders) Option {
	return func(f *Fetcher) {
		if len(h.Headers) == 0 && h.Cookie == "" {
			return
		}
		f.defaultHeaders = &h
	}
}

// WithTransport replaces the underlying http.RoundTripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.baseTransport = rt
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Fetcher.
func New(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:      DefaultTimeout,
		retries:      DefaultRetries,
		retryBackoff: DefaultRetryBackoff,
		maxBodySize:  DefaultMaxBodySize,
		maxRedirects: DefaultMaxRedirects,
		userAgent:    DefaultUserAgent,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	client, err := newHTTPClient(f)
	if err != nil {
		return nil, err
	}
	f.client = client
	return f, nil
}

// Fetch GETs rawURL. It returns a Response for any HTTP status, a
// *FetchError when no response could be obtained, or the context's error
// when ctx ends first.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{Kind: KindMalformedURL, URL: rawURL, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &FetchError{Kind: KindMalformedURL, URL: rawURL, Err: fmt.Errorf("unsupported URL %q", rawURL)}
	}

	backoff := retry.NewExponential(f.retryBackoff)
	backoff = retry.WithJitterPercent(retryJitterPercent, backoff)
	backoff = retry.WithMaxRetries(f.retries, backoff)

	var resp *Response
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		r, err := f.fetchOnce(ctx, u)
		if err == nil {
			resp = r
			return nil
		}
		var fe *FetchError
		if errors.As(err, &fe) && fe.Retryable() {
			f.logger.Debug("fetch attempt failed", "url", rawURL, "attempt", attempt, "kind", string(fe.Kind))
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, ctxErr)
		}
		return nil, err
	}
	return resp, nil
}

// fetchOnce performs a single attempt bounded by the per-attempt timeout.
func (f *Fetcher) fetchOnce(ctx context.Context, u *url.URL) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	rawURL := u.String()
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindMalformedURL, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.classify(ctx, attemptCtx, rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, f.classify(ctx, attemptCtx, rawURL, err)
	}
	truncated := false
	if int64(len(body)) > f.maxBodySize {
		body = body[:f.maxBodySize]
		truncated = true
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	f.logger.Debug("fetched",
		"url", rawURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"truncated", truncated,
		"elapsed", time.Since(start))

	return &Response{
		URL:         rawURL,
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Header:      resp.Header,
		Body:        body,
		Truncated:   truncated,
	}, nil
}

// classify turns a transport error into a *FetchError. When the parent
// context has ended, its error is returned unchanged so callers can tell
// cancellation apart from a failed fetch.
func (f *Fetcher) classify(parent, attempt context.Context, rawURL string, err error) error {
	if parentErr := parent.Err(); parentErr != nil {
		return parentErr
	}

	var (
		unknownAuthority x509.UnknownAuthorityError
		certInvalid      x509.CertificateInvalidError
		hostname         x509.HostnameError
		verification     *tls.CertificateVerificationError
		recordHeader     tls.RecordHeaderError
		alert            tls.AlertError
		netErr           net.Error
	)

	kind := KindNetwork
	switch {
	case errors.Is(err, errRedirectLimit):
		kind = KindTooManyRedirects
	case errors.Is(attempt.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		kind = KindConnectionRefused
	case errors.As(err, &unknownAuthority),
		errors.As(err, &certInvalid),
		errors.As(err, &hostname),
		errors.As(err, &verification),
		errors.As(err, &recordHeader),
		errors.As(err, &alert):
		kind = KindTLSError
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	}
	return &FetchError{Kind: kind, URL: rawURL, Err: err}
}
