package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// errRedirectLimit is returned from CheckRedirect and surfaces wrapped in
// a *url.Error from http.Client.Do.
var errRedirectLimit = errors.New("redirect limit exceeded")

// newHTTPClient builds the http.Client used by a Fetcher.
//
// Design decisions:
//   - The client has no Timeout; each attempt gets its own context deadline
//     so a timeout can be told apart from cancellation of the whole run
//   - Redirects are capped at maxRedirects and the excess is an error,
//     not a silently returned 3xx
//   - When proxyAddress is set, all connections go through SOCKS5
func newHTTPClient(f *Fetcher) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if f.proxyAddress != "" {
		if !isValidProxyAddress(f.proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", f.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = dialContext(dialer)
	}

	var rt http.RoundTripper = transport
	if f.baseTransport != nil {
		rt = f.baseTransport
	}
	if len(f.hosts) > 0 || f.defaultHeaders != nil {
		rt = &headerInjectingTransport{base: rt, hosts: f.hosts, defaults: f.defaultHeaders}
	}

	maxRedirects := f.maxRedirects
	return &http.Client{
		Transport: rt,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			// via holds the requests already sent, so len(via) redirects
			// have been followed once this one is allowed.
			if len(via) > maxRedirects {
				return errRedirectLimit
			}
			return nil
		},
	}, nil
}

// dialContext adapts a proxy.Dialer to http.Transport.DialContext.
// The SOCKS5 dialer from x/net implements proxy.ContextDialer; the fallback
// covers dialers that do not.
func dialContext(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		resultCh := make(chan dialResult, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			resultCh <- dialResult{conn, err}
		}()
		select {
		case r := <-resultCh:
			return r.conn, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// isValidProxyAddress checks the "host:port" form with a port in 1..65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// HostHeaders holds request customization for one host.
type HostHeaders struct {
	// Headers are set on every request to the host.
	Headers map[string]string
	// Cookie is a raw Cookie header value, e.g. "session=abc".
	Cookie string
}

// headerInjectingTransport adds per-host headers and cookies to requests.
// Redirected requests go through RoundTrip again, so a redirect to another
// host never carries the first host's credentials.
type headerInjectingTransport struct {
	base  http.RoundTripper
	hosts map[string]HostHeaders

	// defaults apply to hosts without an entry in hosts.
	defaults *HostHeaders
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	h, ok := t.hosts[strings.ToLower(req.URL.Hostname())]
	if !ok {
		if t.defaults == nil {
			return t.base.RoundTrip(req)
		}
		h = *t.defaults
	}

	clone := req.Clone(req.Context())
	if h.Cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+h.Cookie)
		} else {
			clone.Header.Set("Cookie", h.Cookie)
		}
	}
	for k, v := range h.Headers {
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}
