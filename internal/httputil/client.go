package httputil

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// ClientOptions configures the HTTP client used to talk to the
// distribution server.
type ClientOptions struct {
	// Timeout is the overall per-request timeout. Zero leaves it unset so
	// callers can bound requests through their context instead (artifact
	// downloads run far longer than registry fetches).
	Timeout time.Duration

	// DialTimeout is the TCP dial timeout. Default: 30s.
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the TLS handshake timeout. Default: 10s.
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout is the time to wait for response headers. Default: 30s.
	ResponseHeaderTimeout time.Duration

	// MaxRedirects is the maximum redirect depth. Default: 10.
	MaxRedirects int

	// EnableCompression lets the transport negotiate gzip transparently.
	// Default: false. The registry client decodes Content-Encoding itself
	// so that decoded sizes can be bounded.
	EnableCompression bool

	// IdleConnTimeout is how long idle connections stay open. Default: 90s.
	IdleConnTimeout time.Duration
}

// DefaultOptions returns the default client options.
func DefaultOptions() ClientOptions {
	return ClientOptions{
		DialTimeout:           30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		MaxRedirects:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}

// NewClient creates an HTTP client with explicit timeouts and a redirect
// policy suited to a self-hosted distribution server:
//   - HTTPS -> HTTP downgrades are refused
//   - redirect chains are bounded
//   - a server on a public address may not redirect into private,
//     loopback or link-local space (servers already on a LAN may)
func NewClient(opts ClientOptions) *http.Client {
	def := DefaultOptions()
	if opts.DialTimeout == 0 {
		opts.DialTimeout = def.DialTimeout
	}
	if opts.TLSHandshakeTimeout == 0 {
		opts.TLSHandshakeTimeout = def.TLSHandshakeTimeout
	}
	if opts.ResponseHeaderTimeout == 0 {
		opts.ResponseHeaderTimeout = def.ResponseHeaderTimeout
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = def.MaxRedirects
	}
	if opts.IdleConnTimeout == 0 {
		opts.IdleConnTimeout = def.IdleConnTimeout
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy:              http.ProxyFromEnvironment,
			DisableCompression: !opts.EnableCompression,
			DialContext: (&net.Dialer{
				Timeout:   opts.DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   opts.TLSHandshakeTimeout,
			ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          10,
			IdleConnTimeout:       opts.IdleConnTimeout,
		},
		CheckRedirect: makeRedirectChecker(opts.MaxRedirects, net.LookupIP),
	}
}

// lookupFunc resolves a hostname; replaced in tests.
type lookupFunc func(host string) ([]net.IP, error)

// makeRedirectChecker creates a redirect validation function.
func makeRedirectChecker(maxRedirects int, lookup lookupFunc) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}

		prev := via[len(via)-1]
		if prev.URL.Scheme == "https" && req.URL.Scheme != "https" {
			return fmt.Errorf("redirect from HTTPS to non-HTTPS URL is not allowed: %s", req.URL)
		}

		origin := via[0].URL.Hostname()
		originLocal, err := isLocalHost(origin, lookup)
		if err != nil || originLocal {
			// The origin itself is local (or unresolvable, in which case the
			// original request would already have failed): nothing to guard.
			return nil
		}

		host := req.URL.Hostname()
		if ip := net.ParseIP(host); ip != nil {
			return ValidateIP(ip, host)
		}

		// Resolve and check every address to defeat DNS rebinding.
		ips, err := lookup(host)
		if err != nil {
			return fmt.Errorf("failed to resolve redirect host %s: %w", host, err)
		}
		for _, ip := range ips {
			if err := ValidateIP(ip, host); err != nil {
				return fmt.Errorf("refusing redirect: %s resolves to blocked IP %s", host, ip)
			}
		}

		return nil
	}
}

// isLocalHost reports whether host is, or resolves only to, non-public addresses.
func isLocalHost(host string, lookup lookupFunc) (bool, error) {
	if host == "localhost" {
		return true, nil
	}
	if ip := net.ParseIP(host); ip != nil {
		return ValidateIP(ip, host) != nil, nil
	}

	ips, err := lookup(host)
	if err != nil {
		return false, err
	}
	for _, ip := range ips {
		if ValidateIP(ip, host) == nil {
			return false, nil
		}
	}
	return len(ips) > 0, nil
}
