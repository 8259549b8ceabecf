// Package registry talks to a kpz distribution server: it fetches the
// published package list and streams artifact bytes.
//
// The server layout is flat:
//
//	GET {base}/registry.txt   one package name per line
//	GET {base}/{name}         raw artifact
package registry

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tsukumogami/kpz/internal/buildinfo"
	"github.com/tsukumogami/kpz/internal/config"
	"github.com/tsukumogami/kpz/internal/httputil"
	"github.com/tsukumogami/kpz/internal/log"
)

const (
	// RegistryPath is the server path of the package list
	RegistryPath = "registry.txt"

	// DefaultMaxArtifactSize bounds a single decoded artifact (512 MiB)
	DefaultMaxArtifactSize int64 = 512 << 20

	// maxRegistrySize bounds the decoded registry.txt body (4 MiB)
	maxRegistrySize = 4 << 20
)

// ProgressFunc wraps the raw response body of an artifact download.
// total is the Content-Length, or -1 when unknown. The returned function
// is called once the download finishes.
type ProgressFunc func(name string, total int64, r io.Reader) (io.Reader, func())

// Client fetches the registry and artifacts from one distribution server.
type Client struct {
	BaseURL         string
	MaxArtifactSize int64

	client          *http.Client
	logger          log.Logger
	apiTimeout      time.Duration
	downloadTimeout time.Duration
	progress        ProgressFunc
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the default hardened HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithProgress installs a download progress hook.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) { c.progress = fn }
}

// New creates a Client for the server and timeouts in cfg.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		BaseURL:         strings.TrimRight(cfg.ServerURL, "/"),
		MaxArtifactSize: DefaultMaxArtifactSize,
		logger:          log.NewNoop(),
		apiTimeout:      cfg.APITimeout,
		downloadTimeout: cfg.DownloadTimeout,
	}
	if c.apiTimeout <= 0 {
		c.apiTimeout = config.DefaultAPITimeout
	}
	if c.downloadTimeout <= 0 {
		c.downloadTimeout = config.DefaultDownloadTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = httputil.NewClient(httputil.DefaultOptions())
	}
	return c
}

// RegistryURL returns the URL of the package list.
func (c *Client) RegistryURL() string {
	return c.BaseURL + "/" + RegistryPath
}

// ArtifactURL returns the URL of a package artifact.
func (c *Client) ArtifactURL(name string) string {
	return c.BaseURL + "/" + url.PathEscape(name)
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Encoding", AcceptEncoding)
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("response", "url", rawURL, "status", resp.StatusCode,
		"length", resp.ContentLength, "encoding", resp.Header.Get("Content-Encoding"))
	return resp, nil
}

// FetchRegistry returns the package names the server currently offers, in
// server order. A returned error means the registry is unknown; an empty
// slice with a nil error means the server publishes no packages.
func (c *Client) FetchRegistry(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.apiTimeout)
	defer cancel()

	c.logger.Info("fetching registry", "url", c.RegistryURL())

	resp, err := c.get(ctx, c.RegistryURL())
	if err != nil {
		return nil, WrapNetworkError(err, "", "failed to fetch registry")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("", resp.StatusCode)
	}

	body, err := decodeBody(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, &RegistryError{Type: ErrTypeParsing, Message: "failed to decode registry", Err: err}
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxRegistrySize+1))
	if err != nil {
		return nil, WrapNetworkError(err, "", "failed to read registry")
	}
	if len(data) > maxRegistrySize {
		return nil, &RegistryError{
			Type:    ErrTypeTooLarge,
			Message: fmt.Sprintf("registry exceeds %d bytes", maxRegistrySize),
		}
	}

	names, err := ParseRegistry(bytes.NewReader(data))
	if err != nil {
		return nil, &RegistryError{Type: ErrTypeParsing, Message: "failed to parse registry", Err: err}
	}

	c.logger.Debug("registry fetched", "packages", len(names))
	return names, nil
}

// ParseRegistry reads one package name per line. Surrounding whitespace
// (including a trailing \r) is trimmed, blank lines are dropped, and only
// the first occurrence of a repeated name is kept.
func ParseRegistry(r io.Reader) ([]string, error) {
	var names []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// writeError marks a failure on the destination side of a download.
type writeError struct {
	err error
}

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

type errWriter struct {
	w io.Writer
}

func (ew errWriter) Write(p []byte) (int, error) {
	n, err := ew.w.Write(p)
	if err != nil {
		return n, &writeError{err: err}
	}
	return n, nil
}

// FetchArtifact streams the named artifact into dst and returns the number
// of decoded bytes written. Server and transport failures are returned as
// *DownloadError; a failure writing to dst is returned as is.
func (c *Client) FetchArtifact(ctx context.Context, name string, dst io.Writer) (int64, error) {
	if name == "" {
		return 0, &DownloadError{Package: name, Err: errors.New("empty package name")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	artifactURL := c.ArtifactURL(name)
	c.logger.Info("downloading artifact", "package", name, "url", artifactURL)

	resp, err := c.get(ctx, artifactURL)
	if err != nil {
		return 0, &DownloadError{Package: name, Err: WrapNetworkError(err, name, "request failed")}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &DownloadError{Package: name, Err: statusError(name, resp.StatusCode)}
	}

	var raw io.Reader = resp.Body
	if c.progress != nil {
		wrapped, done := c.progress(name, resp.ContentLength, resp.Body)
		defer done()
		raw = wrapped
	}

	body, err := decodeBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return 0, &DownloadError{Package: name, Err: &RegistryError{
			Type: ErrTypeParsing, Package: name, Message: "failed to decode artifact", Err: err,
		}}
	}
	defer body.Close()

	n, err := io.Copy(errWriter{w: dst}, io.LimitReader(body, c.MaxArtifactSize+1))
	if err != nil {
		var we *writeError
		if errors.As(err, &we) {
			return n, we.err
		}
		return n, &DownloadError{Package: name, Err: WrapNetworkError(err, name, "failed to read artifact")}
	}
	if n > c.MaxArtifactSize {
		return n, &DownloadError{Package: name, Err: &RegistryError{
			Type:    ErrTypeTooLarge,
			Package: name,
			Message: fmt.Sprintf("artifact exceeds %d bytes", c.MaxArtifactSize),
		}}
	}

	c.logger.Debug("artifact downloaded", "package", name, "bytes", n)
	return n, nil
}
