package registry

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrorType classifies registry errors for better handling
type ErrorType int

const (
	// ErrTypeNetwork indicates a generic network-related error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeNotFound indicates the server has no such resource (HTTP 404)
	ErrTypeNotFound
	// ErrTypeHTTPStatus indicates any other non-200 response
	ErrTypeHTTPStatus
	// ErrTypeParsing indicates an error decoding response data
	ErrTypeParsing
	// ErrTypeTooLarge indicates a response exceeded its size limit
	ErrTypeTooLarge
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeDNS indicates DNS resolution failure
	ErrTypeDNS
	// ErrTypeConnection indicates connection refused or reset
	ErrTypeConnection
	// ErrTypeTLS indicates TLS/SSL certificate errors
	ErrTypeTLS
)

// RegistryError provides structured error information for requests made
// against the distribution server.
type RegistryError struct {
	Type       ErrorType
	Package    string // Package name, empty for registry.txt requests
	StatusCode int    // HTTP status, when the server answered
	Message    string // Human-readable error message
	Err        error  // Underlying error (if any)
}

// Error implements the error interface
func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registry: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("registry: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support
func (e *RegistryError) Unwrap() error {
	return e.Err
}

// Suggestion returns an actionable suggestion for the user based on the error type.
// Returns an empty string if no specific suggestion is available.
func (e *RegistryError) Suggestion() string {
	switch e.Type {
	case ErrTypeTimeout:
		return "The server is slow to respond. Retry, or raise api_timeout with 'kpz config set'"
	case ErrTypeDNS:
		return "Check the server host name in server_url and your DNS settings"
	case ErrTypeConnection:
		return "Make sure the distribution server is running and reachable at server_url"
	case ErrTypeTLS:
		return "There may be a certificate issue. Check your system time is correct"
	case ErrTypeNotFound:
		if e.Package != "" {
			return "Run 'kpz update' and 'kpz list' to see the packages the server offers"
		}
		return "Check that server_url points at a kpz distribution server"
	case ErrTypeHTTPStatus:
		return "The server returned an unexpected response. Try again later"
	case ErrTypeNetwork:
		return "Check your network connection and try again"
	default:
		return ""
	}
}

// DownloadError reports a failed artifact download for a single package.
type DownloadError struct {
	Package string
	Err     error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download %s: %v", e.Package, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a registry error for a missing resource.
func IsNotFound(err error) bool {
	var regErr *RegistryError
	return errors.As(err, &regErr) && regErr.Type == ErrTypeNotFound
}

// classifyError examines an error and returns the most specific ErrorType.
// This function uses Go's error unwrapping to detect specific network error types.
func classifyError(err error) ErrorType {
	if err == nil {
		return ErrTypeNetwork
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}

	// Interrupted by the user
	if errors.Is(err, context.Canceled) {
		return ErrTypeNetwork
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ErrTypeTimeout
		}
		return ErrTypeDNS
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return ErrTypeTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return ErrTypeTimeout
		}
		var innerDNS *net.DNSError
		if errors.As(opErr.Err, &innerDNS) {
			return ErrTypeDNS
		}
		// Connection refused, reset, etc.
		return ErrTypeConnection
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return ErrTypeTimeout
		}
		msg := urlErr.Err.Error()
		if strings.Contains(msg, "certificate") ||
			strings.Contains(msg, "tls") ||
			strings.Contains(msg, "x509") {
			return ErrTypeTLS
		}
		return classifyError(urlErr.Err)
	}

	return ErrTypeNetwork
}

// WrapNetworkError wraps a network error with the appropriate error type based on classification.
func WrapNetworkError(err error, pkg, message string) *RegistryError {
	return &RegistryError{
		Type:    classifyError(err),
		Package: pkg,
		Message: message,
		Err:     err,
	}
}

// statusError builds the error for a non-200 response.
func statusError(pkg string, status int) *RegistryError {
	what := "registry.txt"
	if pkg != "" {
		what = fmt.Sprintf("package %s", pkg)
	}
	if status == 404 {
		return &RegistryError{
			Type:       ErrTypeNotFound,
			Package:    pkg,
			StatusCode: status,
			Message:    fmt.Sprintf("%s not found on server", what),
		}
	}
	return &RegistryError{
		Type:       ErrTypeHTTPStatus,
		Package:    pkg,
		StatusCode: status,
		Message:    fmt.Sprintf("server returned status %d for %s", status, what),
	}
}
