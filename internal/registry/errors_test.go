package registry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"testing"
)

func TestRegistryError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *RegistryError
		want string
	}{
		{
			name: "with underlying error",
			err: &RegistryError{
				Type:    ErrTypeNetwork,
				Message: "failed to fetch registry",
				Err:     errors.New("connection reset"),
			},
			want: "registry: failed to fetch registry: connection reset",
		},
		{
			name: "without underlying error",
			err: &RegistryError{
				Type:    ErrTypeNotFound,
				Package: "img",
				Message: "package img not found on server",
			},
			want: "registry: package img not found on server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistryError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &RegistryError{Message: "outer", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestDownloadError(t *testing.T) {
	inner := &RegistryError{Type: ErrTypeNotFound, Package: "qr", Message: "package qr not found on server"}
	err := &DownloadError{Package: "qr", Err: inner}

	want := "failed to download qr: registry: package qr not found on server"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var regErr *RegistryError
	if !errors.As(err, &regErr) {
		t.Fatal("errors.As should find the RegistryError")
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() = false, want true")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound(plain) = true, want false")
	}
}

func TestRegistryError_Suggestion(t *testing.T) {
	tests := []struct {
		name       string
		err        *RegistryError
		wantEmpty  bool
		wantSubstr string
	}{
		{
			name:       "timeout mentions api_timeout",
			err:        &RegistryError{Type: ErrTypeTimeout},
			wantSubstr: "api_timeout",
		},
		{
			name:       "DNS mentions server_url",
			err:        &RegistryError{Type: ErrTypeDNS},
			wantSubstr: "server_url",
		},
		{
			name:       "connection mentions server",
			err:        &RegistryError{Type: ErrTypeConnection},
			wantSubstr: "distribution server is running",
		},
		{
			name:       "TLS has suggestion",
			err:        &RegistryError{Type: ErrTypeTLS},
			wantSubstr: "certificate",
		},
		{
			name:       "missing package points at list",
			err:        &RegistryError{Type: ErrTypeNotFound, Package: "img"},
			wantSubstr: "kpz list",
		},
		{
			name:       "missing registry points at server_url",
			err:        &RegistryError{Type: ErrTypeNotFound},
			wantSubstr: "server_url",
		},
		{
			name:       "generic network has suggestion",
			err:        &RegistryError{Type: ErrTypeNetwork},
			wantSubstr: "network connection",
		},
		{
			name:      "parsing has no suggestion",
			err:       &RegistryError{Type: ErrTypeParsing},
			wantEmpty: true,
		},
		{
			name:      "too large has no suggestion",
			err:       &RegistryError{Type: ErrTypeTooLarge},
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suggestion := tt.err.Suggestion()

			if tt.wantEmpty {
				if suggestion != "" {
					t.Errorf("Suggestion() = %q, want empty", suggestion)
				}
				return
			}
			if !strings.Contains(suggestion, tt.wantSubstr) {
				t.Errorf("Suggestion() = %q, want substring %q", suggestion, tt.wantSubstr)
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	err := statusError("img", 404)
	if err.Type != ErrTypeNotFound || err.StatusCode != 404 {
		t.Errorf("statusError(404) = %+v, want not-found", err)
	}

	err = statusError("", 503)
	if err.Type != ErrTypeHTTPStatus || err.StatusCode != 503 {
		t.Errorf("statusError(503) = %+v, want HTTP status", err)
	}
	if !strings.Contains(err.Error(), "registry.txt") {
		t.Errorf("statusError message %q should name registry.txt", err.Error())
	}
}

func TestWrapNetworkError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		pkg      string
		wantType ErrorType
	}{
		{
			name:     "wraps DNS error",
			err:      &net.DNSError{Err: "no such host", Name: "packages.lan"},
			pkg:      "img",
			wantType: ErrTypeDNS,
		},
		{
			name:     "wraps timeout error",
			err:      context.DeadlineExceeded,
			pkg:      "qr",
			wantType: ErrTypeTimeout,
		},
		{
			name:     "wraps generic error",
			err:      errors.New("unknown error"),
			wantType: ErrTypeNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapNetworkError(tt.err, tt.pkg, "request failed")

			if result.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", result.Type, tt.wantType)
			}
			if result.Package != tt.pkg {
				t.Errorf("Package = %q, want %q", result.Package, tt.pkg)
			}
			if result.Err != tt.err {
				t.Errorf("Err = %v, want %v", result.Err, tt.err)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
	}{
		{"nil error", nil, ErrTypeNetwork},
		{"context deadline exceeded", context.DeadlineExceeded, ErrTypeTimeout},
		{"context canceled", context.Canceled, ErrTypeNetwork},
		{
			"DNS error",
			&net.DNSError{Err: "no such host", Name: "packages.lan"},
			ErrTypeDNS,
		},
		{
			"DNS timeout error",
			&net.DNSError{Err: "timeout", Name: "packages.lan", IsTimeout: true},
			ErrTypeTimeout,
		},
		{
			"net.OpError timeout",
			&net.OpError{Op: "read", Net: "tcp", Err: &timeoutError{}},
			ErrTypeTimeout,
		},
		{
			"net.OpError connection refused",
			&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			ErrTypeConnection,
		},
		{
			"url.Error wrapping connection refused",
			&url.Error{Op: "Get", URL: "http://localhost:8080/registry.txt",
				Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}},
			ErrTypeConnection,
		},
		{
			"url.Error with timeout",
			&url.Error{Op: "Get", URL: "http://localhost:8080/img", Err: &timeoutError{}},
			ErrTypeTimeout,
		},
		{
			"url.Error with certificate error",
			&url.Error{Op: "Get", URL: "https://dist.example.com", Err: errors.New("x509: certificate has expired")},
			ErrTypeTLS,
		},
		{"generic error", errors.New("something went wrong"), ErrTypeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.err); got != tt.wantType {
				t.Errorf("classifyError() = %v, want %v", got, tt.wantType)
			}
		})
	}
}

// timeoutError is a helper for testing timeout detection
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
