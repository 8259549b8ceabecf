// Package errmsg provides enhanced error message formatting with actionable suggestions.
package errmsg

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"

	"github.com/tsukumogami/kpz/internal/inventory"
	"github.com/tsukumogami/kpz/internal/registry"
)

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	ServerURL  string // Distribution server in use
	InstallDir string // Installation directory in use
}

// Format returns a formatted error message with possible causes and suggestions.
// The context parameter is optional - pass nil for generic formatting.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}

	errMsg := err.Error()

	var regErr *registry.RegistryError
	if errors.As(err, &regErr) {
		return formatRegistryError(errMsg, regErr, ctx)
	}

	if errors.Is(err, inventory.ErrLocked) {
		return formatLockedError(errMsg)
	}

	if errors.Is(err, fs.ErrPermission) || isPermissionError(errMsg) {
		return formatPermissionError(errMsg, ctx)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetworkError(netErr, ctx)
	}

	if isNetworkError(errMsg) {
		return formatGenericNetworkError(errMsg, ctx)
	}

	return errMsg
}

func writeServer(sb *strings.Builder, ctx *ErrorContext) {
	if ctx != nil && ctx.ServerURL != "" {
		sb.WriteString(fmt.Sprintf("  - Verify the server URL: %s\n", ctx.ServerURL))
	}
}

func formatRegistryError(errMsg string, err *registry.RegistryError, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	switch err.Type {
	case registry.ErrTypeTimeout:
		sb.WriteString("  - The server is overloaded or unreachable\n")
		sb.WriteString("  - api_timeout or download_timeout is too short\n")
	case registry.ErrTypeDNS:
		sb.WriteString("  - The server host name cannot be resolved\n")
	case registry.ErrTypeConnection:
		sb.WriteString("  - The distribution server is not running\n")
		sb.WriteString("  - A firewall is blocking the connection\n")
	case registry.ErrTypeTLS:
		sb.WriteString("  - The server certificate is invalid or expired\n")
		sb.WriteString("  - The system clock is wrong\n")
	case registry.ErrTypeNotFound:
		sb.WriteString("  - server_url does not point at a kpz distribution server\n")
		sb.WriteString("  - The package was removed from the server\n")
	case registry.ErrTypeTooLarge, registry.ErrTypeParsing:
		sb.WriteString("  - The server returned an unexpected response\n")
	default:
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - Server temporarily unavailable\n")
	}

	sb.WriteString("\nSuggestions:\n")
	if s := err.Suggestion(); s != "" {
		sb.WriteString("  - " + s + "\n")
	}
	writeServer(&sb, ctx)
	sb.WriteString("  - Run 'kpz doctor' to check your setup\n")

	return sb.String()
}

func formatLockedError(errMsg string) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Another kpz command is still running\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Wait for the other kpz command to finish and try again\n")

	return sb.String()
}

func formatNetworkError(err net.Error, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	if err.Timeout() {
		sb.WriteString("  - Request timed out\n")
		sb.WriteString("  - Slow or unstable network connection\n")
	} else {
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - DNS resolution failure\n")
	}
	sb.WriteString("  - Firewall or proxy blocking the connection\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your network connection\n")
	writeServer(&sb, ctx)
	sb.WriteString("  - Try again in a few minutes\n")

	return sb.String()
}

func formatGenericNetworkError(errMsg string, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Network connectivity issue\n")
	sb.WriteString("  - Server temporarily unavailable\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your network connection\n")
	writeServer(&sb, ctx)

	return sb.String()
}

func formatPermissionError(errMsg string, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Insufficient permissions on the installation directory\n")
	sb.WriteString("  - File or directory owned by a different user\n")

	sb.WriteString("\nSuggestions:\n")
	if ctx != nil && ctx.InstallDir != "" {
		sb.WriteString(fmt.Sprintf("  - Check permissions: ls -la %s\n", ctx.InstallDir))
	}
	sb.WriteString("  - Set KPZ_INSTALL_DIR to a directory you own\n")

	return sb.String()
}

// isNetworkError checks if the error message indicates a network issue
func isNetworkError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "network is unreachable") ||
		strings.Contains(lower, "i/o timeout")
}

// isPermissionError checks if the error message indicates a permission issue
func isPermissionError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "operation not permitted")
}
