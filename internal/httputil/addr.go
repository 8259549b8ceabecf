package httputil

import (
	"fmt"
	"net"
)

// blockedKind names the address class that makes ip unsuitable as a
// redirect target from a public server, or "" if it is a public address.
func blockedKind(ip net.IP) string {
	switch {
	case ip.IsPrivate():
		return "private IP"
	case ip.IsLoopback():
		return "loopback IP"
	case ip.IsLinkLocalUnicast():
		return "link-local IP"
	case ip.IsLinkLocalMulticast():
		return "link-local multicast"
	case ip.IsMulticast():
		return "multicast IP"
	case ip.IsUnspecified():
		return "unspecified IP"
	}
	return ""
}

// ValidateIP returns an error if ip is private, loopback, link-local,
// multicast or unspecified. The host is included for debugging.
func ValidateIP(ip net.IP, host string) error {
	if kind := blockedKind(ip); kind != "" {
		return fmt.Errorf("refusing redirect to %s: %s (%s)", kind, host, ip)
	}
	return nil
}
