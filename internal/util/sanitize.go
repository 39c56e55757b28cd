package util

import (
	"html"
	"net"
	"strings"
)

// SanitizeInput trims whitespace and escapes HTML/script-like characters
func SanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return html.EscapeString(s)
}

// ClientIP extracts the originating client address from proxy headers,
// preferring X-Forwarded-For, then X-Real-IP, then the given fallback.
func ClientIP(forwardedFor, realIP, fallback string) string {
	if forwardedFor != "" {
		// First hop in the chain is the client
		if idx := strings.IndexByte(forwardedFor, ','); idx >= 0 {
			forwardedFor = forwardedFor[:idx]
		}
		if ip := strings.TrimSpace(forwardedFor); ip != "" {
			return ip
		}
	}
	if realIP != "" {
		return realIP
	}
	if fallback == "" {
		return "unknown"
	}
	// Strip the port from host:port remote addresses
	if host, _, err := net.SplitHostPort(fallback); err == nil {
		return host
	}
	return fallback
}
