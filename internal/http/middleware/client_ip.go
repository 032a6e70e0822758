package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// UnknownClient identifies a request whose origin cannot be determined.
const UnknownClient = "unknown"

// ClientIdentity returns the identity used for per-client throttling and
// logging: the first hop of X-Forwarded-For, else X-Real-IP, else the socket
// peer address, else "unknown". Headers are trusted as-is; the service is
// expected to sit behind a proxy that sets them.
func ClientIdentity(c *gin.Context) string {
	if xff := ForwardedFor(c); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}
	if host := peerHost(c.Request.RemoteAddr); host != "" {
		return host
	}
	return UnknownClient
}

// ForwardedFor returns the raw, trimmed X-Forwarded-For header.
func ForwardedFor(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-Forwarded-For"))
}

func peerHost(remote string) string {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
