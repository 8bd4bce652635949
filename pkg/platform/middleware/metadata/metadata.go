// Package metadata extracts client metadata (IP, user agent, device family)
// at the HTTP edge and stores it in the request context for audit enrichment.
package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"metasignet/pkg/requestcontext"
)

// MaxUserAgentLength caps the user agent recorded in audit trails so a hostile
// client cannot flood logs through the header.
const MaxUserAgentLength = 500

// Handler extracts client IP address and User-Agent from the request
// and adds them to the context for use by handlers and audit sinks.
func Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawUA := r.Header.Get("User-Agent")
		if len(rawUA) > MaxUserAgentLength {
			rawUA = rawUA[:MaxUserAgentLength]
		}

		meta := requestcontext.ClientMetadata{
			IP:        clientIP(r),
			UserAgent: rawUA,
			Device:    deviceFamily(rawUA),
		}

		ctx := requestcontext.WithClientMetadata(r.Context(), meta)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP returns the direct connection address. X-Forwarded-For is not
// trusted: this service is expected to run without a fronting proxy, and a
// spoofable header must not end up in audit records.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "unknown"
	}
	return host
}

// deviceFamily buckets the user agent into a coarse family for audit records.
func deviceFamily(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return "unknown"
	}
	ua := useragent.New(rawUA)
	switch {
	case ua.Bot():
		return "bot"
	case ua.Mobile():
		return "mobile"
	default:
		if name, _ := ua.Browser(); name != "" {
			return "browser"
		}
		return "cli"
	}
}
