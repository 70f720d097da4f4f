package ratelimit

import (
	"net/http"
	"strings"
)

// ClientID derives the rate-limit key for a request: the first entry of
// X-Forwarded-For, else X-Real-IP, else UnknownClient.
//
// These headers are client-controlled unless a trusted proxy overwrites
// them, so the key is a best-effort identity, not an authenticated one.
func ClientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownClient
}
