package http

import (
	"net/http"
	"strings"
)

// sanitizeInput removes control characters except tab and newlines, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// listCacheKey is the bills list cache key; admins list every bill.
func listCacheKey(email string) string {
	if email == "" {
		return "*"
	}
	return strings.ToLower(email)
}
