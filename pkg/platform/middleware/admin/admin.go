// Package admin guards operator-only endpoints with a shared-token check.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// RequireToken rejects requests whose X-Admin-Token header does not match the
// expected token. Comparison is constant-time to prevent timing attacks. An
// empty expected token disables the endpoint entirely.
func RequireToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			if expectedToken == "" ||
				subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(r.Context(), "admin token mismatch",
					"path", r.URL.Path,
					"remote", r.RemoteAddr,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"error":"admin token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
