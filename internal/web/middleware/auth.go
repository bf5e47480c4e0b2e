package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/config"
)

// APIKeyAuth guards a route group with the X-API-Key header. With
// RequireAPIKey off every request passes; with it on and an empty key list
// everything is rejected, never silently opened.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if key == "" {
				logAuthFailure(r, "missing API key")
				writeAuthError(w, http.StatusUnauthorized, "missing API key", "AUTH_MISSING_KEY")
				return
			}

			if !keyMatches(key, cfg.APIKeys) {
				logAuthFailure(r, "invalid API key")
				writeAuthError(w, http.StatusForbidden, "invalid API key", "AUTH_INVALID_KEY")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// keyMatches compares the presented key against every configured key in
// constant time. All keys are checked even after a match so the duration
// does not leak which entry, if any, matched.
func keyMatches(key string, keys []string) bool {
	matched := 0
	for _, k := range keys {
		matched |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return matched == 1
}

func logAuthFailure(r *http.Request, reason string) {
	slog.Warn("auth: "+reason,
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
	)
}

func writeAuthError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `","code":"` + code + `"}`))
}
