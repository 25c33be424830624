package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes is the default maximum request body size (64 KiB).
// Form posts here are a username/password or a single task line; anything
// bigger is not a legitimate request.
const DefaultMaxBodyBytes = 64 << 10

// MaxBytes caps the request body size. Past the cap, reading the body fails,
// so the handlers' ParseForm calls error out and take their silent-redirect
// path; the oversized request is dropped without a task or user being written.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
