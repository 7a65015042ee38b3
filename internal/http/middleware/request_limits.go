package middleware

import (
	"net/http"

	"github.com/tendant/proforma-api/internal/httputil"
)

// RequestSizeLimit caps the request body. Bodies that declare a larger
// Content-Length are refused up front; the rest are wrapped so handlers
// decoding with httputil.DecodeJSON answer 413 once the cap is hit.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Connection", "close")
				httputil.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
