// middleware/body.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/cyborg/httputil"
)

// LimitBodySize returns a middleware that limits the size of the request body
// to maxBytes. If maxBytes <= 0, it is a no-op and does not wrap the body.
//
// Apply it early in the chain so no handler reads past the limit.
func LimitBodySize(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireJSON returns a middleware that rejects requests whose Content-Type
// is not JSON ("application/json" or a "+json" suffix) with 400 and a
// {success:false} envelope carrying message.
func RequireJSON(message string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !httputil.IsJSONContentType(r.Header.Get("Content-Type")) {
				httputil.Fail(w, http.StatusBadRequest, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
