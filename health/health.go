// health/health.go
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/dalemusser/cyborg/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Check represents a single probe. It returns nil when the dependency is
// reachable. The ctx passed in is derived from the request context.
type Check func(ctx context.Context) error

// Response is the JSON structure returned by the health handler.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler returns an http.Handler that runs checks on each request.
// With no checks it is a plain liveness probe answering {"status":"ok"}.
// If any check fails it answers 503 with status "error" and the per-check
// results; the error text is logged, not returned.
//
// Each check runs with timeout when timeout > 0.
func Handler(checks map[string]Check, timeout time.Duration, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		results := make(map[string]string, len(checks))
		anyErr := false

		for _, name := range names {
			check := checks[name]
			if check == nil {
				results[name] = "ok"
				continue
			}

			ctx := r.Context()
			cancel := func() {}
			if timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, timeout)
			}
			err := check(ctx)
			cancel()

			if err != nil {
				anyErr = true
				results[name] = "error"
				logger.Warn("health check failed",
					zap.String("check", name),
					zap.Error(err),
				)
				continue
			}
			results[name] = "ok"
		}

		if anyErr {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, Response{Status: "error", Checks: results})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok", Checks: results})
	})
}

// MountAt attaches GET (and HEAD) path to r.
//
//	health.MountAt(r, "/readyz", map[string]health.Check{"smtp": sender.Ping}, 3*time.Second, logger)
func MountAt(r chi.Router, path string, checks map[string]Check, timeout time.Duration, logger *zap.Logger) {
	h := Handler(checks, timeout, logger)
	r.Method(http.MethodGet, path, h)
	r.Method(http.MethodHead, path, h)
}
