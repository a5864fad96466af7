// router/router.go
package router

import (
	"github.com/dalemusser/cyborg/config"
	"github.com/dalemusser/cyborg/logging"
	"github.com/dalemusser/cyborg/metrics"
	"github.com/dalemusser/cyborg/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New creates a chi.Router pre-wired with the standard middleware stack:
// - RequestID
// - RealIP
// - Recoverer (panic → 500 JSON)
// - security headers and CORS (every response, per coreCfg)
// - body size limit (MaxRequestBodyBytes)
// - metrics HTTP middleware (when EnableMetrics)
// - request logging
// - compression (per coreCfg)
// - NotFound / MethodNotAllowed JSON handlers
// It does NOT mount health, metrics or site routes; the app does that.
func New(coreCfg *config.CoreConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Request context & safety
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))

	// Headers on every response, including errors and preflights
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Body size limit (if configured)
	r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))

	if coreCfg.EnableMetrics {
		r.Use(metrics.HTTPMetrics)
	}

	// Access logging
	r.Use(logging.RequestLogger(logger))

	r.Use(middleware.CompressFromConfig(coreCfg))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
