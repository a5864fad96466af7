package bootstrap

import (
	"net/http"

	"github.com/dalemusser/cyborg/config"
	"github.com/dalemusser/cyborg/health"
	"github.com/dalemusser/cyborg/internal/contact"
	"github.com/dalemusser/cyborg/internal/site"
	"github.com/dalemusser/cyborg/metrics"
	"github.com/dalemusser/cyborg/middleware"
	"github.com/dalemusser/cyborg/router"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func routes(coreCfg *config.CoreConfig, appCfg AppConfig, deps Deps, logger *zap.Logger) chi.Router {
	r := router.New(coreCfg, logger)

	health.MountAt(r, "/healthz", nil, 0, logger)
	health.MountAt(r, "/readyz", map[string]health.Check{"smtp": deps.RelayCheck}, appCfg.ReadyTimeout, logger)

	if coreCfg.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	contact.NewHandler(deps.Contact, logger).Mount(r, "/contact")

	static := site.Handler(appCfg.StaticDir, site.Options{
		CacheControl: appCfg.CacheControl,
		NotFound:     middleware.NotFoundHandler(logger),
	})
	r.Method(http.MethodGet, "/*", static)
	r.Method(http.MethodHead, "/*", static)

	return r
}
