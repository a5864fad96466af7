// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/cyborg/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig returns a middleware that applies CORS behavior based on the
// given CoreConfig's CORS section.
//
// If coreCfg.CORS.EnableCORS is false, it returns an identity middleware that
// does nothing. This makes it safe to unconditionally call:
//
//	r.Use(middleware.CORSFromConfig(coreCfg))
//
// The shipped defaults allow every origin, which is what the static site
// and its contact form expect.
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   coreCfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   coreCfg.CORS.CORSAllowedMethods,
		AllowedHeaders:   coreCfg.CORS.CORSAllowedHeaders,
		ExposedHeaders:   coreCfg.CORS.CORSExposedHeaders,
		AllowCredentials: coreCfg.CORS.CORSAllowCredentials,
		MaxAge:           coreCfg.CORS.CORSMaxAge,
	})
}
