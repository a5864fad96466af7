// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/cyborg/config"
	"github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the response types compressed on the fly. Responses
// that already carry Content-Encoding (pre-compressed assets) pass through.
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"text/javascript",
	"application/javascript",
	"application/json",
	"image/svg+xml",
}

// CompressFromConfig returns a compression middleware based on the CoreConfig.
//
// If coreCfg.EnableCompression is false, it returns an identity middleware.
// Levels outside 1-9 are clamped; config validation normally rejects them.
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	level := coreCfg.CompressionLevel
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}
	return middleware.Compress(level, compressibleTypes...)
}
