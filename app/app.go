// app/app.go
package app

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/dalemusser/cyborg/config"
	"github.com/dalemusser/cyborg/httputil"
	"github.com/dalemusser/cyborg/logging"
	"github.com/dalemusser/cyborg/metrics"
	"github.com/dalemusser/cyborg/server"
	"go.uber.org/zap"
)

// Hooks are the integration points an application provides to Run.
// C is the app config type, D the bundle of backend dependencies.
type Hooks[C any, D any] struct {
	// Name is used only for logging.
	Name string

	// LoadConfig returns the core config and the app config.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// Connect builds clients for the backends the app talks to.
	Connect func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (D, error)

	// Preflight runs startup checks once dependencies exist. It may be nil.
	// Returning an error aborts startup.
	Preflight func(ctx context.Context, core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) error

	// BuildHandler constructs the final http.Handler: router, middleware
	// and routes.
	BuildHandler func(core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) (http.Handler, error)

	// OnListen, when set, is called with the bound address of the primary
	// listener.
	OnListen func(addr net.Addr, core *config.CoreConfig, appCfg C, logger *zap.Logger)
}

// Run executes the startup sequence and blocks until ctx is canceled, a
// shutdown signal arrives, or the server fails:
//
//  1. Bootstrap logger
//  2. Load core + app config (Hooks.LoadConfig)
//  3. Build final logger based on core config
//  4. Register default metrics (when enabled)
//  5. Connect backends (Hooks.Connect)
//  6. Preflight checks (Hooks.Preflight, if provided)
//  7. Wire shutdown signals to a context
//  8. Build the HTTP handler (Hooks.BuildHandler)
//  9. Serve HTTP(S) until shutdown
func Run[C any, D any](ctx context.Context, hooks Hooks[C, D]) error {
	boot := logging.BootstrapLogger()
	defer boot.Sync()
	boot.Info("bootstrap logger initialized", zap.String("app", hooks.Name))

	if hooks.LoadConfig == nil || hooks.Connect == nil || hooks.BuildHandler == nil {
		return fmt.Errorf("app %s: LoadConfig, Connect and BuildHandler are required", hooks.Name)
	}

	coreCfg, appCfg, err := hooks.LoadConfig(boot)
	if err != nil {
		boot.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	boot.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		boot.Error("logger build failed", zap.Error(err))
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("logger initialized", zap.String("app", hooks.Name))
	httputil.SetJSONLogger(logger)

	if coreCfg.EnableMetrics {
		metrics.RegisterDefault(logger)
	}

	deps, err := hooks.Connect(ctx, coreCfg, appCfg, logger)
	if err != nil {
		logger.Error("backend setup failed", zap.Error(err))
		return fmt.Errorf("connect: %w", err)
	}

	if hooks.Preflight != nil {
		if err := hooks.Preflight(ctx, coreCfg, appCfg, deps, logger); err != nil {
			logger.Error("preflight failed", zap.Error(err))
			return fmt.Errorf("preflight: %w", err)
		}
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler, err := hooks.BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	var onListen func(net.Addr)
	if hooks.OnListen != nil {
		onListen = func(addr net.Addr) { hooks.OnListen(addr, coreCfg, appCfg, logger) }
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger, onListen); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
