// server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dalemusser/cyborg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// WithShutdownSignals returns a context that is canceled on SIGINT or
// SIGTERM. The returned cancel function also stops signal delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		// sigCh is left open; nothing reads it after Stop.
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext serves handler over HTTP, or over HTTPS with
// manual certificates or Let's Encrypt (http-01), until ctx is canceled or
// a server fails. In HTTPS modes a second server on :80 redirects to HTTPS
// and answers ACME challenges.
//
// onListen, when non-nil, receives the primary listener address once bound.
func ListenAndServeWithContext(
	ctx context.Context,
	cfg *config.CoreConfig,
	handler http.Handler,
	logger *zap.Logger,
	onListen func(net.Addr),
) error {
	if cfg == nil {
		return errors.New("server: cfg is nil")
	}
	if handler == nil {
		return errors.New("server: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := newHTTPServer(cfg, handler, logger)

	ln, aux, err := listen(ctx, cfg, srv, logger)
	if err != nil {
		return err
	}
	if onListen != nil {
		onListen(ln.Addr())
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- ignoreClosed(srv.Serve(ln)) }()

	// auxErr stays nil in HTTP-only mode; a nil channel never fires.
	var auxErr chan error
	if aux != nil {
		auxErr = make(chan error, 1)
		go func() { auxErr <- ignoreClosed(aux.ListenAndServe()) }()
		logger.Info("redirect server listening", zap.String("addr", aux.Addr))
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down server")
			// ctx is already done; shutdown gets its own window.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			shutdownAux(shutdownCtx, aux)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = ln.Close()
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil

		case err := <-serveErr:
			shutdownAux(context.Background(), aux)
			_ = ln.Close()
			if err != nil {
				return fmt.Errorf("primary server error: %w", err)
			}
			return nil

		case err := <-auxErr:
			if err != nil {
				if closeErr := srv.Close(); closeErr != nil {
					logger.Error("failed to close primary server after redirect server failure", zap.Error(closeErr))
				}
				_ = ln.Close()
				return fmt.Errorf("redirect server error: %w", err)
			}
			aux, auxErr = nil, nil
		}
	}
}

// listen binds the primary listener for the configured mode and returns
// the :80 companion server when one is needed.
func listen(ctx context.Context, cfg *config.CoreConfig, srv *http.Server, logger *zap.Logger) (net.Listener, *http.Server, error) {
	if !cfg.HTTP.UseHTTPS {
		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, nil, fmt.Errorf("listen http %s: %w", addr, err)
		}
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
		return ln, nil, nil
	}

	tlsCfg, redirect, err := tlsSetup(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	srv.TLSConfig = tlsCfg

	addr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)
	ln, err := tlsListen(addr, tlsCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("listen https %s: %w", addr, err)
	}
	logger.Info("HTTPS server listening",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("lets_encrypt", cfg.TLS.UseLetsEncrypt),
		zap.String("domain", cfg.TLS.Domain))

	aux := newHTTPServer(cfg, redirect, logger)
	aux.Addr = ":80"
	return ln, aux, nil
}

func newHTTPServer(cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	// stdlib server errors go to zap at warn
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}
	return srv
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func shutdownAux(ctx context.Context, aux *http.Server) {
	if aux != nil {
		_ = aux.Shutdown(ctx)
	}
}
