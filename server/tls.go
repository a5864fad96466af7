// server/tls.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/dalemusser/cyborg/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
)

// certWarmTimeout bounds the wait for the first Let's Encrypt certificate.
const certWarmTimeout = 60 * time.Second

// errKeyPermissions marks a key file readable by group or others.
var errKeyPermissions = errors.New("overly permissive permissions")

// tlsSetup returns the TLS config for the primary listener and the handler
// for the :80 companion server.
func tlsSetup(ctx context.Context, cfg *config.CoreConfig, logger *zap.Logger) (*tls.Config, http.Handler, error) {
	if cfg.TLS.UseLetsEncrypt {
		m := newAutocertManager(cfg.TLS)
		// Pre-warm runs against the :80 handler only once it is serving,
		// so it happens in the background.
		go func() {
			if err := waitForCert(ctx, m, cfg.TLS.Domain, certWarmTimeout); err != nil {
				logger.Warn("autocert pre-warm failed; first HTTPS hits may see TLS errors", zap.Error(err))
			}
		}()
		return &tls.Config{
			MinVersion:     tls.VersionTLS12,
			GetCertificate: m.GetCertificate,
		}, m.HTTPHandler(redirectHandler()), nil
	}

	if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
		return nil, nil, errors.New("manual TLS selected but cert_file / key_file not provided")
	}
	if err := validateTLSFiles(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
		if !errors.Is(err, errKeyPermissions) {
			return nil, nil, err
		}
		if cfg.Env == "prod" {
			return nil, nil, fmt.Errorf("production security: %w", err)
		}
		logger.Warn("TLS key file security warning (would block in prod)", zap.Error(err))
	}

	cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load TLS cert/key: %w", err)
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	}, redirectHandler(), nil
}

func newAutocertManager(t config.TLSConfig) *autocert.Manager {
	m := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(t.Domain),
		Cache:      autocert.DirCache(t.LetsEncryptCacheDir),
		Email:      t.LetsEncryptEmail,
	}
	if t.ACMEDirectoryURL != "" {
		m.Client = &acme.Client{DirectoryURL: t.ACMEDirectoryURL}
	}
	return m
}

func tlsListen(addr string, tlsCfg *tls.Config) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return tls.NewListener(ln, tlsCfg), nil
}

// validateTLSFiles checks that the certificate and key exist as files and
// that the key is not readable by group or others (Unix only).
func validateTLSFiles(certFile, keyFile string) error {
	if _, err := statFile("certificate", certFile); err != nil {
		return err
	}
	keyInfo, err := statFile("key", keyFile)
	if err != nil {
		return err
	}

	// Windows file modes do not reflect ACLs.
	if runtime.GOOS != "windows" && keyInfo.Mode().Perm()&0o077 != 0 {
		return fmt.Errorf("TLS key file %s has %w %o (recommended: 0600)", keyFile, errKeyPermissions, keyInfo.Mode().Perm())
	}
	return nil
}

func statFile(kind, path string) (os.FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("TLS %s file does not exist: %s", kind, path)
		}
		return nil, fmt.Errorf("cannot access TLS %s file %s: %w", kind, path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("TLS %s path is a directory, not a file: %s", kind, path)
	}
	return fi, nil
}

// waitForCert polls autocert until it holds a certificate for host, the
// timeout passes or ctx ends, whichever comes first.
func waitForCert(ctx context.Context, m *autocert.Manager, host string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		_, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: host})
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for cert for %q: %w (last error: %v)", host, ctx.Err(), err)
		case <-ticker.C:
		}
	}
}
