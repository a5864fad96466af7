package bootstrap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/dalemusser/cyborg/app"
	"github.com/dalemusser/cyborg/config"
	"github.com/dalemusser/cyborg/internal/contact"
	"github.com/dalemusser/cyborg/internal/mailer"
	"github.com/dalemusser/cyborg/internal/site"
	"go.uber.org/zap"
)

// LoadConfig loads the core config and the site config.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, vals, err := config.Load(logger, config.DefaultEnvPrefix, appKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg, err := appConfigFrom(vals)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("app config: %w", err)
	}
	return coreCfg, appCfg, nil
}

// Connect builds the SMTP sender and the contact service. No connection is
// opened here; every inquiry dials the relay itself.
func Connect(_ context.Context, _ *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (Deps, error) {
	sender := mailer.NewSMTPSender(appCfg.Mail)
	svc := contact.NewService(contact.Config{
		SiteName:  appCfg.SiteName,
		Sender:    appCfg.Sender,
		Recipient: appCfg.Recipient,
		Timeout:   appCfg.Mail.Timeout,
	}, sender, logger)

	return Deps{
		Sender:     sender,
		Contact:    svc,
		RelayCheck: sender.Ping,
	}, nil
}

// Preflight warns about settings that will make every inquiry fail and
// about a document root without an index page. Neither stops startup.
func Preflight(_ context.Context, _ *config.CoreConfig, appCfg AppConfig, _ Deps, logger *zap.Logger) error {
	if missing := appCfg.missingMailSettings(); len(missing) > 0 {
		logger.Warn("mail settings incomplete; contact submissions will fail until they are configured",
			zap.Strings("missing", missing),
			zap.String("hint", "set CYBORG_SMTP_USERNAME, CYBORG_SMTP_PASSWORD and CYBORG_CONTACT_RECIPIENT"),
		)
	}
	if err := site.CheckRoot(appCfg.StaticDir); err != nil {
		logger.Warn("static site root has no index page", zap.String("static_dir", appCfg.StaticDir), zap.Error(err))
	}
	return nil
}

// OnListen logs the startup banner.
func OnListen(addr net.Addr, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) {
	logger.Info(appCfg.SiteName+" server started",
		zap.String("url", listenURL(addr, coreCfg)),
		zap.String("recipient", appCfg.Recipient),
		zap.String("smtp_relay", appCfg.Mail.Host+":"+strconv.Itoa(appCfg.Mail.Port)),
	)
}

func listenURL(addr net.Addr, coreCfg *config.CoreConfig) string {
	scheme := "http"
	if coreCfg.HTTP.UseHTTPS {
		scheme = "https"
	}
	host := "localhost"
	if coreCfg.TLS.Domain != "" {
		host = coreCfg.TLS.Domain
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		if (scheme == "http" && tcp.Port != 80) || (scheme == "https" && tcp.Port != 443) {
			host = net.JoinHostPort(host, strconv.Itoa(tcp.Port))
		}
	}
	return scheme + "://" + host
}

// BuildHandler constructs the HTTP handler for the site.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps Deps, logger *zap.Logger) (http.Handler, error) {
	return routes(coreCfg, appCfg, deps, logger), nil
}

// Hooks wires the site into the app lifecycle.
var Hooks = app.Hooks[AppConfig, Deps]{
	Name:         "cyborg",
	LoadConfig:   LoadConfig,
	Connect:      Connect,
	Preflight:    Preflight,
	BuildHandler: BuildHandler,
	OnListen:     OnListen,
}
