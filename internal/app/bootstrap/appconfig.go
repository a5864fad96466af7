package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/cyborg/config"
	"github.com/dalemusser/cyborg/internal/contact"
	"github.com/dalemusser/cyborg/internal/mailer"
)

// AppConfig holds site-specific configuration.
type AppConfig struct {
	SiteName     string
	StaticDir    string
	CacheControl string

	Mail      mailer.Config
	Sender    string
	Recipient string

	// ReadyTimeout bounds the relay probe behind /readyz.
	ReadyTimeout time.Duration
}

// appKeys are loaded alongside the core config; env vars use the CYBORG_
// prefix (e.g. CYBORG_SMTP_PASSWORD).
var appKeys = []config.AppKey{
	{Name: "site_name", Default: contact.DefaultSiteName, Desc: "Site name used in inquiry subjects and bodies"},
	{Name: "static_dir", Default: "public", Desc: "Document root for the static site"},
	{Name: "static_cache_control", Default: "", Desc: "Cache-Control header for static files (empty = none)"},
	{Name: "smtp_host", Default: "smtp.gmail.com", Desc: "SMTP relay host"},
	{Name: "smtp_port", Default: 587, Desc: "SMTP relay port"},
	{Name: "smtp_username", Default: "", Desc: "SMTP username"},
	{Name: "smtp_password", Default: "", Desc: "SMTP password (app password)"},
	{Name: "smtp_from", Default: "", Desc: "Sender address (default: smtp_username)"},
	{Name: "smtp_from_name", Default: "", Desc: "Sender display name"},
	{Name: "smtp_use_ssl", Default: false, Desc: "Use implicit TLS instead of STARTTLS"},
	{Name: "smtp_timeout", Default: mailer.DefaultTimeout, Desc: "Timeout for one SMTP dispatch"},
	{Name: "contact_recipient", Default: "", Desc: "Address that receives contact inquiries"},
	{Name: "ready_timeout", Default: 3 * time.Second, Desc: "Timeout for the SMTP readiness probe"},
}

// appConfigFrom converts loaded values into an AppConfig.
func appConfigFrom(vals config.AppConfigValues) (AppConfig, error) {
	cfg := AppConfig{
		SiteName:     vals.String("site_name"),
		StaticDir:    vals.String("static_dir"),
		CacheControl: vals.String("static_cache_control"),
		Mail: mailer.Config{
			Host:     vals.String("smtp_host"),
			Port:     vals.Int("smtp_port"),
			Username: vals.String("smtp_username"),
			Password: vals.String("smtp_password"),
			FromName: vals.String("smtp_from_name"),
			UseSSL:   vals.Bool("smtp_use_ssl"),
			Timeout:  vals.Duration("smtp_timeout", mailer.DefaultTimeout),
		},
		Sender:       vals.String("smtp_from"),
		Recipient:    vals.String("contact_recipient"),
		ReadyTimeout: vals.Duration("ready_timeout", 3*time.Second),
	}
	if cfg.Sender == "" {
		cfg.Sender = cfg.Mail.Username
	}

	var errs []error
	if cfg.StaticDir == "" {
		errs = append(errs, errors.New("static_dir must not be empty"))
	}
	if cfg.Mail.Host == "" {
		errs = append(errs, errors.New("smtp_host must not be empty"))
	}
	if cfg.Mail.Port <= 0 || cfg.Mail.Port > 65535 {
		errs = append(errs, fmt.Errorf("smtp_port must be 1-65535 (got %d)", cfg.Mail.Port))
	}
	if cfg.Sender != "" && !contact.IsValidEmail(cfg.Sender) {
		errs = append(errs, fmt.Errorf("smtp_from %q is not a valid address", cfg.Sender))
	}
	if cfg.Recipient != "" && !contact.IsValidEmail(cfg.Recipient) {
		errs = append(errs, fmt.Errorf("contact_recipient %q is not a valid address", cfg.Recipient))
	}
	if len(errs) > 0 {
		return AppConfig{}, errors.Join(errs...)
	}
	return cfg, nil
}

// missingMailSettings lists the unset settings without which no inquiry
// can be delivered.
func (c AppConfig) missingMailSettings() []string {
	var missing []string
	if c.Mail.Username == "" {
		missing = append(missing, "smtp_username")
	}
	if c.Mail.Password == "" {
		missing = append(missing, "smtp_password")
	}
	if c.Sender == "" {
		missing = append(missing, "smtp_from")
	}
	if c.Recipient == "" {
		missing = append(missing, "contact_recipient")
	}
	return missing
}
