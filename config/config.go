// config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultEnvPrefix is the environment variable prefix for core keys,
// e.g. CYBORG_HTTP_PORT.
const DefaultEnvPrefix = "CYBORG"

// HTTPConfig groups HTTP/HTTPS port, protocol and timeout settings.
type HTTPConfig struct {
	HTTPPort  int  `mapstructure:"http_port"`
	HTTPSPort int  `mapstructure:"https_port"`
	UseHTTPS  bool `mapstructure:"use_https"`

	// Timeouts are filled by applyDurations, not by Unmarshal.
	ReadTimeout       time.Duration `mapstructure:"-"`
	ReadHeaderTimeout time.Duration `mapstructure:"-"`
	WriteTimeout      time.Duration `mapstructure:"-"`
	IdleTimeout       time.Duration `mapstructure:"-"`
	ShutdownTimeout   time.Duration `mapstructure:"-"`
}

// TLSConfig groups manual TLS and Let's Encrypt (http-01) settings.
type TLSConfig struct {
	CertFile            string `mapstructure:"cert_file"`
	KeyFile             string `mapstructure:"key_file"`
	UseLetsEncrypt      bool   `mapstructure:"use_lets_encrypt"`
	LetsEncryptEmail    string `mapstructure:"lets_encrypt_email"`
	LetsEncryptCacheDir string `mapstructure:"lets_encrypt_cache_dir"`
	Domain              string `mapstructure:"domain"`

	// ACMEDirectoryURL overrides the ACME directory (e.g. the Let's Encrypt
	// staging endpoint). Empty means the autocert default.
	ACMEDirectoryURL string `mapstructure:"acme_directory_url"`
}

// CORSConfig groups all CORS behavior and lists.
type CORSConfig struct {
	EnableCORS           bool     `mapstructure:"enable_cors"`
	CORSAllowedOrigins   []string `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods   []string `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders   []string `mapstructure:"cors_allowed_headers"`
	CORSExposedHeaders   []string `mapstructure:"cors_exposed_headers"`
	CORSAllowCredentials bool     `mapstructure:"cors_allow_credentials"`
	CORSMaxAge           int      `mapstructure:"cors_max_age"`
}

// SecurityConfig groups the response security headers.
type SecurityConfig struct {
	EnableSecurityHeaders bool   `mapstructure:"enable_security_headers"`
	XFrameOptions         string `mapstructure:"x_frame_options"`
	XContentTypeOptions   string `mapstructure:"x_content_type_options"`
	ReferrerPolicy        string `mapstructure:"referrer_policy"`
	XSSProtection         string `mapstructure:"xss_protection"`
	HSTSMaxAge            int    `mapstructure:"hsts_max_age"`
	HSTSIncludeSubDomains bool   `mapstructure:"hsts_include_subdomains"`
	HSTSPreload           bool   `mapstructure:"hsts_preload"`

	// HSTSOnlyTLS restricts Strict-Transport-Security to requests that
	// arrived over TLS. Off by default: the site sits behind a TLS proxy.
	HSTSOnlyTLS bool `mapstructure:"hsts_only_tls"`

	// ContentSecurityPolicy replaces the built-in site policy when set.
	ContentSecurityPolicy string `mapstructure:"content_security_policy"`
	PermissionsPolicy     string `mapstructure:"permissions_policy"`
}

// CoreConfig holds the server-level configuration.
type CoreConfig struct {
	// runtime
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error …

	// grouped config
	HTTP     HTTPConfig     `mapstructure:",squash"`
	TLS      TLSConfig      `mapstructure:",squash"`
	CORS     CORSConfig     `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`

	// HTTP behavior
	MaxRequestBodyBytes int64 `mapstructure:"max_request_body_bytes"`

	// misc
	EnableCompression bool `mapstructure:"enable_compression"`
	CompressionLevel  int  `mapstructure:"compression_level"`
	EnableMetrics     bool `mapstructure:"enable_metrics"`
}

// Dump returns a pretty JSON string of the config for debugging.
// CoreConfig carries no secrets; app secrets live in AppConfigValues.
func (c CoreConfig) Dump() string {
	b, _ := json.MarshalIndent(c, "", "  ")
	return string(b)
}

// Load merges defaults → config.* file(s) → env vars → explicit flags into a
// CoreConfig plus the app values described by appKeys.
// Final precedence (highest wins): flags(explicit) > env > config > defaults.
//
// Flags are registered on pflag.CommandLine and parsed from os.Args.
func Load(logger *zap.Logger, envPrefix string, appKeys []AppKey) (*CoreConfig, AppConfigValues, error) {
	return load(logger, pflag.CommandLine, os.Args[1:], envPrefix, appKeys)
}

func load(logger *zap.Logger, fs *pflag.FlagSet, args []string, envPrefix string, appKeys []AppKey) (*CoreConfig, AppConfigValues, error) {
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}

	// 0) Optionally load .env (real env still wins over .env)
	if err := godotenv.Load(); err == nil && logger != nil {
		logger.Info("Loaded .env file")
	}

	// 1) Define flags (only *explicitly set* flags will override)
	registerCoreFlags(fs)
	if err := registerAppFlags(fs, appKeys); err != nil {
		return nil, nil, err
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parse flags: %w", err)
	}

	// 2) Viper + env
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Bind env for all keys so Unmarshal sees them.
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}

	// 3) Optional config.* files (yaml|yml|json|toml)
	mergeConfigFiles(logger, v)

	// 4) Defaults (lowest precedence)
	setDefaults(v)

	// 5) Apply *explicit* flags (highest precedence)
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	// 6) Normalize list keys (accept JSON strings → []string)
	if err := normalizeListKeys(logger, v,
		"cors_allowed_origins",
		"cors_allowed_methods",
		"cors_allowed_headers",
		"cors_exposed_headers",
	); err != nil {
		return nil, nil, err
	}

	// 7) Build struct
	var cfg CoreConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unable to decode core config: %w", err)
	}
	applyDurations(logger, v, &cfg)
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))

	// 8) Validate
	if err := validateCoreConfig(cfg); err != nil {
		return nil, nil, err
	}

	appVals := loadAppConfig(logger, v, fs, envPrefix, appKeys)
	return &cfg, appVals, nil
}

func mergeConfigFiles(logger *zap.Logger, v *viper.Viper) {
	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		if _, err := os.Stat(file); err != nil {
			continue
		}
		b, err := os.ReadFile(file)
		if err != nil {
			if logger != nil {
				logger.Warn("cannot read config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			if logger != nil {
				logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		if logger != nil {
			logger.Info("Loaded config file", zap.String("file", file))
		}
	}
}

func registerCoreFlags(fs *pflag.FlagSet) {
	fs.String("env", "dev", `Runtime environment "dev"|"prod"`)
	fs.String("log_level", "debug", "Log level")

	fs.Int("http_port", 5000, "HTTP port")
	fs.Int("https_port", 443, "HTTPS port")
	fs.Bool("use_https", false, "Serve HTTPS")

	fs.String("read_timeout", "15s", "HTTP read timeout")
	fs.String("read_header_timeout", "10s", "HTTP read header timeout")
	fs.String("write_timeout", "60s", "HTTP write timeout (covers the SMTP round trip)")
	fs.String("idle_timeout", "120s", "HTTP idle timeout")
	fs.String("shutdown_timeout", "15s", "Graceful shutdown window")

	// TLS / Let’s Encrypt
	fs.Bool("use_lets_encrypt", false, "Use Let's Encrypt (http-01)")
	fs.String("lets_encrypt_email", "", "ACME account e-mail")
	fs.String("lets_encrypt_cache_dir", "letsencrypt-cache", "ACME cache dir")
	fs.String("acme_directory_url", "", "ACME directory URL override")
	fs.String("cert_file", "", "TLS cert file (manual TLS)")
	fs.String("key_file", "", "TLS key file  (manual TLS)")
	fs.String("domain", "", "Domain for TLS or ACME")

	// misc / CORS
	fs.Bool("enable_compression", true, "Enable HTTP compression")
	fs.Int("compression_level", 5, "Compression level 1-9")
	fs.Bool("enable_metrics", true, "Expose /metrics")
	fs.Bool("enable_cors", true, "Enable CORS")

	// CORS lists as JSON strings or arrays
	fs.String("cors_allowed_origins", "", `JSON array of origins, e.g. '["https://a.example","https://b.example"]'`)
	fs.String("cors_allowed_methods", "", `JSON array of methods, e.g. '["GET","POST"]'`)
	fs.String("cors_allowed_headers", "", `JSON array of headers, e.g. '["Accept","Content-Type"]'`)
	fs.String("cors_exposed_headers", "", `JSON array of headers, e.g. '["Link"]'`)
	fs.Bool("cors_allow_credentials", false, "CORS: allow credentials")
	fs.Int("cors_max_age", 300, "CORS: max age seconds (0 disables cache)")

	// Security headers
	fs.Bool("enable_security_headers", true, "Send security response headers")
	fs.String("x_frame_options", "DENY", "X-Frame-Options value (empty disables)")
	fs.String("content_security_policy", "", "Content-Security-Policy override (empty uses the site policy)")
	fs.Int("hsts_max_age", 31536000, "Strict-Transport-Security max-age (0 disables)")
	fs.Bool("hsts_only_tls", false, "Only send HSTS on TLS requests")

	fs.Int64("max_request_body_bytes", 64<<10, "Max HTTP request body size in bytes (0 = unlimited)")
}

func allKeys() []string {
	return []string{
		"env", "log_level",
		"http_port", "https_port", "use_https",
		"read_timeout", "read_header_timeout", "write_timeout", "idle_timeout", "shutdown_timeout",
		"use_lets_encrypt", "lets_encrypt_email", "lets_encrypt_cache_dir", "acme_directory_url",
		"cert_file", "key_file", "domain",
		"enable_compression", "compression_level", "enable_metrics",
		"enable_cors",
		"cors_allowed_origins", "cors_allowed_methods", "cors_allowed_headers",
		"cors_exposed_headers", "cors_allow_credentials", "cors_max_age",
		"enable_security_headers", "x_frame_options", "x_content_type_options",
		"referrer_policy", "xss_protection", "hsts_max_age", "hsts_include_subdomains",
		"hsts_preload", "hsts_only_tls", "content_security_policy", "permissions_policy",
		"max_request_body_bytes",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "debug")

	v.SetDefault("http_port", 5000)
	v.SetDefault("https_port", 443)
	v.SetDefault("use_https", false)

	v.SetDefault("read_timeout", "15s")
	v.SetDefault("read_header_timeout", "10s")
	v.SetDefault("write_timeout", "60s")
	v.SetDefault("idle_timeout", "120s")
	v.SetDefault("shutdown_timeout", "15s")

	v.SetDefault("use_lets_encrypt", false)
	v.SetDefault("lets_encrypt_email", "")
	v.SetDefault("lets_encrypt_cache_dir", "letsencrypt-cache")
	v.SetDefault("acme_directory_url", "")
	v.SetDefault("cert_file", "")
	v.SetDefault("key_file", "")
	v.SetDefault("domain", "")

	v.SetDefault("enable_compression", true)
	v.SetDefault("compression_level", 5)
	v.SetDefault("enable_metrics", true)

	// The contact form is posted from any origin the site is mirrored on.
	v.SetDefault("enable_cors", true)
	v.SetDefault("cors_allowed_origins", []string{"*"})
	v.SetDefault("cors_allowed_methods", []string{"GET", "HEAD", "POST", "OPTIONS"})
	v.SetDefault("cors_allowed_headers", []string{"Accept", "Content-Type"})
	v.SetDefault("cors_exposed_headers", []string{})
	v.SetDefault("cors_allow_credentials", false)
	v.SetDefault("cors_max_age", 300)

	v.SetDefault("enable_security_headers", true)
	v.SetDefault("x_frame_options", "DENY")
	v.SetDefault("x_content_type_options", "nosniff")
	v.SetDefault("referrer_policy", "strict-origin-when-cross-origin")
	v.SetDefault("xss_protection", "1; mode=block")
	v.SetDefault("hsts_max_age", 31536000)
	v.SetDefault("hsts_include_subdomains", true)
	v.SetDefault("hsts_preload", false)
	v.SetDefault("hsts_only_tls", false)
	v.SetDefault("content_security_policy", "")
	v.SetDefault("permissions_policy", "")

	v.SetDefault("max_request_body_bytes", int64(64<<10))
}

// applyDurations re-reads duration keys so numeric seconds ("30", 30) are
// accepted alongside Go duration strings.
func applyDurations(logger *zap.Logger, v *viper.Viper, cfg *CoreConfig) {
	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"read_timeout", 15 * time.Second, &cfg.HTTP.ReadTimeout},
		{"read_header_timeout", 10 * time.Second, &cfg.HTTP.ReadHeaderTimeout},
		{"write_timeout", 60 * time.Second, &cfg.HTTP.WriteTimeout},
		{"idle_timeout", 120 * time.Second, &cfg.HTTP.IdleTimeout},
		{"shutdown_timeout", 15 * time.Second, &cfg.HTTP.ShutdownTimeout},
	}
	for _, d := range durations {
		dur, err := parseDuration(v.Get(d.key), d.def)
		if err != nil && logger != nil {
			logger.Warn("invalid duration; using default",
				zap.String("key", d.key),
				zap.Any("value", v.Get(d.key)),
				zap.Duration("default", d.def),
				zap.Error(err))
		}
		*d.dst = dur
	}
}

// normalizeListKeys coerces JSON-string values into []string for the given keys.
func normalizeListKeys(logger *zap.Logger, v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		val := v.Get(key)
		switch t := val.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []interface{}:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		case []string, nil:
			// already correct or unset
		default:
			if logger != nil {
				logger.Warn("unexpected type for list key; expected JSON array/string",
					zap.String("key", key), zap.Any("value", t))
			}
		}
	}
	return nil
}

func validateCoreConfig(cfg CoreConfig) error {
	var missing []string
	var invalid []string

	if cfg.Env != "dev" && cfg.Env != "prod" {
		invalid = append(invalid, `env must be "dev" or "prod"`)
	}
	if _, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel))); err != nil && strings.TrimSpace(cfg.LogLevel) != "" {
		invalid = append(invalid, "log_level must be one of debug, info, warn, error, dpanic, panic, fatal")
	}

	// TLS / ACME consistency
	if cfg.TLS.UseLetsEncrypt && !cfg.HTTP.UseHTTPS {
		invalid = append(invalid, "use_lets_encrypt=true requires use_https=true")
	}
	if cfg.TLS.UseLetsEncrypt && (strings.TrimSpace(cfg.TLS.CertFile) != "" || strings.TrimSpace(cfg.TLS.KeyFile) != "") {
		invalid = append(invalid, "use_lets_encrypt=true cannot be combined with cert_file/key_file")
	}
	if cfg.TLS.UseLetsEncrypt {
		if strings.TrimSpace(cfg.TLS.Domain) == "" {
			missing = append(missing, "CYBORG_DOMAIN (or --domain) for Let's Encrypt")
		}
		if s := strings.TrimSpace(cfg.TLS.LetsEncryptEmail); s == "" {
			missing = append(missing, "CYBORG_LETS_ENCRYPT_EMAIL (or --lets_encrypt_email)")
		} else if !strings.Contains(s, "@") {
			invalid = append(invalid, "lets_encrypt_email must look like an email address")
		}
	}

	// Manual TLS requirements
	if cfg.HTTP.UseHTTPS && !cfg.TLS.UseLetsEncrypt {
		if strings.TrimSpace(cfg.TLS.CertFile) == "" || strings.TrimSpace(cfg.TLS.KeyFile) == "" {
			missing = append(missing, "CYBORG_CERT_FILE and CYBORG_KEY_FILE (or --cert_file/--key_file) for manual TLS")
		}
	}

	// Port sanity
	if cfg.HTTP.HTTPPort <= 0 || cfg.HTTP.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}
	if cfg.HTTP.HTTPSPort <= 0 || cfg.HTTP.HTTPSPort > 65535 {
		invalid = append(invalid, "https_port must be in 1..65535")
	}
	if cfg.HTTP.UseHTTPS {
		if cfg.HTTP.HTTPPort == cfg.HTTP.HTTPSPort {
			invalid = append(invalid, "http_port and https_port cannot be equal when use_https=true")
		}
		if cfg.HTTP.HTTPSPort == 80 {
			invalid = append(invalid, "https_port cannot be 80; port 80 is used by the ACME/redirect server")
		}
	}

	// CORS sanity
	if cfg.CORS.EnableCORS {
		if len(cfg.CORS.CORSAllowedOrigins) == 0 {
			missing = append(missing, "CORS: cors_allowed_origins (JSON array) required when enable_cors=true")
		}
		if len(cfg.CORS.CORSAllowedMethods) == 0 {
			missing = append(missing, "CORS: cors_allowed_methods (JSON array) required when enable_cors=true")
		}
		for _, o := range cfg.CORS.CORSAllowedOrigins {
			if o == "*" && cfg.CORS.CORSAllowCredentials {
				invalid = append(invalid, `CORS: cannot use "*" in cors_allowed_origins when cors_allow_credentials=true`)
				break
			}
		}
		if cfg.CORS.CORSMaxAge < 0 {
			invalid = append(invalid, "CORS: cors_max_age must be >= 0")
		}
	}

	if cfg.EnableCompression && (cfg.CompressionLevel < 1 || cfg.CompressionLevel > 9) {
		invalid = append(invalid, "compression_level must be in 1..9")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		invalid = append(invalid, "hsts_max_age must be >= 0")
	}
	if cfg.MaxRequestBodyBytes < 0 {
		invalid = append(invalid, "max_request_body_bytes must be >= 0")
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("core configuration errors: %s", strings.Join(parts, " | "))
}
