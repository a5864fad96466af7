// config/appconfig.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppKey declares one application setting. It is read with the same
// precedence as the core keys, from a config file entry, an env var
// (upper-cased and prefixed, e.g. CYBORG_SMTP_HOST) and a --name flag.
type AppKey struct {
	Name string

	// Default fixes the key's type: string, int, bool or time.Duration.
	Default any

	Desc string
}

// AppConfigValues maps AppKey names to loaded values of the default's type.
type AppConfigValues map[string]any

// String returns the value of key, or "" when unset or not a string.
func (a AppConfigValues) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Int returns the value of key, or 0. Config files decode integers as
// int64, so both are accepted.
func (a AppConfigValues) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Bool returns the value of key, or false.
func (a AppConfigValues) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Duration returns the value of key, or def when it is missing or does not
// parse. Strings such as "15s" and bare seconds are accepted.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	d, err := parseDuration(a[key], def)
	if err != nil {
		return def
	}
	return d
}

// loadAppConfig resolves keys against v (defaults and config files), the
// environment under envPrefix and any flags changed on fs. Call it after
// fs.Parse.
func loadAppConfig(logger *zap.Logger, v *viper.Viper, fs *pflag.FlagSet, envPrefix string, keys []AppKey) AppConfigValues {
	result := make(AppConfigValues, len(keys))
	if len(keys) == 0 {
		return result
	}

	appV := viper.New()
	appV.SetEnvPrefix(envPrefix)
	appV.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	appV.AutomaticEnv()

	for _, key := range keys {
		appV.SetDefault(key.Name, key.Default)
		_ = appV.BindEnv(key.Name)
		if v.IsSet(key.Name) {
			appV.Set(key.Name, v.Get(key.Name))
		}
		if f := fs.Lookup(key.Name); f != nil && f.Changed {
			_ = appV.BindPFlag(key.Name, f)
		}
	}

	// Coerce to the default's type so env strings ("587", "true") read the
	// same as typed config-file values.
	for _, key := range keys {
		switch def := key.Default.(type) {
		case string:
			result[key.Name] = appV.GetString(key.Name)
		case int:
			result[key.Name] = appV.GetInt(key.Name)
		case bool:
			result[key.Name] = appV.GetBool(key.Name)
		case time.Duration:
			d, err := parseDuration(appV.Get(key.Name), def)
			if err != nil && logger != nil {
				logger.Warn("invalid duration; using default",
					zap.String("key", key.Name), zap.Duration("default", def), zap.Error(err))
			}
			result[key.Name] = d
		default:
			result[key.Name] = appV.Get(key.Name)
		}
	}

	if logger != nil {
		fields := make([]zap.Field, 0, len(keys))
		for _, key := range keys {
			if isSecretKey(key.Name) {
				fields = append(fields, zap.String(key.Name, "[REDACTED]"))
				continue
			}
			fields = append(fields, zap.Any(key.Name, result[key.Name]))
		}
		logger.Info("app config loaded", fields...)
	}

	return result
}

func isSecretKey(name string) bool {
	name = strings.ToLower(name)
	for _, marker := range []string{"password", "secret", "token", "key"} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// registerAppFlags adds a flag per key to fs. Call it before fs.Parse.
func registerAppFlags(fs *pflag.FlagSet, keys []AppKey) error {
	for _, key := range keys {
		if fs.Lookup(key.Name) != nil {
			return fmt.Errorf("config key %q conflicts with existing flag", key.Name)
		}

		switch d := key.Default.(type) {
		case string:
			fs.String(key.Name, d, key.Desc)
		case int:
			fs.Int(key.Name, d, key.Desc)
		case bool:
			fs.Bool(key.Name, d, key.Desc)
		case time.Duration:
			// Taken as a string so "--smtp_timeout=20" means seconds.
			fs.String(key.Name, d.String(), key.Desc)
		default:
			return fmt.Errorf("config key %q has unsupported default type %T", key.Name, key.Default)
		}
	}
	return nil
}
