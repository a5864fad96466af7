// config/duration.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var errNonPositive = errors.New("duration must be positive")

// parseDuration reads a timeout from a raw viper value. Go duration strings
// ("15s", "2m") and bare seconds (15, "15", 1.5) are accepted. Empty and
// unsupported values yield def with no error; invalid ones yield def and an
// error so the caller can log and carry on.
func parseDuration(raw any, def time.Duration) (time.Duration, error) {
	var d time.Duration
	switch v := raw.(type) {
	case time.Duration:
		d = v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return def, nil
		}
		parsed, err := fromString(s)
		if err != nil {
			return def, err
		}
		d = parsed
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return def, fmt.Errorf("duration %q: %w", v, err)
		}
		d = seconds(f)
	case int:
		d = seconds(float64(v))
	case int32:
		d = seconds(float64(v))
	case int64:
		d = seconds(float64(v))
	case uint:
		d = seconds(float64(v))
	case float64:
		d = seconds(v)
	default:
		return def, nil
	}
	if d <= 0 {
		return def, errNonPositive
	}
	return d, nil
}

func fromString(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("duration %q: want a value like \"15s\" or a number of seconds", s)
	}
	return seconds(f), nil
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
