// internal/contact/sanitize.go
package contact

import (
	"regexp"
	"strings"
)

// MaxFieldLength is the cap, in characters, applied to every sanitized field.
const MaxFieldLength = 1000

// RE2's \w and \s are ASCII-only. These classes match any Unicode letter,
// digit or underscore, and any Unicode whitespace including \v and the
// C0 separators, the way str.isspace does.
const (
	wordClass  = `[\p{L}\p{N}_]`
	spaceClass = `[\s\v\p{Z}\x{1c}-\x{1f}\x{85}]`
)

var (
	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#x27;",
	)

	scriptTagRe    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	eventHandlerRe = regexp.MustCompile(`(?i)on` + wordClass + `+` + spaceClass + `*=`)
	jsSchemeRe     = regexp.MustCompile(`(?i)javascript:`)

	stripPatterns = []*regexp.Regexp{scriptTagRe, eventHandlerRe, jsSchemeRe}
)

// Sanitize neutralizes markup in free text before it is embedded in a
// message. The input is HTML-escaped, then script blocks, on<event>= tokens
// and javascript: schemes are removed until none remain, and the result is
// truncated to MaxFieldLength characters.
//
// This is pattern stripping, not an HTML sanitizer.
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	s := htmlEscaper.Replace(raw)

	for {
		before := s
		for _, re := range stripPatterns {
			s = re.ReplaceAllString(s, "")
		}
		if s == before {
			break
		}
	}

	return truncateRunes(s, MaxFieldLength)
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
