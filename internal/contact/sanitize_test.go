package contact

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"
)

var (
	anyScriptSpan = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	anyHandler    = regexp.MustCompile(`(?i)on[\p{L}\p{N}_]+[\s\v\p{Z}\x{1c}-\x{1f}\x{85}]*=`)
	anyJSScheme   = regexp.MustCompile(`(?i)javascript:`)
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Acme GmbH", "Acme GmbH"},
		{"escapes markup", `Tom & Jerry's <b>"shop"</b>`, "Tom &amp; Jerry&#x27;s &lt;b&gt;&quot;shop&quot;&lt;/b&gt;"},
		{"event handler", `<img src=x onerror=alert(1)>`, "&lt;img src=x alert(1)&gt;"},
		{"event handler spaced", "ONCLICK  = go", " go"},
		{"javascript scheme", "JavaScript:alert(1)", "alert(1)"},
		{"spliced scheme", "javajavascript:script:void", "void"},
		{"spliced handler", "oonx=nload=x", "x"},
		{"non-ascii handler name", "onéclick=alert(1)", "alert(1)"},
		{"digit handler name", "on١=x", "x"},
		{"vertical tab before equals", "onclick\v=alert(1)", "alert(1)"},
		{"no-break space before equals", "onclick\u00a0=alert(1)", "alert(1)"},
		{"file separator before equals", "onload\x1c=go", "go"},
		{"multiline", "line one\nline two", "line one\nline two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize_NeverLeavesInjectionTokens(t *testing.T) {
	inputs := []string{
		"<script>alert(1)</script>",
		"<SCRIPT type=\"text/javascript\">\nsteal()\n</SCRIPT>after",
		"<ScRiPt>x</sCrIpT><script src=//evil>",
		"<a href=\"javascript:alert(1)\">x</a>",
		"<body onload=go()>",
		"<div OnMouseOver   =\"x\">",
		"jajavascript:vascript:",
		"oonnload==",
		"<p onéclick\u2003=x>",
		"oonclick\v=nload\u3000=",
		"<scr<script>ipt>alert(1)</scr</script>ipt>",
	}
	for _, in := range inputs {
		out := Sanitize(in)
		if anyScriptSpan.MatchString(out) {
			t.Errorf("Sanitize(%q) = %q contains a script span", in, out)
		}
		if anyHandler.MatchString(out) {
			t.Errorf("Sanitize(%q) = %q contains an event handler", in, out)
		}
		if anyJSScheme.MatchString(out) {
			t.Errorf("Sanitize(%q) = %q contains a javascript: scheme", in, out)
		}
		if strings.Contains(out, "<") || strings.Contains(out, ">") {
			t.Errorf("Sanitize(%q) = %q contains raw angle brackets", in, out)
		}
	}
}

func TestSanitize_Length(t *testing.T) {
	inputs := []string{
		strings.Repeat("a", 5000),
		strings.Repeat("<", 600),
		strings.Repeat("ü", 1500),
		strings.Repeat("x", MaxFieldLength),
	}
	for _, in := range inputs {
		out := Sanitize(in)
		if n := utf8.RuneCountInString(out); n > MaxFieldLength {
			t.Errorf("len(Sanitize(%.10q...)) = %d runes, want <= %d", in, n, MaxFieldLength)
		}
		if !utf8.ValidString(out) {
			t.Errorf("Sanitize(%.10q...) produced invalid UTF-8", in)
		}
	}

	if got := Sanitize(strings.Repeat("ü", 1500)); utf8.RuneCountInString(got) != MaxFieldLength {
		t.Errorf("multibyte input truncated to %d runes, want %d", utf8.RuneCountInString(got), MaxFieldLength)
	}
}
