package contact

import (
	"errors"
	"strings"
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	tests := map[string]bool{
		"a@b.co":                 true,
		"first.last+tag@x.io":    true,
		"USER%1@sub.example.org": true,
		"":                       false,
		"a@b":                    false,
		"a.b.com":                false,
		"a@b.c":                  false,
		"a b@c.com":              false,
	}
	for in, want := range tests {
		if got := IsValidEmail(in); got != want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", in, got, want)
		}
	}
	if IsValidEmail("x@y.com\r\nBcc: z@w.com") {
		t.Error("IsValidEmail accepted an address carrying a header break")
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := map[string]bool{
		"":                      true,
		"+1 (555) 123-4567":     true,
		"0664 1234567":          true,
		"123456":                true,
		"abc":                   false,
		"12345":                 false,
		strings.Repeat("1", 25): false,
		"++1 555 1234":          false,
		"555-1234 ext. 9":       false,
		"123\v456":              true,
		"0664\u00a01234567":     true,
		"+43\u2009664\u2009123": true,
		"123\u200b456":          false,
	}
	for in, want := range tests {
		if got := IsValidPhone(in); got != want {
			t.Errorf("IsValidPhone(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsValidPlan(t *testing.T) {
	for _, p := range []string{"light", "basic", "premium"} {
		if !IsValidPlan(p) {
			t.Errorf("IsValidPlan(%q) = false, want true", p)
		}
	}
	for _, p := range []string{"gold", "", "Basic", " basic", "premium "} {
		if IsValidPlan(p) {
			t.Errorf("IsValidPlan(%q) = true, want false", p)
		}
	}
}

func TestValidator_FirstFailureWins(t *testing.T) {
	valid := Submission{Company: "Ac", Email: "x@y.com", Phone: "", Plan: "basic", Message: "hi"}

	tests := []struct {
		name   string
		mutate func(*Submission)
		want   *ValidationError
	}{
		{"valid", func(*Submission) {}, nil},
		{"company too short", func(s *Submission) { s.Company = "A" }, ErrCompanyTooShort},
		{"company empty", func(s *Submission) { s.Company = "" }, ErrCompanyTooShort},
		{"company counts characters", func(s *Submission) { s.Company = "Ö" }, ErrCompanyTooShort},
		{"bad email", func(s *Submission) { s.Email = "not-an-email" }, ErrInvalidEmail},
		{"bad phone", func(s *Submission) { s.Phone = "abc" }, ErrInvalidPhone},
		{"bad plan", func(s *Submission) { s.Plan = "gold" }, ErrInvalidPlan},
		{"company before email", func(s *Submission) { s.Company = "A"; s.Email = "" }, ErrCompanyTooShort},
		{"email before phone", func(s *Submission) { s.Email = "a@b"; s.Phone = "abc" }, ErrInvalidEmail},
		{"phone before plan", func(s *Submission) { s.Phone = "abc"; s.Plan = "gold" }, ErrInvalidPhone},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := valid
			tt.mutate(&sub)
			err := v.Validate(sub)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if verr.Code != tt.want.Code {
				t.Errorf("Code = %q, want %q", verr.Code, tt.want.Code)
			}
		})
	}
}
