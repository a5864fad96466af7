// internal/contact/submission.go
package contact

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Submission is one contact form entry. It lives for a single request.
// Field order is validation order.
type Submission struct {
	Company string `json:"company" validate:"company"`
	Email   string `json:"email" validate:"contactemail"`
	Phone   string `json:"phone" validate:"phone"`
	Plan    string `json:"plan" validate:"plan"`
	Message string `json:"message"`
}

// Fields is the decoded JSON object posted to the contact endpoint.
type Fields map[string]json.RawMessage

// FromFields extracts a Submission. Free-text fields are sanitized; the
// email is trimmed and lower-cased only. An empty object is ErrMalformed.
func FromFields(f Fields) (Submission, error) {
	if len(f) == 0 {
		return Submission{}, ErrMalformed
	}
	return Submission{
		Company: Sanitize(f.text("company")),
		Email:   strings.ToLower(strings.TrimSpace(f.text("email"))),
		Phone:   Sanitize(f.text("phone")),
		Plan:    Sanitize(f.text("plan")),
		Message: Sanitize(f.text("message")),
	}, nil
}

// text returns a field as a string. Missing and null fields are empty;
// non-string values (numbers, booleans) are taken as their JSON text.
func (f Fields) text(key string) string {
	raw, ok := f[key]
	if !ok {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
