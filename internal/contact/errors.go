// internal/contact/errors.go
package contact

import "errors"

// ValidationError is a client-facing rejection of a submission.
type ValidationError struct {
	// Code is a machine-readable code (e.g., "invalid_email")
	Code string

	// Message is returned to the client verbatim.
	Message string
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	ErrCompanyTooShort = &ValidationError{Code: "company_too_short", Message: "Company name must be at least 2 characters long"}
	ErrInvalidEmail    = &ValidationError{Code: "invalid_email", Message: "Invalid email format"}
	ErrInvalidPhone    = &ValidationError{Code: "invalid_phone", Message: "Invalid phone number format"}
	ErrInvalidPlan     = &ValidationError{Code: "invalid_plan", Message: "Invalid plan selection"}
)

// ErrMalformed is returned when the request body is absent, empty or not
// a JSON object.
var ErrMalformed = errors.New("contact: invalid request data")
