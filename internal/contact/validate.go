// internal/contact/validate.go
package contact

import (
	"errors"
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Plan is one of the offered service tiers.
type Plan string

const (
	PlanLight   Plan = "light"
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
)

// Plans lists the accepted plans.
var Plans = []Plan{PlanLight, PlanBasic, PlanPremium}

// MinCompanyLength is the minimum company name length in characters.
const MinCompanyLength = 2

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRe = regexp.MustCompile(`^[+]?[0-9\-()\s\v\p{Z}\x{1c}-\x{1f}\x{85}]{6,20}$`)
)

// IsValidEmail reports whether s looks like local@domain.tld.
func IsValidEmail(s string) bool {
	return s != "" && emailRe.MatchString(s)
}

// IsValidPhone reports whether s is empty or a plausible phone number.
func IsValidPhone(s string) bool {
	return s == "" || phoneRe.MatchString(s)
}

// IsValidPlan reports whether s names one of Plans exactly.
func IsValidPlan(s string) bool {
	for _, p := range Plans {
		if s == string(p) {
			return true
		}
	}
	return false
}

// Validator checks a Submission with validator/v10 using the rules
// "company", "contactemail", "phone" and "plan".
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator with the contact rules registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	mustRegister(v, "company", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) >= MinCompanyLength
	})
	mustRegister(v, "contactemail", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	mustRegister(v, "plan", func(fl validator.FieldLevel) bool {
		return IsValidPlan(fl.Field().String())
	})

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	// callEvenIfNull so empty strings reach the rule.
	if err := v.RegisterValidation(tag, fn, true); err != nil {
		panic("contact: register validation " + tag + ": " + err.Error())
	}
}

// Validate returns nil or a *ValidationError for the first failing field,
// in declaration order.
func (val *Validator) Validate(sub Submission) error {
	err := val.v.Struct(sub)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	switch verrs[0].Tag() {
	case "company":
		return ErrCompanyTooShort
	case "contactemail":
		return ErrInvalidEmail
	case "phone":
		return ErrInvalidPhone
	case "plan":
		return ErrInvalidPlan
	}
	return err
}
