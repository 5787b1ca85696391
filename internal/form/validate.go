// internal/form/validate.go
//
// Laxmi – Forms subsystem: server-side validation.
//
// Context
//   Every form the site accepts is an explicit struct (see records.go) whose
//   fields carry `validate` tags.  This file owns the go-playground
//   validator instance, the two custom rules the site needs (“emailshape”
//   and “password”), and the translation from validator errors into
//   []ErrorField so the page can highlight exact issues.
//
// Workflow
//   •  ValidateEmail and ValidatePassword are pure checks usable on their
//      own, e.g. for live feedback while the user types.
//   •  ValidateRequired reports which required fields are still empty so the
//      page can gate its submit control.
//   •  Check runs every rule on a record and returns *ValidationError with
//      at most one message per field, in struct field order.
//
// Style
//   Comments follow the house guide: full sentences, two space spacing,
//   Oxford comma.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// -----------------------------------------------------------------------------
// Email
// -----------------------------------------------------------------------------

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail reports whether v looks like local@domain.tld.  It is a shape
// check only, not RFC 5322.
func ValidateEmail(v string) bool { return emailShape.MatchString(v) }

// -----------------------------------------------------------------------------
// Password policy
// -----------------------------------------------------------------------------

// SpecialChars is the set a password must draw at least one character from.
const SpecialChars = `!@#$%^&*(),.?":{}|<>`

// MinPasswordLen is counted in characters, not bytes.
const MinPasswordLen = 6

// PasswordResult is the outcome of ValidatePassword.
type PasswordResult int

const (
	PasswordOK PasswordResult = iota
	TooShort
	MissingSpecialChar
	InsufficientDigits
)

// OK reports whether the password satisfied every rule.
func (r PasswordResult) OK() bool { return r == PasswordOK }

// Message returns the user-facing text for r, or "" when r is PasswordOK.
func (r PasswordResult) Message() string {
	switch r {
	case TooShort:
		return "Password must be at least 6 characters"
	case MissingSpecialChar:
		return "Password must contain at least one special character"
	case InsufficientDigits:
		return "Password must contain at least two numbers"
	default:
		return ""
	}
}

func (r PasswordResult) String() string {
	switch r {
	case PasswordOK:
		return "ok"
	case TooShort:
		return "too_short"
	case MissingSpecialChar:
		return "missing_special_char"
	case InsufficientDigits:
		return "insufficient_digits"
	default:
		return "unknown"
	}
}

// ValidatePassword checks length, then special characters, then digit count,
// and reports the first rule that fails.
func ValidatePassword(v string) PasswordResult {
	if utf8.RuneCountInString(v) < MinPasswordLen {
		return TooShort
	}
	if !strings.ContainsAny(v, SpecialChars) {
		return MissingSpecialChar
	}
	digits := 0
	for _, c := range v {
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	if digits < 2 {
		return InsufficientDigits
	}
	return PasswordOK
}

// -----------------------------------------------------------------------------
// Validator instance
// -----------------------------------------------------------------------------

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so errors line up with the page.
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Empty values pass; pair with `required` when the field is mandatory.
	_ = val.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || ValidateEmail(s)
	})
	_ = val.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidatePassword(fl.Field().String()).OK()
	})
	return val
}

// -----------------------------------------------------------------------------
// Public API
// -----------------------------------------------------------------------------

// ValidateRequired returns the JSON names of required fields that are empty,
// in struct order.  Other rules are ignored.
func ValidateRequired(rec any) []string {
	var missing []string
	for _, fe := range fieldErrors(v.Struct(rec)) {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	return missing
}

// Check validates rec against its tags.  It returns nil, a *ValidationError
// for user input problems, or a plain error when rec is not a struct.
func Check(rec any) error {
	err := v.Struct(rec)
	if err == nil {
		return nil
	}
	var ive *validator.InvalidValidationError
	if errors.As(err, &ive) {
		return err
	}

	ve := &ValidationError{}
	seen := make(map[string]bool)
	for _, fe := range fieldErrors(err) {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true
		ve.Fields = append(ve.Fields, ErrorField{Name: fe.Field(), Message: messageFor(fe)})
	}
	return ve
}

func fieldErrors(err error) validator.ValidationErrors {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		return ves
	}
	return nil
}

// messageFor maps one failed rule to its user-facing text.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "emailshape":
		return "Please enter a valid email address."
	case "password":
		s, _ := fe.Value().(string)
		return ValidatePassword(s).Message()
	case "eqfield":
		return "Passwords don't match!"
	case "oneof":
		return "Please choose one of the listed options."
	default:
		return "Invalid input."
	}
}
