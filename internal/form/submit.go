// internal/form/submit.go
//
// Laxmi – Forms subsystem: validation errors and value decoding.
//
// Context
//   Handlers and the workflow want one call that turns the page’s flat
//   field map into a typed record and either a clean value or a
//   *ValidationError.  Decode and Parse provide that so component code stays
//   terse.
//
//------------------------------------------------------------------------------

package form

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorField describes a single validation failure so the page can render a
// field-level message.
type ErrorField struct {
	Name    string `json:"name"`    // JSON field name, "" for form-level
	Message string `json:"message"` // user-facing message
}

// ValidationError wraps []ErrorField and satisfies the error interface.
//
// It lets callers distinguish user input errors from system failures via
// errors.As / IsValidationError.
type ValidationError struct {
	Fields []ErrorField `json:"fields"`
}

func (ve *ValidationError) Error() string { return "form validation failed" }

// First returns the first message, which is what a single-notice UI shows.
func (ve *ValidationError) First() string {
	if len(ve.Fields) == 0 {
		return ""
	}
	return ve.Fields[0].Message
}

// IsValidationError reports whether err came from a failed Check.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Decode copies values into dst by JSON field name.  Keys dst does not know
// are ignored.
func Decode(values map[string]string, dst Submission) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("form: encode values: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("form: decode into %T: %w", dst, err)
	}
	return nil
}

// Parse decodes values into dst and validates the result.
func Parse(values map[string]string, dst Submission) error {
	if err := Decode(values, dst); err != nil {
		return err
	}
	return Check(dst)
}
