// internal/form/validate_test.go
//
// Table-driven tests for the validator rules and Check.
//
// Run: go test ./internal/form -v

package form

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	cases := map[string]bool{
		"a@b.com":             true,
		"first.last@ex.co.in": true,
		"a@b":                 false,
		"@b.com":              false,
		"a@.com":              false,
		"a b@c.com":           false,
		"a@b.":                false,
		"":                    false,
		"a@@b.com":            false,
	}
	for in, want := range cases {
		if got := ValidateEmail(in); got != want {
			t.Errorf("ValidateEmail(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidatePassword_Order(t *testing.T) {
	cases := []struct {
		in   string
		want PasswordResult
	}{
		{"", TooShort},
		{"a!1", TooShort},
		{"abcdef", MissingSpecialChar},
		{"abcde12", MissingSpecialChar},
		{"abcde!", InsufficientDigits},
		{"abcd!1", InsufficientDigits},
		{"abc!12", PasswordOK},
		{`ab"c12`, PasswordOK},
		{"pässw!12", PasswordOK},
	}
	for _, c := range cases {
		if got := ValidatePassword(c.in); got != c.want {
			t.Errorf("ValidatePassword(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

// For all p: OK iff len>=6, has a special char, and has two or more digits.
func TestValidatePassword_Property(t *testing.T) {
	alphabet := []rune("ab0123456789!@#$%^&*(),.?\":{}|<>xyz -_=+")
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 5000; i++ {
		n := rng.Intn(12)
		var sb strings.Builder
		for j := 0; j < n; j++ {
			sb.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		p := sb.String()

		digits := 0
		for _, c := range p {
			if c >= '0' && c <= '9' {
				digits++
			}
		}
		want := len([]rune(p)) >= 6 && strings.ContainsAny(p, SpecialChars) && digits >= 2
		if got := ValidatePassword(p).OK(); got != want {
			t.Fatalf("ValidatePassword(%q).OK() = %v, want %v", p, got, want)
		}
	}
}

func TestPasswordMessages(t *testing.T) {
	if PasswordOK.Message() != "" {
		t.Fatal("OK must have no message")
	}
	for _, r := range []PasswordResult{TooShort, MissingSpecialChar, InsufficientDigits} {
		if r.Message() == "" {
			t.Errorf("%v has no message", r)
		}
	}
}

func TestValidateRequired(t *testing.T) {
	got := ValidateRequired(&ContactMessage{Email: "not-an-email"})
	want := []string{"name", "message"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("missing = %v, want %v", got, want)
	}

	// Optional phone is never reported, and content is irrelevant.
	if got := ValidateRequired(&ContactMessage{Name: "x", Email: "y", Message: "z"}); len(got) != 0 {
		t.Fatalf("unexpected missing fields: %v", got)
	}
}

func TestCheck_ContactMessage(t *testing.T) {
	err := Check(&ContactMessage{Name: "A", Email: "bad", Message: "hi"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want *ValidationError, got %v", err)
	}
	if len(ve.Fields) != 1 || ve.Fields[0].Name != "email" {
		t.Fatalf("fields = %+v", ve.Fields)
	}

	if err := Check(&ContactMessage{Name: "A", Email: "a@b.com", Message: "hi"}); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}
}

func TestCheck_SignUpRequest(t *testing.T) {
	cases := []struct {
		name    string
		req     SignUpRequest
		field   string
		message string
	}{
		{
			name:    "weak password",
			req:     SignUpRequest{Name: "A", Email: "a@b.com", Password: "abcdef", ConfirmPassword: "abcdef"},
			field:   "password",
			message: MissingSpecialChar.Message(),
		},
		{
			name:    "mismatch",
			req:     SignUpRequest{Name: "A", Email: "a@b.com", Password: "abc!12", ConfirmPassword: "abc!13"},
			field:   "confirmPassword",
			message: "Passwords don't match!",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var ve *ValidationError
			if !errors.As(Check(&c.req), &ve) {
				t.Fatal("expected validation error")
			}
			if ve.First() != c.message || ve.Fields[0].Name != c.field {
				t.Fatalf("got %+v", ve.Fields)
			}
		})
	}

	ok := SignUpRequest{Name: "A", Email: "a@b.com", Password: "abc!12", ConfirmPassword: "abc!12"}
	if err := Check(&ok); err != nil {
		t.Fatalf("valid sign-up rejected: %v", err)
	}
}

func TestCheck_DistributorshipBusinessType(t *testing.T) {
	app := DistributorshipApplication{
		FullName: "A", PhoneNumber: "1", BusinessName: "B", CityState: "Pune, MH",
		BusinessType: "Pan Shop", InterestReason: "growth",
	}
	if err := Check(&app); err != nil {
		t.Fatalf("valid application rejected: %v", err)
	}
	for _, bt := range BusinessTypes {
		app.BusinessType = bt
		if err := Check(&app); err != nil {
			t.Errorf("business type %q rejected: %v", bt, err)
		}
	}

	app.BusinessType = "Pan"
	if !IsValidationError(Check(&app)) {
		t.Fatal("unknown business type accepted")
	}

	app.BusinessType = "Other"
	app.Email = "nope"
	if !IsValidationError(Check(&app)) {
		t.Fatal("malformed optional email accepted")
	}
}

func TestParse_DecodesByJSONName(t *testing.T) {
	var msg ContactMessage
	err := Parse(map[string]string{
		"name": "A", "email": "a@b.com", "message": "hi", "unknown": "x",
	}, &msg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := msg.Fields()
	if f["name"] != "A" || f["phone"] != "" || len(f) != 4 {
		t.Fatalf("fields = %v", f)
	}
}
