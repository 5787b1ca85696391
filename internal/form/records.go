// internal/form/records.go
//
// Laxmi – Forms subsystem: one named type per form.
//
// Context
//   Each form the site accepts has an explicit struct here.  JSON tags are
//   the field names the page posts and the keys written to the record
//   store; `validate` tags drive Check.  Fields() flattens a value into the
//   payload the record client appends, always emitting every key so the
//   stored field set matches the form’s field set.
//
// Notes
//   • Optional fields are still written, as "".
//   • SignUpRequest and SignInRequest are validated but never persisted.
//
//------------------------------------------------------------------------------

package form

import "github.com/yanizio/laxmi/internal/record"

// Submission is any form value the workflow can validate and persist.
type Submission interface {
	Fields() record.Fields
}

// BusinessTypes lists the accepted DistributorshipApplication.BusinessType
// values in display order.
var BusinessTypes = []string{
	"Retail Shop",
	"Supermarket",
	"Pan Shop",
	"Event Gifting",
	"Franchise",
	"Other",
}

// ContactMessage is the contact page form.
type ContactMessage struct {
	Name    string `json:"name"    validate:"required"`
	Email   string `json:"email"   validate:"required,emailshape"`
	Phone   string `json:"phone"`
	Message string `json:"message" validate:"required"`
}

func (m *ContactMessage) Fields() record.Fields {
	return record.Fields{
		"name":    m.Name,
		"email":   m.Email,
		"phone":   m.Phone,
		"message": m.Message,
	}
}

// FloatingContactMessage is the slide-out panel available on every page.
type FloatingContactMessage struct {
	Name    string `json:"name"    validate:"required"`
	Email   string `json:"email"   validate:"required,emailshape"`
	Message string `json:"message" validate:"required"`
}

func (m *FloatingContactMessage) Fields() record.Fields {
	return record.Fields{
		"name":    m.Name,
		"email":   m.Email,
		"message": m.Message,
	}
}

// NewsletterSubscription is the footer sign-up.
type NewsletterSubscription struct {
	Email string `json:"email" validate:"required,emailshape"`
}

func (s *NewsletterSubscription) Fields() record.Fields {
	return record.Fields{"email": s.Email}
}

// DistributorshipApplication is the lead form gated behind sign-in.
type DistributorshipApplication struct {
	FullName       string `json:"fullName"       validate:"required"`
	PhoneNumber    string `json:"phoneNumber"    validate:"required"`
	Email          string `json:"email"          validate:"emailshape"`
	BusinessName   string `json:"businessName"   validate:"required"`
	CityState      string `json:"cityState"      validate:"required"`
	BusinessType   string `json:"businessType"   validate:"required,oneof='Retail Shop' Supermarket 'Pan Shop' 'Event Gifting' Franchise Other"`
	InterestReason string `json:"interestReason" validate:"required"`
}

func (a *DistributorshipApplication) Fields() record.Fields {
	return record.Fields{
		"fullName":       a.FullName,
		"phoneNumber":    a.PhoneNumber,
		"email":          a.Email,
		"businessName":   a.BusinessName,
		"cityState":      a.CityState,
		"businessType":   a.BusinessType,
		"interestReason": a.InterestReason,
	}
}

// UserProfile is written once under users/{id}/info after sign-up.
type UserProfile struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

func (p *UserProfile) Fields() record.Fields {
	return record.Fields{
		"name":      p.Name,
		"email":     p.Email,
		"createdAt": p.CreatedAt,
	}
}

// SignUpRequest is the account creation form.
type SignUpRequest struct {
	Name            string `json:"name"            validate:"required"`
	Email           string `json:"email"           validate:"required,emailshape"`
	Password        string `json:"password"        validate:"required,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// SignInRequest is the sign-in form.  The password policy is not applied
// here; accounts predating a policy change must still be able to sign in.
type SignInRequest struct {
	Email    string `json:"email"    validate:"required,emailshape"`
	Password string `json:"password" validate:"required"`
}
