package workflow

import (
	"github.com/yanizio/laxmi/internal/form"
	"github.com/yanizio/laxmi/internal/identity"
	"github.com/yanizio/laxmi/internal/notify"
)

// Kind names a form in URLs and metrics.
type Kind string

const (
	Contact         Kind = "contact"
	FloatingContact Kind = "floating-contact"
	Newsletter      Kind = "newsletter"
	Distributorship Kind = "distributorship"
)

// Definition describes one form: where it is stored, what it needs, and
// what the visitor is told.
type Definition struct {
	Kind            Kind
	RequiresSession bool
	Path            func(sess *identity.Session) string
	New             func() form.Submission
	Template        *notify.Template
	SuccessMessage  string
	FailureMessage  string // shown when the store gives no message of its own
	AutoClose       bool   // collapse the UI after Deps.CloseDelay on success
}

func fixedPath(p string) func(*identity.Session) string {
	return func(*identity.Session) string { return p }
}

// DefaultDefinitions returns the site’s four forms keyed by kind.
func DefaultDefinitions() map[Kind]*Definition {
	const failure = "Failed to send message.  Please try again later."
	defs := []*Definition{
		{
			Kind:           Contact,
			Path:           fixedPath("contactMessages"),
			New:            func() form.Submission { return &form.ContactMessage{} },
			Template:       notify.Contact,
			SuccessMessage: "Message sent successfully!  We will contact you soon.",
			FailureMessage: failure,
		},
		{
			Kind:           FloatingContact,
			Path:           fixedPath("floatingContactMessages"),
			New:            func() form.Submission { return &form.FloatingContactMessage{} },
			Template:       notify.FloatingContact,
			SuccessMessage: "Thank you for your message!  We will get back to you soon.",
			FailureMessage: failure,
			AutoClose:      true,
		},
		{
			Kind:           Newsletter,
			Path:           fixedPath("newsletterSubscriptions"),
			New:            func() form.Submission { return &form.NewsletterSubscription{} },
			Template:       notify.Newsletter,
			SuccessMessage: "Thank you for subscribing!",
			FailureMessage: "Subscription failed.  Please try again later.",
		},
		{
			Kind:            Distributorship,
			RequiresSession: true,
			Path: func(sess *identity.Session) string {
				return "users/" + string(sess.UserID) + "/distributorshipApplications"
			},
			New:            func() form.Submission { return &form.DistributorshipApplication{} },
			Template:       notify.Distributorship,
			SuccessMessage: "Thank you for your application!  We will contact you soon.",
			FailureMessage: "Failed to submit application.  Please try again later.",
		},
	}

	out := make(map[Kind]*Definition, len(defs))
	for _, d := range defs {
		out[d.Kind] = d
	}
	return out
}

// fieldNames returns the keys a Definition’s record writes.
func (d *Definition) fieldNames() []string {
	return d.New().Fields().Keys()
}
