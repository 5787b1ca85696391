// internal/notify/notify.go
//
// Laxmi – messaging deep-link notifier.
//
// Context
//   After a record is stored the site alerts the sales desk by opening a
//   wa.me link whose text is the rendered submission.  This package renders
//   the fixed-order text for each form, builds the link, and hands it to a
//   Dispatcher.  Dispatch is fire-and-forget: there is no delivery
//   confirmation and no retry, and a dispatch problem never fails the
//   submission that triggered it.
//
// Workflow
//   •  Template.Render(fields) → multi-line text, “Not provided” for empty
//      optional values.
//   •  BuildDeepLink(phone, msg) → https://wa.me/<digits>?text=<encoded>.
//   •  Notifier.Notify(ctx, tmpl, fields) → builds the link, dispatches it,
//      and returns it so the page can open it in a new tab.
//
// Style
//   Two-space sentence spacing, Oxford comma.
//
//------------------------------------------------------------------------------

package notify

import (
	"context"
	"strings"

	"github.com/yanizio/laxmi/internal/record"
)

// NotProvided replaces empty optional values in rendered text.
const NotProvided = "Not provided"

// Footer closes every message.
const Footer = "_Sent from Laxmi Paan Website_"

// Line is one labelled value in a Template.
type Line struct {
	Label    string // shown bold, e.g. “Name”
	Key      string // record field name
	Optional bool   // empty renders as NotProvided
	Block    bool   // value goes on its own line(s) below the label
}

// Template is the fixed layout for one form’s message.
type Template struct {
	Heading string
	Lines   []Line
	Footer  string
}

// Render substitutes fields into t.
func (t *Template) Render(fields record.Fields) string {
	var sb strings.Builder
	sb.WriteString(t.Heading)
	sb.WriteString("\n\n")

	for _, l := range t.Lines {
		val := fields[l.Key]
		if val == "" && l.Optional {
			val = NotProvided
		}
		sb.WriteString("*" + l.Label + ":*")
		if l.Block {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
		sb.WriteString(val)
		sb.WriteString("\n")
	}

	if t.Footer != "" {
		sb.WriteString("\n")
		sb.WriteString(t.Footer)
	}
	return sb.String()
}

// Message pairs a template with the values to render into it.
type Message struct {
	Template *Template
	Fields   record.Fields
}

// Text renders m.
func (m Message) Text() string { return m.Template.Render(m.Fields) }

// BuildDeepLink strips every non-digit from phone, renders msg, and returns
// the wa.me URL carrying it.
func BuildDeepLink(phone string, msg Message) string {
	return "https://wa.me/" + Digits(phone) + "?text=" + EncodeURIComponent(msg.Text())
}

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// -----------------------------------------------------------------------------
// Dispatch
// -----------------------------------------------------------------------------

// Dispatcher delivers a deep link somewhere.  Implementations must not block
// the caller for long and must not report failure.
type Dispatcher interface {
	Dispatch(ctx context.Context, url string)
}

// Notifier binds the target phone number to a Dispatcher.
type Notifier struct {
	phone string
	out   Dispatcher
}

// New returns a Notifier.  A nil Dispatcher makes Notify build links only.
func New(phone string, out Dispatcher) *Notifier {
	return &Notifier{phone: phone, out: out}
}

// Notify builds the link for fields, dispatches it, and returns it.
func (n *Notifier) Notify(ctx context.Context, tmpl *Template, fields record.Fields) string {
	url := BuildDeepLink(n.phone, Message{Template: tmpl, Fields: fields})
	if n.out != nil {
		n.out.Dispatch(ctx, url)
	}
	return url
}
