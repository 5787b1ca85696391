// internal/workflow/state.go
//
// Laxmi – submission workflow: states, outcomes, and errors.
//
// Context
//   One form instance moves through
//
//      Idle → Validating → (Rejected | Submitting)
//           → (Persisted → Notified → Succeeded) | Failed
//
//   and returns to Idle after the outcome notice has been shown for a fixed
//   window.  Validating through Notified are “busy” states: a second submit
//   or a field edit while busy is refused with ErrInFlight.
//
//------------------------------------------------------------------------------

package workflow

import (
	"errors"
	"fmt"

	"github.com/yanizio/laxmi/internal/form"
	"github.com/yanizio/laxmi/internal/record"
)

// State is where a form instance sits in its submit cycle.
type State int

const (
	Idle State = iota
	Validating
	Rejected
	Submitting
	Persisted
	Notified
	Succeeded
	Failed
)

var stateNames = [...]string{
	Idle:       "idle",
	Validating: "validating",
	Rejected:   "rejected",
	Submitting: "submitting",
	Persisted:  "persisted",
	Notified:   "notified",
	Succeeded:  "succeeded",
	Failed:     "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText is the inverse of MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("workflow: unknown state %q", b)
}

// Busy reports whether a submit is in progress.
func (s State) Busy() bool {
	switch s {
	case Validating, Submitting, Persisted, Notified:
		return true
	}
	return false
}

// Reason explains a Rejected or Failed outcome.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonValidation       Reason = "validation"
	ReasonNotAuthenticated Reason = "not_authenticated"
	ReasonWriteError       Reason = "write_error"
)

// Errors returned alongside a Result.
var (
	ErrInFlight         = errors.New("workflow: submission already in flight")
	ErrNotAuthenticated = errors.New("workflow: sign in required")
	ErrUnknownField     = errors.New("workflow: unknown field")
	ErrUnknownKind      = errors.New("workflow: unknown form")
	ErrEvicted          = errors.New("workflow: form instance evicted")
)

// NotAuthenticatedMessage tells the visitor what to do about
// ErrNotAuthenticated.
const NotAuthenticatedMessage = "Please sign in or create an account to submit your application."

// Notice is the transient message a page shows after a submit.
type Notice struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// Dispatch tells the page to open URL in a new browsing context.
type Dispatch struct {
	URL    string `json:"url"`
	Target string `json:"target"`
}

// Result is the outcome of one Submit.
type Result struct {
	State        State             `json:"state"`
	Reason       Reason            `json:"reason,omitempty"`
	Notice       Notice            `json:"notice"`
	RecordID     record.ID         `json:"recordId,omitempty"`
	Dispatch     *Dispatch         `json:"dispatch,omitempty"`
	Errors       []form.ErrorField `json:"errors,omitempty"`
	CloseAfterMs int64             `json:"closeAfterMs,omitempty"`
}

// Snapshot is the page-facing view of a form instance.
type Snapshot struct {
	Kind    Kind              `json:"kind"`
	State   State             `json:"state"`
	Busy    bool              `json:"busy"`
	Fields  map[string]string `json:"fields"`
	Missing []string          `json:"missing"`
	Notice  *Notice           `json:"notice,omitempty"`
}
