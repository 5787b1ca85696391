// internal/workflow/form.go
//
// Laxmi – one form instance and its submit state machine.
//
// Context
//   A Form holds the field values one browser has typed into one form, and
//   runs the submit cycle described in state.go.  It is safe for concurrent
//   use; every transition happens under f.mu, but the record append and the
//   dispatch run with the lock released so Snapshot stays responsive.
//
// Workflow
//   •  Set merges edits.  Refused with ErrInFlight while busy.
//   •  Submit validates, enforces the session gate, appends exactly one
//      record, dispatches the deep link, clears the fields, and reports.
//   •  Every outcome notice is cleared after Deps.NoticeDelay by a timer
//      tagged with a generation number; a later Submit bumps the
//      generation so a stale timer is a no-op.
//
// Notes
//   • The append runs on context.WithoutCancel(ctx).  Once Submitting
//     begins the write runs to completion even if the browser goes away.
//   • Oxford commas, two spaces after periods.
//
//------------------------------------------------------------------------------

package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/laxmi/internal/form"
	"github.com/yanizio/laxmi/internal/identity"
	"github.com/yanizio/laxmi/internal/metrics"
	"github.com/yanizio/laxmi/internal/notify"
	"github.com/yanizio/laxmi/internal/record"
)

// Default display windows.
const (
	DefaultNoticeDelay = 5 * time.Second
	DefaultCloseDelay  = 1500 * time.Millisecond
)

// Deps are the collaborators shared by every form instance.
type Deps struct {
	Records     record.Appender
	Notifier    *notify.Notifier
	Clock       Clock
	NoticeDelay time.Duration
	CloseDelay  time.Duration
	Log         *zap.SugaredLogger
}

func (d *Deps) defaults() {
	if d.Clock == nil {
		d.Clock = SystemClock
	}
	if d.NoticeDelay <= 0 {
		d.NoticeDelay = DefaultNoticeDelay
	}
	if d.CloseDelay <= 0 {
		d.CloseDelay = DefaultCloseDelay
	}
	if d.Log == nil {
		d.Log = zap.S()
	}
}

// Form is one instance of a Definition.
type Form struct {
	def  *Definition
	deps *Deps

	mu     sync.Mutex
	state  State
	values map[string]string
	notice *Notice
	gen    uint64
	timer  Timer

	retired bool // set once by the registry; the instance is never reused

	lastSeen atomic.Int64 // unix nanos, read by the registry evictor
}

// NewForm returns an Idle instance of def.  deps is filled with defaults
// where unset.
func NewForm(def *Definition, deps *Deps) *Form {
	deps.defaults()
	f := &Form{def: def, deps: deps}
	f.values = f.blank()
	f.touch()
	return f
}

func (f *Form) blank() map[string]string {
	out := make(map[string]string)
	for _, k := range f.def.fieldNames() {
		out[k] = ""
	}
	return out
}

func (f *Form) touch() { f.lastSeen.Store(f.deps.Clock.Now().UnixNano()) }

// Kind returns the form’s kind.
func (f *Form) Kind() Kind { return f.def.Kind }

// Set merges values into the form.  Unknown keys fail with ErrUnknownField
// and nothing is changed.
func (f *Form) Set(values map[string]string) error {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.retired {
		return ErrEvicted
	}
	if f.state.Busy() {
		return ErrInFlight
	}
	for k := range values {
		if _, ok := f.values[k]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, k)
		}
	}
	for k, v := range values {
		f.values[k] = v
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (f *Form) Snapshot() Snapshot {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Snapshot{
		Kind:   f.def.Kind,
		State:  f.state,
		Busy:   f.state.Busy(),
		Fields: make(map[string]string, len(f.values)),
	}
	for k, v := range f.values {
		s.Fields[k] = v
	}
	if f.notice != nil {
		n := *f.notice
		s.Notice = &n
	}
	rec := f.def.New()
	if err := form.Decode(f.values, rec); err == nil {
		s.Missing = form.ValidateRequired(rec)
	}
	if s.Missing == nil {
		s.Missing = []string{}
	}
	return s
}

// Submit runs one submit cycle.  sess is the caller’s current session, or
// nil.  The returned error is nil on success, ErrInFlight,
// ErrNotAuthenticated, *form.ValidationError, or *record.WriteError.
func (f *Form) Submit(ctx context.Context, sess *identity.Session) (Result, error) {
	f.touch()
	kind := string(f.def.Kind)

	f.mu.Lock()
	if f.retired {
		st := f.state
		f.mu.Unlock()
		return Result{State: st}, ErrEvicted
	}
	if st := f.state; st.Busy() {
		f.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues(kind, "in_flight").Inc()
		return Result{State: st}, ErrInFlight
	}
	f.cancelTimerLocked()
	f.notice = nil
	f.state = Validating

	rec := f.def.New()
	err := form.Decode(f.values, rec)
	if err == nil {
		err = form.Check(rec)
	}
	if err != nil {
		var ve *form.ValidationError
		if !errors.As(err, &ve) {
			ve = &form.ValidationError{Fields: []form.ErrorField{{Message: "Invalid input."}}}
		}
		res := f.finishLocked(Rejected, ReasonValidation, Notice{Text: ve.First()})
		res.Errors = ve.Fields
		f.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues(kind, "rejected").Inc()
		return res, ve
	}

	if f.def.RequiresSession && sess == nil {
		res := f.finishLocked(Failed, ReasonNotAuthenticated, Notice{Text: NotAuthenticatedMessage})
		f.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues(kind, "not_authenticated").Inc()
		return res, ErrNotAuthenticated
	}

	f.state = Submitting
	path := f.def.Path(sess)
	fields := rec.Fields()
	f.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	id, err := f.deps.Records.Append(detached, path, fields)

	if err != nil {
		text := f.def.FailureMessage
		var we *record.WriteError
		if errors.As(err, &we) && we.Message != "" {
			text = we.Message
		} else {
			we = &record.WriteError{Path: path, Message: text, Err: err}
		}
		f.mu.Lock()
		res := f.finishLocked(Failed, ReasonWriteError, Notice{Text: text})
		f.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues(kind, "write_error").Inc()
		f.deps.Log.Warnw("form submit failed", "form", kind, "err", err)
		return res, we
	}

	f.setState(Persisted)

	var link string
	if f.deps.Notifier != nil {
		link = f.deps.Notifier.Notify(detached, f.def.Template, fields)
	}
	f.setState(Notified)

	f.mu.Lock()
	f.values = f.blank()
	res := f.finishLocked(Succeeded, ReasonNone, Notice{Success: true, Text: f.def.SuccessMessage})
	f.mu.Unlock()

	res.RecordID = id
	if link != "" {
		res.Dispatch = &Dispatch{URL: link, Target: "_blank"}
	}
	if f.def.AutoClose {
		res.CloseAfterMs = f.deps.CloseDelay.Milliseconds()
	}
	metrics.SubmissionsTotal.WithLabelValues(kind, "succeeded").Inc()
	f.deps.Log.Infow("form submitted", "form", kind, "path", path, "id", id)
	return res, nil
}

func (f *Form) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// finishLocked enters a display state, shows n, and arms the timer that
// returns the form to Idle.
func (f *Form) finishLocked(s State, reason Reason, n Notice) Result {
	f.state = s
	f.notice = &n

	f.gen++
	gen := f.gen
	f.timer = f.deps.Clock.AfterFunc(f.deps.NoticeDelay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.gen != gen {
			return
		}
		f.state = Idle
		f.notice = nil
		f.timer = nil
	})

	return Result{State: s, Reason: reason, Notice: n}
}

func (f *Form) cancelTimerLocked() {
	f.gen++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// stop cancels any pending timer.  Used on eviction.
// retire marks an idle instance as gone and stops its timer.  It refuses
// busy instances.  The busy check and the mark happen under one lock, so no
// Submit can start on a retired instance.
func (f *Form) retire() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.retired || f.state.Busy() {
		return false
	}
	f.retired = true
	f.cancelTimerLocked()
	return true
}

func (f *Form) isRetired() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.retired
}
