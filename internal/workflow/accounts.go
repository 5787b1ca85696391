// internal/workflow/accounts.go
//
// Laxmi – account flows behind the distributorship gate.
//
// Context
//   Accounts orchestrates sign-up, sign-in, and sign-out across the
//   identity provider, the record store, and the session watcher.  Sign-up
//   is two steps: the provider creates the identity and issues its first
//   session, then a profile record is appended at users/{id}/info.  The
//   profile is written whenever the identity exists, even if no session
//   could be issued.  When the profile write fails the identity stays and
//   the visitor is signed in anyway; the write error is returned next to
//   the session so the page can show it.  There is no rollback.
//
// Workflow
//   •  SignUp  → Check → provider.SignUp → profile append → publish.
//   •  SignIn  → Check → provider.SignIn → publish.
//   •  SignOut → provider.SignOut → publish nil.
//
//------------------------------------------------------------------------------

package workflow

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/yanizio/laxmi/internal/form"
	"github.com/yanizio/laxmi/internal/identity"
	"github.com/yanizio/laxmi/internal/metrics"
	"github.com/yanizio/laxmi/internal/record"
)

// Publisher receives session changes per client.  *session.Watcher
// satisfies it.
type Publisher interface {
	Publish(clientID string, sess *identity.Session)
}

// Account notices.
const (
	SignUpMessage  = "Account created successfully!"
	SignInMessage  = "Sign in successful!"
	SignOutMessage = "You have been signed out."
)

// Accounts runs the identity flows.
type Accounts struct {
	provider identity.Provider
	records  record.Appender
	events   Publisher
	clock    Clock
	log      *zap.SugaredLogger
}

// NewAccounts wires the account flows.  events may be nil.
func NewAccounts(p identity.Provider, records record.Appender, events Publisher, clock Clock, log *zap.SugaredLogger) *Accounts {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = zap.S()
	}
	return &Accounts{provider: p, records: records, events: events, clock: clock, log: log}
}

// ProfilePath is where a user’s profile record lives.
func ProfilePath(id identity.UserID) string { return "users/" + string(id) + "/info" }

// SignUp creates an account, signs it in, and writes its profile.  On a
// profile write failure both the session and a *record.WriteError are
// returned.
func (a *Accounts) SignUp(ctx context.Context, clientID string, req form.SignUpRequest) (*identity.Session, error) {
	if err := form.Check(&req); err != nil {
		a.count("signup", err)
		return nil, err
	}

	sess, err := a.provider.SignUp(ctx, req.Email, req.Password)
	if sess.UserID == "" {
		if err == nil {
			err = &identity.AuthError{Code: identity.Unknown, Message: "provider returned no account"}
		}
		a.count("signup", err)
		return nil, err
	}
	id := sess.UserID

	profile := form.UserProfile{
		Name:      req.Name,
		Email:     sess.Email,
		CreatedAt: record.FormatTime(a.clock.Now()),
	}
	_, werr := a.records.Append(context.WithoutCancel(ctx), ProfilePath(id), profile.Fields())

	if err != nil {
		// Identity exists but no session was issued.
		a.log.Warnw("sign-up issued no session", "user", id, "err", err)
		a.count("signup", err)
		return nil, err
	}
	a.publish(clientID, &sess)

	if werr != nil {
		var we *record.WriteError
		if !errors.As(werr, &we) {
			we = &record.WriteError{Path: ProfilePath(id), Message: werr.Error(), Err: werr}
		}
		a.log.Warnw("profile write failed after sign-up", "user", id, "err", werr)
		metrics.AuthTotal.WithLabelValues("signup", "profile_write_error").Inc()
		return &sess, we
	}

	a.count("signup", nil)
	return &sess, nil
}

// SignIn checks credentials and publishes the new session.
func (a *Accounts) SignIn(ctx context.Context, clientID string, req form.SignInRequest) (*identity.Session, error) {
	if err := form.Check(&req); err != nil {
		a.count("signin", err)
		return nil, err
	}
	sess, err := a.provider.SignIn(ctx, req.Email, req.Password)
	a.count("signin", err)
	if err != nil {
		return nil, err
	}
	a.publish(clientID, &sess)
	return &sess, nil
}

// SignOut revokes token and publishes the signed-out state.
func (a *Accounts) SignOut(ctx context.Context, clientID, token string) error {
	err := a.provider.SignOut(ctx, token)
	a.count("signout", err)
	if err != nil {
		return err
	}
	a.publish(clientID, nil)
	return nil
}

func (a *Accounts) publish(clientID string, sess *identity.Session) {
	if a.events != nil && clientID != "" {
		a.events.Publish(clientID, sess)
	}
}

func (a *Accounts) count(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case form.IsValidationError(err):
		outcome = "rejected"
	default:
		outcome = string(identity.CodeOf(err))
	}
	metrics.AuthTotal.WithLabelValues(op, outcome).Inc()
}
