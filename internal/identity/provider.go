// internal/identity/provider.go
//
// Laxmi – credential provider contract.
//
// Context
//   The site needs exactly four things from an identity service: create an
//   account, sign in, sign out, and check that a session token the browser
//   presents is still good.  Provider captures that; Local (local.go) is
//   the shipped implementation.  Every failure the user can act on is an
//   *AuthError carrying one of a fixed set of codes, each mapped to a fixed
//   user-facing sentence.
//
// Notes
//   • Codes reuse the wire names common to hosted auth providers so pages
//     written against one keep working.
//   • Oxford commas, two spaces after periods.
//
//------------------------------------------------------------------------------

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// UserID is issued by the provider on sign-up.
type UserID string

// Session binds a browser to one account until sign-out or expiry.
type Session struct {
	UserID    UserID    `json:"userId"`
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Account is one stored credential.
type Account struct {
	ID           UserID `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

// Provider is what the workflow needs from an identity service.
type Provider interface {
	// SignUp creates the account and signs it in.  It fails with
	// EmailInUse, WeakPassword, InvalidEmail, or Unknown.  When the account
	// was created but no token could be issued, the returned Session still
	// carries UserID and Email next to the Unknown error.
	SignUp(ctx context.Context, email, password string) (Session, error)
	// SignIn fails with UserNotFound, InvalidCredential, TooManyAttempts, or
	// Unknown.
	SignIn(ctx context.Context, email, password string) (Session, error)
	// SignOut revokes token.  It fails only with Unknown.
	SignOut(ctx context.Context, token string) error
	// Verify returns the live session for token or ErrInvalidSession.
	Verify(ctx context.Context, token string) (Session, error)
}

// ErrInvalidSession is returned by Verify for missing, expired, revoked, or
// forged tokens.
var ErrInvalidSession = errors.New("identity: invalid session")

// -----------------------------------------------------------------------------
// Error codes
// -----------------------------------------------------------------------------

// Code classifies an AuthError.
type Code string

const (
	EmailInUse        Code = "email-already-in-use"
	WeakPassword      Code = "weak-password"
	InvalidEmail      Code = "invalid-email"
	UserNotFound      Code = "user-not-found"
	InvalidCredential Code = "invalid-credential"
	TooManyAttempts   Code = "too-many-requests"
	Unknown           Code = "unknown"
)

// UserMessage is the fixed text shown for c, or "" for codes without one.
func (c Code) UserMessage() string {
	switch c {
	case EmailInUse:
		return "This email is already registered.  Please sign in instead."
	case WeakPassword:
		return "Password should be at least 6 characters."
	case InvalidEmail:
		return "Please enter a valid email address."
	case UserNotFound:
		return "No account found with this email.  Please sign up first."
	case InvalidCredential:
		return "Incorrect email or password."
	case TooManyAttempts:
		return "Too many failed attempts.  Please try again later."
	default:
		return ""
	}
}

// DefaultMessage is shown when neither the code nor the provider offers
// anything better.
const DefaultMessage = "Authentication failed.  Please try again."

// AuthError is a coded provider failure.  Message holds the provider’s own
// text, if any.
type AuthError struct {
	Code    Code
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("identity: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("identity: %s", e.Code)
}

func (e *AuthError) Unwrap() error { return e.Err }

// UserMessage maps e to what the page shows: the code’s fixed text, else the
// provider message, else DefaultMessage.
func (e *AuthError) UserMessage() string {
	if m := e.Code.UserMessage(); m != "" {
		return m
	}
	if e.Message != "" {
		return e.Message
	}
	return DefaultMessage
}

// CodeOf returns the code of the first *AuthError in err’s chain, or Unknown.
func CodeOf(err error) Code {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return Unknown
}

func authErr(code Code, err error) *AuthError {
	ae := &AuthError{Code: code, Err: err}
	if err != nil {
		ae.Message = err.Error()
	}
	return ae
}
