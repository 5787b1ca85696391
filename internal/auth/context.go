// internal/auth/context.go
//
// Request-context helpers for the current browser and its session.
//
// Usage
// -----
//     // Session middleware attaches both after reading cookies.
//     ctx = auth.WithClient(ctx, "3f1c…")
//     ctx = auth.WithSession(ctx, sess)
//
//     // Handlers read them back.
//     id, ok := auth.ClientID(ctx)
//     sess := auth.SessionFrom(ctx)   // nil when signed out
//
// Notes
// -----
// • The client ID names one browser context, signed in or not.  It keys
//   form instances and session-change subscriptions.
// • Oxford commas, two spaces after periods.

package auth

import (
	"context"

	"github.com/yanizio/laxmi/internal/identity"
)

// Keys are unexported to avoid context-key collisions.
type (
	sessionKey struct{}
	clientKey  struct{}
)

// WithSession returns a new context carrying sess.  A nil sess marks the
// request as signed out.
func WithSession(ctx context.Context, sess *identity.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session attached by WithSession, or nil.
func SessionFrom(ctx context.Context) *identity.Session {
	sess, _ := ctx.Value(sessionKey{}).(*identity.Session)
	return sess
}

// UserID returns the signed-in user, if any.
func UserID(ctx context.Context) (identity.UserID, bool) {
	if sess := SessionFrom(ctx); sess != nil {
		return sess.UserID, true
	}
	return "", false
}

// WithClient returns a new context carrying the browser client ID.
func WithClient(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientKey{}, id)
}

// ClientID extracts the client ID from ctx.  It returns ("", false) if none
// is set.
func ClientID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientKey{}).(string)
	return id, ok && id != ""
}
