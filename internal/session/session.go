// internal/session/session.go
//
// Laxmi – browser session cookies.
//
// Context
//   Two cookies tie a browser to server-side state:
//
//   •  “laxmi_client”  – random UUID naming this browser context.  Always
//                         present; form instances and session-change
//                         subscriptions are keyed by it.
//   •  “laxmi_session” – the signed session token from the identity
//                         provider.  Present only while signed in.
//
//   Manager.Middleware reads both on every request, verifies the token
//   through the provider, and attaches the results to the request context
//   (see internal/auth).  A token that no longer verifies is cleared.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/laxmi/internal/auth"
	"github.com/yanizio/laxmi/internal/identity"
)

const (
	ClientCookie  = "laxmi_client"
	SessionCookie = "laxmi_session"

	clientMaxAge = 365 * 24 * time.Hour
)

// Manager owns cookie handling for one server.
type Manager struct {
	provider identity.Provider
	secure   bool
	log      *zap.SugaredLogger
}

// NewManager returns a Manager.  secure marks cookies HTTPS-only.
func NewManager(p identity.Provider, secure bool, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.S()
	}
	return &Manager{provider: p, secure: secure, log: log}
}

// Middleware ensures a client cookie and resolves the session cookie.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		clientID := ""
		if c, err := r.Cookie(ClientCookie); err == nil {
			if _, perr := uuid.Parse(c.Value); perr == nil {
				clientID = c.Value
			}
		}
		if clientID == "" {
			clientID = uuid.NewString()
			m.setClient(w, r, clientID)
		}
		ctx = auth.WithClient(ctx, clientID)

		var sess *identity.Session
		if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
			s, verr := m.provider.Verify(ctx, c.Value)
			if verr == nil {
				sess = &s
			} else {
				m.Logout(w, r)
			}
		}
		ctx = auth.WithSession(ctx, sess)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Login stores sess in the session cookie.
//
// Callers invoke this after the provider has issued sess.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
}

// Logout clears the session cookie.  The client cookie stays.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token returns the raw session token on r, if any.
func Token(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (m *Manager) setClient(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(clientMaxAge / time.Second),
	})
}
