// internal/form/csrf.go
//
// Laxmi – Forms subsystem: stateless CSRF token guard.
//
// Context
//   The page fetches a token from GET /api/csrf and echoes it in the
//   X-CSRF-Token header on every state-changing request.  The token is
//   stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – keyed with the configured secret.
//
//   Validation checks the signature and ensures the timestamp is within
//   MaxAge.  No server-side state is kept, so any instance can verify a
//   token another instance issued as long as they share the secret.
//
// Workflow
//   •  NewGuard(secret, disabled) → *Guard.
//   •  Guard.Issue()      → token string for the page.
//   •  Guard.Verify(tok)  → constant-time verify; false on any failure.
//   •  Guard.Middleware   → rejects unsafe methods without a valid header.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"net/http"
	"time"

	"github.com/yanizio/laxmi/internal/component"
)

const (
	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig

	// MaxAge is how long an issued token stays valid.
	MaxAge = 2 * time.Hour

	// HeaderName carries the token on unsafe requests.
	HeaderName = "X-CSRF-Token"
)

// Guard issues and verifies CSRF tokens.
type Guard struct {
	secret   []byte
	disabled bool
	now      func() time.Time
}

// NewGuard returns a Guard keyed with secret.  An empty secret gets a random
// 32-byte key, so tokens do not survive a restart.  A disabled Guard still
// issues tokens but its middleware lets everything through.
func NewGuard(secret []byte, disabled bool) (*Guard, error) {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
	}
	return &Guard{secret: secret, disabled: disabled, now: time.Now}, nil
}

// Issue creates a new token.
func (g *Guard) Issue() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(g.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, g.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns true if tok passes HMAC and age checks.
func (g *Guard) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := g.now()
	if now.Sub(issued) > MaxAge || issued.Sub(now) > time.Minute {
		// Expired, or issued in the future beyond clock skew.
		return false
	}

	return hmac.Equal(sig, g.sign(nonce, tsBytes))
}

func (g *Guard) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}

// Middleware rejects POST, PUT, PATCH, and DELETE requests whose HeaderName
// value does not verify.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if g.disabled || g.Verify(r.Header.Get(HeaderName)) {
			next.ServeHTTP(w, r)
			return
		}
		component.Error(w, http.StatusForbidden, "csrf_invalid",
			"Security token invalid.  Please refresh and try again.")
	})
}

// IssueHandler serves GET /api/csrf.
func (g *Guard) IssueHandler(w http.ResponseWriter, _ *http.Request) {
	tok, err := g.Issue()
	if err != nil {
		component.InternalError(w, nil, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	component.OK(w, map[string]string{"token": tok, "header": HeaderName})
}
