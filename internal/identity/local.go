// internal/identity/local.go
//
// Laxmi – SQL-backed credential provider.
//
// Context
//   Local keeps accounts in the `accounts` table (see
//   internal/database/migrations), hashes passwords with bcrypt, and issues
//   HS256 JWT session tokens.  Sign-out adds the token’s jti to an
//   in-process revocation list until the token would have expired anyway.
//   Failed sign-ins are throttled per email address by Limiter.
//
// Workflow
//   •  SignUp    → shape checks, bcrypt, INSERT.  A unique-key violation on
//                  email becomes EmailInUse.
//   •  SignIn    → throttle check, SELECT by email, bcrypt compare, token.
//   •  SignOut   → parse token, revoke jti.
//   •  Verify    → parse token, check signature, expiry, and revocation.
//   •  Janitor   → periodic sweep of expired revocations and throttle
//                  windows; runs until ctx is done.
//
// Notes
//   • Emails are compared lower-cased and trimmed.
//   • The revocation list is per process.  Multi-instance deployments
//     should keep token lifetimes short.
//
//------------------------------------------------------------------------------

package identity

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/laxmi/internal/form"
)

// Issuer is the iss claim on every token Local signs.
const Issuer = "laxmi"

// Options configures Local.  Zero values fall back to the defaults noted.
type Options struct {
	Secret        []byte           // HMAC key; random when empty
	TokenTTL      time.Duration    // default 24h
	MaxAttempts   int              // default 5
	AttemptWindow time.Duration    // default 15m
	BcryptCost    int              // default bcrypt.DefaultCost
	Now           func() time.Time // default time.Now
}

func (o *Options) defaults() error {
	if len(o.Secret) == 0 {
		o.Secret = make([]byte, 32)
		if _, err := rand.Read(o.Secret); err != nil {
			return err
		}
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = 24 * time.Hour
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.AttemptWindow <= 0 {
		o.AttemptWindow = 15 * time.Minute
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return nil
}

// Local implements Provider on top of SQL.
type Local struct {
	db      *sqlx.DB
	opts    Options
	limiter *Limiter
	log     *zap.SugaredLogger

	mu      sync.Mutex
	revoked map[string]time.Time // jti → expiry
}

// NewLocal returns a provider using db.  The schema must already be
// migrated.
func NewLocal(db *sqlx.DB, opts Options, log *zap.SugaredLogger) (*Local, error) {
	if err := opts.defaults(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.S()
	}
	return &Local{
		db:      db,
		opts:    opts,
		limiter: NewLimiter(opts.MaxAttempts, opts.AttemptWindow, opts.Now),
		log:     log,
		revoked: make(map[string]time.Time),
	}, nil
}

var _ Provider = (*Local)(nil)

// SignUp creates an account and issues its first session directly.  The
// sign-in throttle is not consulted; failed sign-ins against an address
// that was not registered yet are cleared.
func (l *Local) SignUp(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if !form.ValidateEmail(email) {
		return Session{}, &AuthError{Code: InvalidEmail}
	}
	if utf8.RuneCountInString(password) < form.MinPasswordLen {
		return Session{}, &AuthError{Code: WeakPassword}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.opts.BcryptCost)
	if err != nil {
		return Session{}, authErr(Unknown, err)
	}

	acct := Account{
		ID:           UserID(uuid.NewString()),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    l.opts.Now().UTC().Format(time.RFC3339),
	}
	const q = `INSERT INTO accounts (id, email, password_hash, created_at) VALUES (:id, :email, :password_hash, :created_at)`
	if _, err := l.db.NamedExecContext(ctx, q, acct); err != nil {
		if isUniqueViolation(err) {
			return Session{}, &AuthError{Code: EmailInUse, Err: err}
		}
		l.log.Errorw("account insert failed", "err", err)
		return Session{}, authErr(Unknown, err)
	}
	l.limiter.Reset(email)
	l.log.Infow("account created", "user", acct.ID)

	sess, err := l.issue(acct)
	if err != nil {
		l.log.Errorw("token issue failed after sign-up", "user", acct.ID, "err", err)
		return Session{UserID: acct.ID, Email: acct.Email}, authErr(Unknown, err)
	}
	return sess, nil
}

// SignIn checks credentials and returns a fresh session.
func (l *Local) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if l.limiter.Blocked(email) {
		return Session{}, &AuthError{Code: TooManyAttempts}
	}

	var acct Account
	const q = `SELECT id, email, password_hash, created_at FROM accounts WHERE email = ?`
	if err := l.db.GetContext(ctx, &acct, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.limiter.Fail(email)
			return Session{}, &AuthError{Code: UserNotFound}
		}
		return Session{}, authErr(Unknown, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		l.limiter.Fail(email)
		return Session{}, &AuthError{Code: InvalidCredential}
	}
	l.limiter.Reset(email)

	sess, err := l.issue(acct)
	if err != nil {
		return Session{}, authErr(Unknown, err)
	}
	l.log.Infow("signed in", "user", acct.ID)
	return sess, nil
}

// SignOut revokes token.  Tokens that do not parse are ignored; there is
// nothing to revoke.
func (l *Local) SignOut(_ context.Context, token string) error {
	if token == "" {
		return nil
	}
	c, err := l.parse(token)
	if err != nil {
		return nil
	}

	l.mu.Lock()
	l.revoked[c.ID] = c.ExpiresAt.Time
	l.mu.Unlock()

	l.log.Infow("signed out", "user", c.Subject)
	return nil
}

// Verify validates token.
func (l *Local) Verify(_ context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidSession
	}
	c, err := l.parse(token)
	if err != nil {
		return Session{}, ErrInvalidSession
	}

	l.mu.Lock()
	_, gone := l.revoked[c.ID]
	l.mu.Unlock()
	if gone {
		return Session{}, ErrInvalidSession
	}

	return Session{
		UserID:    UserID(c.Subject),
		Email:     c.Email,
		Token:     token,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// Janitor sweeps expired revocations and throttle entries every interval
// until ctx is done.
func (l *Local) Janitor(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			l.sweep()
		}
	}
}

func (l *Local) sweep() {
	now := l.opts.Now()
	l.mu.Lock()
	for jti, exp := range l.revoked {
		if now.After(exp) {
			delete(l.revoked, jti)
		}
	}
	l.mu.Unlock()
	l.limiter.Cleanup()
}

// -----------------------------------------------------------------------------
// Tokens
// -----------------------------------------------------------------------------

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func (l *Local) issue(acct Account) (Session, error) {
	now := l.opts.Now()
	exp := now.Add(l.opts.TokenTTL)

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   string(acct.ID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: acct.Email,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(l.opts.Secret)
	if err != nil {
		return Session{}, err
	}
	return Session{
		UserID:    acct.ID,
		Email:     acct.Email,
		Token:     tok,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

func (l *Local) parse(token string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return l.opts.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(l.opts.Now),
	)
	if err != nil {
		return nil, err
	}
	if c.ID == "" || c.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return &c, nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// isUniqueViolation recognises duplicate-key errors from MySQL (1062) and
// SQLite.
func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
