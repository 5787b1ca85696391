package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/laxmi/internal/database"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func setupLocal(t *testing.T) (*Local, *clock) {
	t.Helper()
	db, err := database.Open(database.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, database.SQLite))

	clk := &clock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	l, err := NewLocal(db, Options{
		Secret:     []byte("test-secret-test-secret"),
		BcryptCost: bcrypt.MinCost,
		Now:        clk.Now,
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	return l, clk
}

func TestSignUpSignIn(t *testing.T) {
	l, _ := setupLocal(t)
	ctx := context.Background()

	first, err := l.SignUp(ctx, "Ravi@Example.com ", "abc!12")
	require.NoError(t, err)
	require.NotEmpty(t, first.UserID)
	require.NotEmpty(t, first.Token)
	assert.Equal(t, "ravi@example.com", first.Email)
	id := first.UserID

	sess, err := l.SignIn(ctx, "ravi@example.com", "abc!12")
	require.NoError(t, err)
	assert.Equal(t, id, sess.UserID)
	assert.Equal(t, "ravi@example.com", sess.Email)
	assert.Equal(t, 24*time.Hour, sess.ExpiresAt.Sub(sess.IssuedAt))

	got, err := l.Verify(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, id, got.UserID)
}

func TestSignUp_Errors(t *testing.T) {
	l, _ := setupLocal(t)
	ctx := context.Background()

	_, err := l.SignUp(ctx, "a@b.com", "abc!12")
	require.NoError(t, err)

	cases := []struct {
		email, password string
		want            Code
	}{
		{"a@b.com", "xyz!34", EmailInUse},
		{"A@B.COM", "xyz!34", EmailInUse},
		{"not-an-email", "xyz!34", InvalidEmail},
		{"c@d.com", "12345", WeakPassword},
	}
	for _, c := range cases {
		_, err := l.SignUp(ctx, c.email, c.password)
		assert.Equal(t, c.want, CodeOf(err), "%s/%s", c.email, c.password)
	}
}

func TestSignIn_Errors(t *testing.T) {
	l, _ := setupLocal(t)
	ctx := context.Background()
	_, err := l.SignUp(ctx, "a@b.com", "abc!12")
	require.NoError(t, err)

	_, err = l.SignIn(ctx, "nobody@b.com", "abc!12")
	assert.Equal(t, UserNotFound, CodeOf(err))

	_, err = l.SignIn(ctx, "a@b.com", "wrong!12")
	assert.Equal(t, InvalidCredential, CodeOf(err))
}

func TestSignIn_Throttled(t *testing.T) {
	l, clk := setupLocal(t)
	ctx := context.Background()
	_, err := l.SignUp(ctx, "a@b.com", "abc!12")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := l.SignIn(ctx, "a@b.com", "wrong")
		require.Equal(t, InvalidCredential, CodeOf(err))
	}

	// Even the right password is refused while blocked.
	_, err = l.SignIn(ctx, "a@b.com", "abc!12")
	assert.Equal(t, TooManyAttempts, CodeOf(err))

	clk.Advance(15*time.Minute + time.Second)
	_, err = l.SignIn(ctx, "a@b.com", "abc!12")
	assert.NoError(t, err)
}

func TestSignUp_IgnoresThrottleOnUnregisteredEmail(t *testing.T) {
	l, _ := setupLocal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := l.SignIn(ctx, "new@example.com", "abc!12")
		require.Equal(t, UserNotFound, CodeOf(err))
	}
	_, err := l.SignIn(ctx, "new@example.com", "abc!12")
	require.Equal(t, TooManyAttempts, CodeOf(err))

	sess, err := l.SignUp(ctx, "new@example.com", "abc!12")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.UserID)

	got, err := l.Verify(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)

	// The owner's own sign-in is no longer blocked.
	_, err = l.SignIn(ctx, "new@example.com", "abc!12")
	assert.NoError(t, err)
}

func TestSignOut_Revokes(t *testing.T) {
	l, _ := setupLocal(t)
	ctx := context.Background()
	_, err := l.SignUp(ctx, "a@b.com", "abc!12")
	require.NoError(t, err)
	sess, err := l.SignIn(ctx, "a@b.com", "abc!12")
	require.NoError(t, err)

	require.NoError(t, l.SignOut(ctx, sess.Token))
	_, err = l.Verify(ctx, sess.Token)
	assert.True(t, errors.Is(err, ErrInvalidSession))

	// Unknown or empty tokens are not an error.
	assert.NoError(t, l.SignOut(ctx, ""))
	assert.NoError(t, l.SignOut(ctx, "garbage"))
}

func TestVerify_Expired(t *testing.T) {
	l, clk := setupLocal(t)
	ctx := context.Background()
	_, err := l.SignUp(ctx, "a@b.com", "abc!12")
	require.NoError(t, err)
	sess, err := l.SignIn(ctx, "a@b.com", "abc!12")
	require.NoError(t, err)

	clk.Advance(25 * time.Hour)
	_, err = l.Verify(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	l.sweep()
	assert.Empty(t, l.revoked)
}

func TestAuthError_UserMessage(t *testing.T) {
	assert.Equal(t, EmailInUse.UserMessage(), (&AuthError{Code: EmailInUse, Message: "raw"}).UserMessage())
	assert.Equal(t, "quota exceeded", (&AuthError{Code: "quota", Message: "quota exceeded"}).UserMessage())
	assert.Equal(t, DefaultMessage, (&AuthError{Code: Unknown}).UserMessage())
}
