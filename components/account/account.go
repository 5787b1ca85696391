// components/account/account.go
//
// Laxmi account component – sign-up, sign-in, and sign-out.
//
// Context
//   Thin HTTP shell over workflow.Accounts.  Handlers decode the request,
//   run the flow, set or clear the session cookie through session.Manager,
//   and report the outcome as a View plus a notice.
//
// Workflow
//   •  POST /signup   → Accounts.SignUp  → cookie → 201.
//   •  POST /signin   → Accounts.SignIn  → cookie → 200.
//   •  POST /signout  → Accounts.SignOut → clear  → 200.
//   •  GET  /session  → current View.
//
// Notes
//   • A sign-up whose profile write fails still sets the cookie; the
//     response is 502 with the store’s message and the new session.
//
//------------------------------------------------------------------------------

package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/laxmi/internal/auth"
	"github.com/yanizio/laxmi/internal/component"
	"github.com/yanizio/laxmi/internal/form"
	"github.com/yanizio/laxmi/internal/identity"
	"github.com/yanizio/laxmi/internal/logger"
	"github.com/yanizio/laxmi/internal/record"
	"github.com/yanizio/laxmi/internal/session"
	"github.com/yanizio/laxmi/internal/workflow"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// View is the session as the page sees it.  The token never leaves the
// cookie.
type View struct {
	SignedIn  bool       `json:"signedIn"`
	UserID    string     `json:"userId,omitempty"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ViewOf renders sess; nil is signed out.
func ViewOf(sess *identity.Session) View {
	if sess == nil {
		return View{}
	}
	exp := sess.ExpiresAt
	return View{SignedIn: true, UserID: string(sess.UserID), Email: sess.Email, ExpiresAt: &exp}
}

// Response is the body of every account endpoint.
type Response struct {
	Session View              `json:"session"`
	Notice  workflow.Notice   `json:"notice"`
	Code    string            `json:"code,omitempty"`
	Errors  []form.ErrorField `json:"errors,omitempty"`
}

// Component serves /api/account.
type Component struct {
	accounts *workflow.Accounts
	cookies  *session.Manager
	log      *zap.SugaredLogger
}

// New returns the account component.
func New(accounts *workflow.Accounts, cookies *session.Manager, log *zap.SugaredLogger) *Component {
	if log == nil {
		log = zap.S()
	}
	return &Component{accounts: accounts, cookies: cookies, log: log}
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "account" }

// Routes builds the router mounted at “/api/account”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", c.handleSignUp)
	r.Post("/signin", c.handleSignIn)
	r.Post("/signout", c.handleSignOut)
	r.Get("/session", c.handleSession)
	return r
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req form.SignUpRequest
	if !component.Decode(w, r, &req) {
		return
	}
	client, _ := auth.ClientID(r.Context())

	sess, err := c.accounts.SignUp(r.Context(), client, req)
	if sess != nil {
		c.cookies.Login(w, r, *sess)
	}

	var we *record.WriteError
	switch {
	case err == nil:
		component.JSON(w, http.StatusCreated, Response{
			Session: ViewOf(sess),
			Notice:  workflow.Notice{Success: true, Text: workflow.SignUpMessage},
		})
	case errors.As(err, &we) && sess != nil:
		component.JSON(w, http.StatusBadGateway, Response{
			Session: ViewOf(sess),
			Notice:  workflow.Notice{Text: we.Message},
			Code:    "profile_write_failed",
		})
	default:
		c.fail(w, r, err)
	}
}

func (c *Component) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req form.SignInRequest
	if !component.Decode(w, r, &req) {
		return
	}
	client, _ := auth.ClientID(r.Context())

	sess, err := c.accounts.SignIn(r.Context(), client, req)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.cookies.Login(w, r, *sess)
	component.OK(w, Response{
		Session: ViewOf(sess),
		Notice:  workflow.Notice{Success: true, Text: workflow.SignInMessage},
	})
}

func (c *Component) handleSignOut(w http.ResponseWriter, r *http.Request) {
	client, _ := auth.ClientID(r.Context())
	if err := c.accounts.SignOut(r.Context(), client, session.Token(r)); err != nil {
		c.fail(w, r, err)
		return
	}
	c.cookies.Logout(w, r)
	component.OK(w, Response{Notice: workflow.Notice{Success: true, Text: workflow.SignOutMessage}})
}

func (c *Component) handleSession(w http.ResponseWriter, r *http.Request) {
	component.OK(w, Response{Session: ViewOf(auth.SessionFrom(r.Context()))})
}

/*──────────────────────────── Helpers ──────────────────────────────────────*/

// fail writes err with the status its class maps to.
func (c *Component) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *form.ValidationError
	if errors.As(err, &ve) {
		component.JSON(w, http.StatusUnprocessableEntity, Response{
			Notice: workflow.Notice{Text: ve.First()},
			Code:   "validation",
			Errors: ve.Fields,
		})
		return
	}

	var ae *identity.AuthError
	if !errors.As(err, &ae) {
		ae = &identity.AuthError{Code: identity.Unknown, Err: err}
	}
	if ae.Code == identity.Unknown {
		logger.FromContext(r.Context()).Warnw("auth provider error", "err", err)
	}
	component.JSON(w, authStatus(ae.Code), Response{
		Notice: workflow.Notice{Text: ae.UserMessage()},
		Code:   string(ae.Code),
	})
}

func authStatus(code identity.Code) int {
	switch code {
	case identity.EmailInUse:
		return http.StatusConflict
	case identity.UserNotFound, identity.InvalidCredential:
		return http.StatusUnauthorized
	case identity.TooManyAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}
