// components/forms/forms.go
//
// Laxmi forms component – lead capture endpoints.
//
// Context
//   One component serves every form kind the workflow registry knows.  The
//   browser is identified by the client cookie the session middleware sets;
//   each (client, kind) pair owns one workflow.Form, so field edits made
//   through PUT survive between requests and the busy flag is shared across
//   tabs of the same browser.
//
// Workflow
//   •  GET  /{kind}         → Snapshot.
//   •  PUT  /{kind}         → merge field edits, return Snapshot.
//   •  POST /{kind}/submit  → optional edits in the body, then Submit.
//
// Notes
//   • The submit response body is always a workflow.Result; the status code
//     carries the outcome class (200, 401, 409, 422, or 502).
//   • Set and Submit go through the registry so an instance evicted between
//     lookup and use is replaced.
//
//------------------------------------------------------------------------------

package forms

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/laxmi/internal/auth"
	"github.com/yanizio/laxmi/internal/component"
	"github.com/yanizio/laxmi/internal/form"
	"github.com/yanizio/laxmi/internal/logger"
	"github.com/yanizio/laxmi/internal/record"
	"github.com/yanizio/laxmi/internal/workflow"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component exposes the workflow registry over HTTP.
type Component struct {
	forms *workflow.Registry
	log   *zap.SugaredLogger
}

// New returns the forms component.
func New(forms *workflow.Registry, log *zap.SugaredLogger) *Component {
	if log == nil {
		log = zap.S()
	}
	return &Component{forms: forms, log: log}
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "forms" }

// Routes builds the router mounted at “/api/forms”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", c.handleKinds)
	r.Get("/{kind}", c.handleSnapshot)
	r.Put("/{kind}", c.handleSet)
	r.Post("/{kind}/submit", c.handleSubmit)
	return r
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleKinds(w http.ResponseWriter, _ *http.Request) {
	component.OK(w, map[string]any{
		"kinds":         c.forms.Kinds(),
		"businessTypes": form.BusinessTypes,
	})
}

func (c *Component) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	f, ok := c.lookup(w, r)
	if !ok {
		return
	}
	component.OK(w, f.Snapshot())
}

func (c *Component) handleSet(w http.ResponseWriter, r *http.Request) {
	client, ok := c.client(w, r)
	if !ok {
		return
	}
	var values map[string]string
	if !component.Decode(w, r, &values) {
		return
	}
	f, err := c.forms.Set(client, workflow.Kind(chi.URLParam(r, "kind")), values)
	if err != nil {
		c.setError(w, err)
		return
	}
	component.OK(w, f.Snapshot())
}

func (c *Component) handleSubmit(w http.ResponseWriter, r *http.Request) {
	client, ok := c.client(w, r)
	if !ok {
		return
	}
	var values map[string]string
	if r.ContentLength != 0 {
		if !component.Decode(w, r, &values) {
			return
		}
	}

	kind := workflow.Kind(chi.URLParam(r, "kind"))
	_, res, err := c.forms.Submit(r.Context(), client, kind, values, auth.SessionFrom(r.Context()))
	switch {
	case errors.Is(err, workflow.ErrUnknownKind), errors.Is(err, workflow.ErrUnknownField):
		c.setError(w, err)
		return
	}

	status := submitStatus(err)
	logger.FromContext(r.Context()).Infow("form submit",
		"form", kind, "state", res.State, "reason", res.Reason, "status", status)
	component.JSON(w, status, res)
}

/*──────────────────────────── Helpers ──────────────────────────────────────*/

func (c *Component) client(w http.ResponseWriter, r *http.Request) (string, bool) {
	client, ok := auth.ClientID(r.Context())
	if !ok {
		component.BadRequest(w, "missing client id")
	}
	return client, ok
}

func (c *Component) lookup(w http.ResponseWriter, r *http.Request) (*workflow.Form, bool) {
	client, ok := c.client(w, r)
	if !ok {
		return nil, false
	}
	f, err := c.forms.Form(client, workflow.Kind(chi.URLParam(r, "kind")))
	if err != nil {
		c.setError(w, err)
		return nil, false
	}
	return f, true
}

func (c *Component) setError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrUnknownKind):
		component.NotFound(w, "unknown form")
	case errors.Is(err, workflow.ErrInFlight):
		component.Error(w, http.StatusConflict, "in_flight", "Please wait, your submission is still being sent.")
	case errors.Is(err, workflow.ErrUnknownField):
		component.BadRequest(w, err.Error())
	case errors.Is(err, workflow.ErrEvicted):
		component.Error(w, http.StatusConflict, "evicted", "Please try again.")
	default:
		component.InternalError(w, c.log, err)
	}
}

// submitStatus maps a Submit error to its HTTP status.
func submitStatus(err error) int {
	var we *record.WriteError
	switch {
	case err == nil:
		return http.StatusOK
	case form.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, workflow.ErrInFlight), errors.Is(err, workflow.ErrEvicted):
		return http.StatusConflict
	case errors.As(err, &we):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
