// internal/record/record.go
//
// Laxmi – append-only record store client.
//
// Context
//   Every form the site accepts ends up as one flat record appended under a
//   collection path such as “contactMessages” or
//   “users/{id}/distributorshipApplications”.  Records are never updated or
//   deleted.  The Store interface hides the backing service (memory, SQL,
//   or Redis streams); Client wraps any Store and owns the parts every
//   backend must agree on: path checks, the submission timestamp, logging,
//   and error shape.
//
// Workflow
//   •  Callers build Fields from an explicit form type.
//   •  Client.Append stamps “timestamp” (unless present), validates the
//      path, and forwards to the Store.
//   •  Store failures come back as *WriteError so the workflow can show the
//      provider message verbatim.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package record

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TimestampField is the payload key holding the submission instant.
const TimestampField = "timestamp"

// TimeLayout is ISO-8601 in UTC with millisecond precision.  Values sort
// lexically in submission order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Fields is the flat field-name → value payload of one record.
type Fields map[string]string

// Keys returns the field names in sorted order so adapters write a stable
// layout.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy so callers never share the map with a store.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ID identifies one appended record.  Every backend hands out IDs that sort
// in append order within a path.
type ID string

// Store is implemented by every backend.
type Store interface {
	Append(ctx context.Context, path string, fields Fields) (ID, error)
}

// Appender is what the workflow depends on.  *Client satisfies it.
type Appender interface {
	Append(ctx context.Context, path string, fields Fields) (ID, error)
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// ErrInvalidPath is returned for empty or malformed collection paths.
var ErrInvalidPath = errors.New("record: invalid collection path")

// WriteError reports a failed append.  Message is safe to show to users; it
// carries the backend's own text when there is one.
type WriteError struct {
	Path    string
	Message string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("append %s: %s", e.Path, e.Message)
}

func (e *WriteError) Unwrap() error { return e.Err }

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// Client stamps, checks, and forwards appends to a Store.
type Client struct {
	store Store
	log   *zap.SugaredLogger
	now   func() time.Time
}

// Option tunes a Client.
type Option func(*Client)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient wraps store.  A nil logger falls back to zap.S().
func NewClient(store Store, log *zap.SugaredLogger, opts ...Option) *Client {
	if log == nil {
		log = zap.S()
	}
	c := &Client{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Append writes fields under path and returns the new record ID.
func (c *Client) Append(ctx context.Context, path string, fields Fields) (ID, error) {
	if err := CheckPath(path); err != nil {
		return "", &WriteError{Path: path, Message: err.Error(), Err: err}
	}

	payload := Stamp(fields, c.now())
	id, err := c.store.Append(ctx, path, payload)
	if err != nil {
		var we *WriteError
		if !errors.As(err, &we) {
			we = &WriteError{Path: path, Message: err.Error(), Err: err}
		}
		c.log.Errorw("record append failed", "path", path, "err", err)
		return "", we
	}

	c.log.Infow("record appended", "path", path, "id", id, "fields", len(payload))
	return id, nil
}

// Stamp returns a copy of fields with TimestampField set to now, unless the
// caller already supplied one.
func Stamp(fields Fields, now time.Time) Fields {
	out := fields.Clone()
	if out[TimestampField] == "" {
		out[TimestampField] = FormatTime(now)
	}
	return out
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

// ParseTime is the inverse of FormatTime.
func ParseTime(s string) (time.Time, error) { return time.Parse(TimeLayout, s) }

// CheckPath accepts slash-separated, non-empty segments without dots or
// whitespace.  Dots would collide with key separators in several backends.
func CheckPath(path string) error {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return ErrInvalidPath
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || strings.ContainsAny(seg, ". \t\n#$[]") {
			return ErrInvalidPath
		}
	}
	return nil
}
