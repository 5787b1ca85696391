// internal/workflow/registry.go
//
// Registry lazily creates form instances per (client, kind), stores them in
// a sync.Map, and evicts them on idle TTL or LRU pressure.  Every
// EvictInterval the eviction pass removes:
//
//   - instances idle longer than idleTTL
//   - least-recently-used instances when the map exceeds maxEntries
//
// Busy instances are never evicted.  An evicted instance is retired under
// its own lock first, so a request still holding it gets ErrEvicted and
// Form hands out a fresh instance instead.  Each eviction updates
// Prometheus counters.
package workflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/yanizio/laxmi/internal/identity"
	"github.com/yanizio/laxmi/internal/metrics"
)

// Static defaults.  Override via config.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 10000
	EvictInterval = time.Minute
)

type formKey struct {
	client string
	kind   Kind
}

// Registry owns every live form instance.
type Registry struct {
	defs       map[Kind]*Definition
	deps       *Deps
	m          sync.Map // formKey → *Form
	idleTTL    time.Duration
	maxEntries int
}

// NewRegistry returns a Registry serving defs.  Zero idleTTL or maxEntries
// use the package defaults.
func NewRegistry(defs map[Kind]*Definition, deps Deps, idleTTL time.Duration, maxEntries int) *Registry {
	deps.defaults()
	if idleTTL <= 0 {
		idleTTL = IdleTTL
	}
	if maxEntries <= 0 {
		maxEntries = MaxEntries
	}
	return &Registry{
		defs:       defs,
		deps:       &deps,
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
	}
}

// Form returns clientID’s instance of kind, creating it on first use.
func (r *Registry) Form(clientID string, kind Kind) (*Form, error) {
	def, ok := r.defs[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	k := formKey{client: clientID, kind: kind}
	for {
		v, ok := r.m.Load(k)
		if !ok {
			var loaded bool
			v, loaded = r.m.LoadOrStore(k, NewForm(def, r.deps))
			if !loaded {
				metrics.ActiveForms.Inc()
			}
		}
		f := v.(*Form)
		if !f.isRetired() {
			return f, nil
		}
		// Retired but not yet deleted by the evictor.
		if r.m.CompareAndDelete(k, f) {
			metrics.ActiveForms.Dec()
		}
	}
}

// attempts bounds the retries of Set and Submit across evictions.
const attempts = 3

// Set merges values into clientID’s instance of kind and returns it.
func (r *Registry) Set(clientID string, kind Kind, values map[string]string) (*Form, error) {
	for i := 0; ; i++ {
		f, err := r.Form(clientID, kind)
		if err != nil {
			return nil, err
		}
		err = f.Set(values)
		if errors.Is(err, ErrEvicted) && i < attempts-1 {
			continue
		}
		return f, err
	}
}

// Submit applies values, when any, and submits clientID’s instance of
// kind.  An instance evicted between lookup and use is replaced and the
// call repeated.
func (r *Registry) Submit(ctx context.Context, clientID string, kind Kind, values map[string]string, sess *identity.Session) (*Form, Result, error) {
	for i := 0; ; i++ {
		f, err := r.Form(clientID, kind)
		if err != nil {
			return nil, Result{}, err
		}
		if len(values) > 0 {
			if err := f.Set(values); err != nil {
				if errors.Is(err, ErrEvicted) && i < attempts-1 {
					continue
				}
				return f, Result{State: f.Snapshot().State}, err
			}
		}
		res, err := f.Submit(ctx, sess)
		if errors.Is(err, ErrEvicted) && i < attempts-1 {
			continue
		}
		return f, res, err
	}
}

// Kinds lists the form kinds this registry serves.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.defs))
	for k := range r.defs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len reports how many instances are held.
func (r *Registry) Len() int {
	n := 0
	r.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

// Run evicts every EvictInterval until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	t := time.NewTicker(EvictInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			r.Evict()
		}
	}
}

// Evict runs one idle pass and one LRU pass.
func (r *Registry) Evict() {
	now := r.deps.Clock.Now().UnixNano()
	var count int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	r.m.Range(func(key, value any) bool {
		count++
		f := value.(*Form)
		idle := time.Duration(now - f.lastSeen.Load())
		if idle > r.idleTTL && r.drop(key, f) {
			count--
			r.deps.Log.Debugw("form evicted", "idle", idle.Truncate(time.Second))
		}
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if count <= r.maxEntries {
		return
	}
	type kv struct {
		key any
		f   *Form
		at  int64
	}
	var all []kv
	r.m.Range(func(key, value any) bool {
		f := value.(*Form)
		all = append(all, kv{key: key, f: f, at: f.lastSeen.Load()})
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
	for i := 0; i < len(all)-r.maxEntries; i++ {
		if r.drop(all[i].key, all[i].f) {
			r.deps.Log.Debugw("form evicted (LRU pressure)")
		}
	}
}

// drop retires f and removes it.  It reports false for busy instances.
func (r *Registry) drop(key any, f *Form) bool {
	if !f.retire() {
		return false
	}
	if r.m.CompareAndDelete(key, f) {
		metrics.ActiveForms.Dec()
	}
	metrics.FormEvictTotal.Inc()
	return true
}
