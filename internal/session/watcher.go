// internal/session/watcher.go
//
// Laxmi – session-change event source.
//
// Context
//   A page wants to know when its browser signs in or out, including from
//   another tab.  Watcher is a subscribable source keyed by client ID:
//   Subscribe delivers the current session (or nil) immediately, then every
//   later Publish for that client, until the returned cancel func runs.
//   State for a client is dropped when its last subscriber leaves.
//
// Notes
//   • Each subscription is delivered to in order; a Publish that races a
//     Subscribe is seen after the initial value, never before.
//   • Listeners run on the publisher’s goroutine and must not block.
//
//------------------------------------------------------------------------------

package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/laxmi/internal/identity"
	"github.com/yanizio/laxmi/internal/metrics"
)

// Listener receives the session for one client; nil means signed out.
type Listener func(*identity.Session)

type subscription struct {
	mu     sync.Mutex
	fn     Listener
	closed bool
}

func (s *subscription) deliver(sess *identity.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.fn(sess)
	}
}

type clientState struct {
	current *identity.Session
	subs    map[uint64]*subscription
}

// Watcher fans session changes out to subscribers.
type Watcher struct {
	mu      sync.Mutex
	clients map[string]*clientState
	nextID  uint64
	log     *zap.SugaredLogger
}

// NewWatcher returns an empty Watcher.
func NewWatcher(log *zap.SugaredLogger) *Watcher {
	if log == nil {
		log = zap.S()
	}
	return &Watcher{clients: make(map[string]*clientState), log: log}
}

// Subscribe registers fn for clientID.  current seeds the client’s state
// when it has no other subscribers.  fn is called once before Subscribe
// returns.
func (w *Watcher) Subscribe(clientID string, current *identity.Session, fn Listener) (cancel func()) {
	sub := &subscription{fn: fn}
	sub.mu.Lock() // hold back publishes until the initial value is out

	w.mu.Lock()
	st, ok := w.clients[clientID]
	if !ok {
		st = &clientState{current: current, subs: make(map[uint64]*subscription)}
		w.clients[clientID] = st
	}
	w.nextID++
	id := w.nextID
	st.subs[id] = sub
	initial := st.current
	w.mu.Unlock()

	metrics.SessionSubscribers.Inc()
	fn(initial)
	sub.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.mu.Lock()
			sub.closed = true
			sub.mu.Unlock()

			w.mu.Lock()
			if st, ok := w.clients[clientID]; ok {
				delete(st.subs, id)
				if len(st.subs) == 0 {
					delete(w.clients, clientID)
				}
			}
			w.mu.Unlock()
			metrics.SessionSubscribers.Dec()
		})
	}
}

// Publish records sess as clientID’s session and notifies its subscribers.
// Clients without subscribers are ignored.
func (w *Watcher) Publish(clientID string, sess *identity.Session) {
	w.mu.Lock()
	st, ok := w.clients[clientID]
	if !ok {
		w.mu.Unlock()
		return
	}
	st.current = sess
	subs := make([]*subscription, 0, len(st.subs))
	for _, s := range st.subs {
		subs = append(subs, s)
	}
	w.mu.Unlock()

	w.log.Debugw("session change", "client", clientID, "signedIn", sess != nil, "subscribers", len(subs))
	for _, s := range subs {
		s.deliver(sess)
	}
}

// Subscribers reports how many subscriptions clientID has.
func (w *Watcher) Subscribers(clientID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if st, ok := w.clients[clientID]; ok {
		return len(st.subs)
	}
	return 0
}
