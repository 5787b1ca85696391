// components/account/events.go
//
// Laxmi session events – one websocket per page, pushing sign-in state.
//
// Context
//   The page opens GET /api/session/events once and keeps it for its
//   lifetime.  The handler subscribes to session.Watcher under the
//   browser’s client ID; the first frame is the current View, then one
//   frame per sign-in or sign-out from any tab of that browser.  Closing
//   the socket cancels the subscription.
//
// Notes
//   • Listener must not block, so frames go through a small buffered
//     channel; a slow socket drops intermediate frames, never the socket.
//   • Incoming frames are read and discarded; reading is how close frames
//     are noticed.
//   • http.Server.Shutdown does not track hijacked connections.  Close
//     (called through component.Registry.Close) sends every open socket a
//     going-away close frame and waits for the handlers to return.
//
//------------------------------------------------------------------------------

package account

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	ws "github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/laxmi/internal/auth"
	"github.com/yanizio/laxmi/internal/component"
	"github.com/yanizio/laxmi/internal/identity"
	"github.com/yanizio/laxmi/internal/session"
)

var (
	_ component.Component = (*Events)(nil)
	_ component.Closer    = (*Events)(nil)
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Events serves /api/session.
type Events struct {
	watcher *session.Watcher
	origins []string
	log     *zap.SugaredLogger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	conns  sync.WaitGroup
}

// NewEvents returns the session events component.  origins are host
// patterns accepted besides same-origin.
func NewEvents(w *session.Watcher, origins []string, log *zap.SugaredLogger) *Events {
	if log == nil {
		log = zap.S()
	}
	return &Events{watcher: w, origins: origins, log: log, done: make(chan struct{})}
}

// Close tells every open socket the server is going away and waits for
// their handlers to finish.  Later upgrade requests get 503.
func (e *Events) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.done)
	e.mu.Unlock()

	e.conns.Wait()
	return nil
}

// track registers one socket handler; false once Close has begun.
func (e *Events) track() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.conns.Add(1)
	return true
}

// Name returns the canonical component key.
func (e *Events) Name() string { return "session" }

// Routes builds the router mounted at “/api/session”.
func (e *Events) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/events", e.handleEvents)
	return r
}

func (e *Events) handleEvents(w http.ResponseWriter, r *http.Request) {
	client, ok := auth.ClientID(r.Context())
	if !ok || client == "" {
		component.BadRequest(w, "missing client id")
		return
	}
	if !e.track() {
		component.Error(w, http.StatusServiceUnavailable, "shutting_down", "Server is shutting down.")
		return
	}
	defer e.conns.Done()

	// Server-wide read and write deadlines would cut a long-lived socket.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: e.origins})
	if err != nil {
		e.log.Debugw("websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	send := make(chan []byte, sendBufferSize)
	cancel := e.watcher.Subscribe(client, auth.SessionFrom(r.Context()), func(sess *identity.Session) {
		b, err := json.Marshal(ViewOf(sess))
		if err != nil {
			return
		}
		select {
		case send <- b:
		default:
			e.log.Debugw("session frame dropped", "client", client)
		}
	})
	defer cancel()

	// ctx ends when the peer goes away; cancelling it also tears the
	// connection down, so shutdown goes through e.done instead.
	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	go func() {
		defer stop()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg := <-send:
			if err := conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case <-e.done:
			conn.Close(ws.StatusGoingAway, "server shutting down")
			return
		case <-ctx.Done():
			conn.Close(ws.StatusNormalClosure, "")
			return
		}
	}
}
