// internal/message/message.go
//
// Laxmi – outbound dispatch queue.
//
// Context
//   After a submission is stored the workflow hands the wa.me deep link to
//   a Dispatcher.  The browser opens the link itself; on the server side
//   Queue records the dispatch and, when a webhook URL is configured,
//   relays it so the sales desk sees the lead even if the visitor closes
//   the WhatsApp tab.  Dispatch never blocks and never fails the caller:
//   when the buffer is full the job is dropped and counted.
//
// Workflow
//   •  New(opts) starts one worker goroutine.
//   •  Dispatch(ctx, url) enqueues without blocking.
//   •  Close() stops intake, drains the buffer, and waits for the worker.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package message

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/laxmi/internal/metrics"
)

// Job is one queued dispatch.
type Job struct {
	URL      string    `json:"url"`
	QueuedAt time.Time `json:"queued_at"`
}

// Options configures a Queue.
type Options struct {
	Size       int                // buffer length, default 64
	WebhookURL string             // optional relay target
	Client     *http.Client       // default: 10s timeout
	Log        *zap.SugaredLogger // default: zap.S()
}

// Queue is a buffered, single-worker dispatcher.  It satisfies
// notify.Dispatcher.
type Queue struct {
	jobs    chan Job
	webhook string
	client  *http.Client
	log     *zap.SugaredLogger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// New starts a Queue.
func New(opts Options) *Queue {
	if opts.Size <= 0 {
		opts.Size = 64
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Log == nil {
		opts.Log = zap.S()
	}
	q := &Queue{
		jobs:    make(chan Job, opts.Size),
		webhook: opts.WebhookURL,
		client:  opts.Client,
		log:     opts.Log,
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// Dispatch enqueues url.  It returns immediately; full or closed queues drop
// the job.
func (q *Queue) Dispatch(_ context.Context, url string) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.DispatchTotal.WithLabelValues("dropped").Inc()
		return
	}
	select {
	case q.jobs <- Job{URL: url, QueuedAt: time.Now().UTC()}:
		metrics.DispatchTotal.WithLabelValues("queued").Inc()
	default:
		metrics.DispatchTotal.WithLabelValues("dropped").Inc()
		q.log.Warnw("dispatch queue full, dropping", "size", cap(q.jobs))
	}
}

// Close stops intake and waits until every queued job has been handled.
func (q *Queue) Close() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	<-q.done
	return nil
}

func (q *Queue) run() {
	defer close(q.done)
	for job := range q.jobs {
		q.log.Infow("deep link dispatched", "url_len", len(job.URL))
		if q.webhook == "" {
			continue
		}
		if err := q.relay(job); err != nil {
			metrics.DispatchTotal.WithLabelValues("relay_error").Inc()
			q.log.Warnw("webhook relay failed", "err", err)
			continue
		}
		metrics.DispatchTotal.WithLabelValues("relayed").Inc()
	}
}

// relay POSTs job as JSON.  No retry.
func (q *Queue) relay(job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), q.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.webhook, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
