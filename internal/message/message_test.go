package message

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestQueue_RelaysToWebhook(t *testing.T) {
	var (
		mu  sync.Mutex
		got []Job
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var j Job
		if err := json.NewDecoder(r.Body).Decode(&j); err != nil {
			t.Errorf("decode: %v", err)
		}
		mu.Lock()
		got = append(got, j)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	q := New(Options{Size: 4, WebhookURL: srv.URL, Log: zap.NewNop().Sugar()})
	q.Dispatch(context.Background(), "https://wa.me/1?text=a")
	q.Dispatch(context.Background(), "https://wa.me/1?text=b")
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0].URL != "https://wa.me/1?text=a" || got[1].URL != "https://wa.me/1?text=b" {
		t.Fatalf("relayed = %+v", got)
	}
}

func TestQueue_DropsWhenFullOrClosed(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()

	q := New(Options{Size: 1, WebhookURL: srv.URL, Log: zap.NewNop().Sugar()})
	// Never blocks regardless of how many are pushed.
	for i := 0; i < 10; i++ {
		q.Dispatch(context.Background(), "u")
	}
	close(block)
	_ = q.Close()

	// After Close, Dispatch is a silent no-op.
	q.Dispatch(context.Background(), "late")
	_ = q.Close()
}
