package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.FixedZone("IST", 5*3600+1800))

func newTestClient(store Store) *Client {
	return NewClient(store, zap.NewNop().Sugar(), WithClock(func() time.Time { return fixedNow }))
}

func TestClientAppend_StampsTimestamp(t *testing.T) {
	mem := NewMemory()
	c := newTestClient(mem)

	in := Fields{"name": "A", "email": "a@b.com"}
	id, err := c.Append(context.Background(), "contactMessages", in)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}
	if _, ok := in[TimestampField]; ok {
		t.Fatal("caller map was mutated")
	}

	got := mem.List("contactMessages")
	if len(got) != 1 {
		t.Fatalf("stored %d records, want 1", len(got))
	}
	ts := got[0].Fields[TimestampField]
	if ts != "2025-03-14T03:56:53.589Z" {
		t.Fatalf("timestamp = %q", ts)
	}
	parsed, err := ParseTime(ts)
	if err != nil || !parsed.Equal(fixedNow) {
		t.Fatalf("timestamp does not round-trip: %v %v", parsed, err)
	}
	if len(got[0].Fields) != len(in)+1 {
		t.Fatalf("field set = %v", got[0].Fields)
	}
}

func TestClientAppend_KeepsExistingTimestamp(t *testing.T) {
	mem := NewMemory()
	c := newTestClient(mem)

	_, err := c.Append(context.Background(), "newsletterSubscriptions",
		Fields{"email": "a@b.com", TimestampField: "2020-01-01T00:00:00.000Z"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ts := mem.List("newsletterSubscriptions")[0].Fields[TimestampField]; ts != "2020-01-01T00:00:00.000Z" {
		t.Fatalf("timestamp overwritten: %q", ts)
	}
}

func TestClientAppend_WrapsStoreError(t *testing.T) {
	mem := NewMemory()
	mem.FailWith = errors.New("PERMISSION_DENIED: rules rejected write")
	c := newTestClient(mem)

	_, err := c.Append(context.Background(), "contactMessages", Fields{"name": "A"})
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("want *WriteError, got %T", err)
	}
	if we.Message != "PERMISSION_DENIED: rules rejected write" {
		t.Fatalf("message = %q", we.Message)
	}
	if !errors.Is(err, mem.FailWith) {
		t.Fatal("underlying error not unwrapped")
	}
}

func TestClientAppend_RejectsBadPath(t *testing.T) {
	mem := NewMemory()
	c := newTestClient(mem)

	for _, p := range []string{"", "/users", "users/", "users//info", "users/a.b/info"} {
		if _, err := c.Append(context.Background(), p, Fields{"x": "y"}); err == nil {
			t.Errorf("path %q accepted", p)
		}
	}
	if mem.Count() != 0 {
		t.Fatalf("bad paths reached the store: %d", mem.Count())
	}
}

func TestMemory_IDsSortInAppendOrder(t *testing.T) {
	mem := NewMemory()
	var prev ID
	for i := 0; i < 12; i++ {
		id, _ := mem.Append(context.Background(), "p", Fields{})
		if id <= prev {
			t.Fatalf("id %q not after %q", id, prev)
		}
		prev = id
	}
}

func TestFieldsKeysSorted(t *testing.T) {
	got := Fields{"b": "", "a": "", "c": ""}.Keys()
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("keys = %v", got)
	}
}
