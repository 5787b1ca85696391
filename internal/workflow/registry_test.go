package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(h *harness, ttl time.Duration, max int) *Registry {
	return NewRegistry(DefaultDefinitions(), *h.deps, ttl, max)
}

func TestRegistry_FormIsPerClientAndKind(t *testing.T) {
	h := newHarness()
	r := newTestRegistry(h, 0, 0)

	a1, err := r.Form("alice", Contact)
	require.NoError(t, err)
	a2, _ := r.Form("alice", Contact)
	b1, _ := r.Form("bob", Contact)
	an, _ := r.Form("alice", Newsletter)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b1)
	assert.NotSame(t, a1, an)
	assert.Equal(t, 3, r.Len())

	_, err = r.Form("alice", Kind("careers"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRegistry_Kinds(t *testing.T) {
	r := newTestRegistry(newHarness(), 0, 0)
	assert.Equal(t, []Kind{Contact, Distributorship, FloatingContact, Newsletter}, r.Kinds())
}

func TestRegistry_EvictIdle(t *testing.T) {
	h := newHarness()
	r := newTestRegistry(h, 10*time.Minute, 0)

	old, _ := r.Form("alice", Contact)
	h.clock.Advance(9 * time.Minute)
	_, _ = r.Form("bob", Contact)
	h.clock.Advance(2 * time.Minute)

	r.Evict()
	assert.Equal(t, 1, r.Len())

	fresh, _ := r.Form("alice", Contact)
	assert.NotSame(t, old, fresh)
}

func TestRegistry_EvictLRU(t *testing.T) {
	h := newHarness()
	r := newTestRegistry(h, time.Hour, 2)

	first, _ := r.Form("a", Contact)
	for _, c := range []string{"b", "c"} {
		h.clock.Advance(time.Second)
		_, _ = r.Form(c, Contact)
	}

	r.Evict()
	assert.Equal(t, 2, r.Len())
	again, _ := r.Form("a", Contact)
	assert.NotSame(t, first, again)
}

func TestRegistry_BusyFormSurvivesEviction(t *testing.T) {
	h := newHarness()
	gate := newGatedStore()
	h.deps.Records = gate
	r := newTestRegistry(h, time.Minute, 0)

	f, _ := r.Form("alice", Newsletter)
	require.NoError(t, f.Set(map[string]string{"email": "a@b.com"}))

	done := make(chan struct{})
	go func() {
		_, _ = f.Submit(context.Background(), nil)
		close(done)
	}()
	<-gate.entered

	h.clock.Advance(time.Hour)
	r.Evict()
	assert.Equal(t, 1, r.Len())

	close(gate.release)
	<-done
	h.clock.Advance(time.Hour)
	r.Evict()
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_EvictedFormRefusesWork(t *testing.T) {
	h := newHarness()
	r := newTestRegistry(h, time.Minute, 0)

	stale, _ := r.Form("alice", Newsletter)
	h.clock.Advance(2 * time.Minute)
	r.Evict()

	_, err := stale.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEvicted)
	assert.ErrorIs(t, stale.Set(map[string]string{"email": "a@b.com"}), ErrEvicted)
	assert.Zero(t, h.mem.Count())
}

func TestRegistry_RetiredFormIsReplaced(t *testing.T) {
	h := newHarness()
	r := newTestRegistry(h, 0, 0)

	// Retired by the evictor but still in the map.
	stale, _ := r.Form("alice", Newsletter)
	require.True(t, stale.retire())

	fresh, err := r.Form("alice", Newsletter)
	require.NoError(t, err)
	assert.NotSame(t, stale, fresh)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SubmitMovesPastEvictedInstance(t *testing.T) {
	h := newHarness()
	r := newTestRegistry(h, 0, 0)

	stale, _ := r.Form("alice", Newsletter)
	require.True(t, stale.retire())

	f, res, err := r.Submit(context.Background(), "alice", Newsletter, map[string]string{"email": "a@b.com"}, nil)
	require.NoError(t, err)
	assert.NotSame(t, stale, f)
	assert.Equal(t, Succeeded, res.State)
	assert.Len(t, h.mem.List("newsletterSubscriptions"), 1)
}

func TestRegistry_RetireRefusesBusyForm(t *testing.T) {
	h := newHarness()
	gate := newGatedStore()
	h.deps.Records = gate
	r := newTestRegistry(h, 0, 0)

	f, err := r.Set("alice", Newsletter, map[string]string{"email": "a@b.com"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_, _ = f.Submit(context.Background(), nil)
		close(done)
	}()
	<-gate.entered

	assert.False(t, f.retire())
	close(gate.release)
	<-done
	assert.True(t, f.retire())
}
