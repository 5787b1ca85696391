package record

import (
	"context"
	"fmt"
	"sync"
)

// Entry is one stored record as seen by Memory.List.
type Entry struct {
	ID     ID
	Fields Fields
}

// Memory keeps records in process.  Used by tests and by the “memory”
// store driver during local development.  Safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	seq  uint64
	data map[string][]Entry

	// FailWith, when non-nil, makes every Append fail with this error.
	FailWith error
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]Entry)}
}

// Append stores a copy of fields under path.
func (m *Memory) Append(_ context.Context, path string, fields Fields) (ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return "", m.FailWith
	}

	m.seq++
	id := ID(fmt.Sprintf("m%012d", m.seq)) // zero-padded so IDs sort in order
	m.data[path] = append(m.data[path], Entry{ID: id, Fields: fields.Clone()})
	return id, nil
}

// List returns a copy of everything appended under path, oldest first.
func (m *Memory) List(path string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.data[path]
	out := make([]Entry, len(src))
	for i, e := range src {
		out[i] = Entry{ID: e.ID, Fields: e.Fields.Clone()}
	}
	return out
}

// Count reports the total number of appends across all paths.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, es := range m.data {
		n += len(es)
	}
	return n
}
