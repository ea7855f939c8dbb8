package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Store. Entries are lost on exit.
type Memory struct {
	mu       sync.RWMutex
	entries  []Entry
	statuses map[string]Status
	nextID   int64
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		statuses: make(map[string]Status),
		nextID:   1,
	}
}

// SetPlateStatus registers plate with the given status.
func (m *Memory) SetPlateStatus(plate string, s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[plate] = s
}

// LastEntry returns the newest entry for plate, or nil.
func (m *Memory) LastEntry(ctx context.Context, plate string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last *Entry
	for i := range m.entries {
		e := &m.entries[i]
		if e.Plate != plate {
			continue
		}
		if last == nil || !e.LoggedAt.Before(last.LoggedAt) {
			last = e
		}
	}
	if last == nil {
		return nil, nil
	}
	found := *last
	return &found, nil
}

// InsertEntry appends a copy of e and assigns its ID.
func (m *Memory) InsertEntry(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = m.nextID
	m.nextID++
	m.entries = append(m.entries, *e)
	return nil
}

// PlateStatus returns the status set with SetPlateStatus, or Unregistered.
func (m *Memory) PlateStatus(ctx context.Context, plate string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Unregistered, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.statuses[plate]; ok {
		return s, nil
	}
	return Unregistered, nil
}

// ListEntries returns copies of the matching entries, newest first.
func (m *Memory) ListEntries(ctx context.Context, f Filter) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	matched := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if strings.Contains(e.Plate, f.Plate) {
			matched = append(matched, e)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].LoggedAt.Equal(matched[j].LoggedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].LoggedAt.After(matched[j].LoggedAt)
	})
	if n := f.limit(); len(matched) > n {
		matched = matched[:n]
	}
	return matched, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
