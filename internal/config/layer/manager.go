package layer

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Manager builds snapshots from loaded sources and holds the current one.
// Publishing is a single atomic pointer swap; Current never blocks.
type Manager struct {
	merger  Merger
	current atomic.Pointer[Snapshot]
}

// NewManager creates a new manager. Until the first Publish, Current
// returns an empty snapshot.
func NewManager(merger Merger) *Manager {
	m := &Manager{merger: merger}
	m.current.Store(&Snapshot{
		Merged:   map[string]any{},
		LoadedAt: time.Now(),
	})
	return m
}

// Build folds sources into a new, unpublished snapshot.
func (m *Manager) Build(sources []*Source, failures []error) (*Snapshot, error) {
	merged, err := m.merger.Fold(sources)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		ID:       uuid.NewString(),
		Sources:  sources,
		Merged:   merged,
		Failures: failures,
		LoadedAt: time.Now(),
	}, nil
}

// Publish makes s the current snapshot and returns the previous one.
func (m *Manager) Publish(s *Snapshot) *Snapshot {
	return m.current.Swap(s)
}

// Current returns the current snapshot.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}
