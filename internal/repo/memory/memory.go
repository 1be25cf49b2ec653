package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hamed0406/routerwatch/internal/domain"
	"github.com/hamed0406/routerwatch/internal/repo"
)

// DefaultCapacity bounds the history kept by New(0).
const DefaultCapacity = 500

var _ repo.OutageStore = (*Store)(nil)

// Store keeps the most recent outages in process memory. History is lost on restart.
type Store struct {
	mu       sync.RWMutex
	outages  []domain.Outage // oldest first
	capacity int
}

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		outages:  make([]domain.Outage, 0, 16),
		capacity: capacity,
	}
}

func (m *Store) Append(ctx context.Context, o *domain.Outage) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outages = append(m.outages, *o)
	if over := len(m.outages) - m.capacity; over > 0 {
		m.outages = append(m.outages[:0], m.outages[over:]...)
	}
	return nil
}

func (m *Store) List(ctx context.Context, limit int) ([]domain.Outage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.outages)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Outage, 0, n)
	for i := len(m.outages) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.outages[i])
	}
	return out, nil
}
