package postgres

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smartcity/weatherwidget/internal/domain"
)

const memoryLimit = 500

// MemoryRepository implements domain.LookupRepository without a database.
// It keeps the most recent lookups only.
type MemoryRepository struct {
	mu      sync.RWMutex
	lookups []domain.Lookup
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{lookups: make([]domain.Lookup, 0, 64)}
}

// SaveLookup appends a lookup, dropping the oldest past the limit
func (r *MemoryRepository) SaveLookup(ctx context.Context, l domain.Lookup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, l)
	if len(r.lookups) > memoryLimit {
		r.lookups = r.lookups[len(r.lookups)-memoryLimit:]
	}
	return nil
}

// GetLookups returns lookups in [from, to], newest first
func (r *MemoryRepository) GetLookups(ctx context.Context, from, to time.Time) ([]domain.Lookup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Lookup, 0, len(r.lookups))
	for _, l := range r.lookups {
		if l.Timestamp.Before(from) || l.Timestamp.After(to) {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > queryLimit {
		out = out[:queryLimit]
	}
	return out, nil
}

// Health always returns nil in memory mode
func (r *MemoryRepository) Health(ctx context.Context) error {
	return nil
}
