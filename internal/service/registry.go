package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartcity/weatherwidget/internal/metrics"
)

const pruneInterval = time.Minute

type registryEntry struct {
	widget   *Widget
	lastSeen time.Time
}

// WidgetRegistry keeps one widget per browser session
type WidgetRegistry struct {
	svc *WidgetService
	ttl time.Duration

	mu        sync.Mutex
	widgets   map[string]*registryEntry
	lastPrune time.Time
}

// NewWidgetRegistry creates a registry; sessions idle longer than ttl are dropped.
// A ttl of zero keeps sessions forever.
func NewWidgetRegistry(svc *WidgetService, ttl time.Duration) *WidgetRegistry {
	return &WidgetRegistry{
		svc:     svc,
		ttl:     ttl,
		widgets: make(map[string]*registryEntry),
	}
}

// Get returns the widget for a session ID, creating a fresh session when the
// ID is empty, malformed or unknown. created reports whether that happened.
func (r *WidgetRegistry) Get(id string) (w *Widget, created bool) {
	now := r.svc.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked(now)

	if _, err := uuid.Parse(id); err == nil {
		if e, ok := r.widgets[id]; ok {
			e.lastSeen = now
			return e.widget, false
		}
	}

	w = r.svc.NewWidget(uuid.NewString())
	r.widgets[w.ID()] = &registryEntry{widget: w, lastSeen: now}
	metrics.SetSessions(len(r.widgets))
	return w, true
}

// Len returns the number of live sessions
func (r *WidgetRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.widgets)
}

func (r *WidgetRegistry) pruneLocked(now time.Time) {
	if r.ttl <= 0 || now.Sub(r.lastPrune) < pruneInterval {
		return
	}
	r.lastPrune = now
	for id, e := range r.widgets {
		if now.Sub(e.lastSeen) > r.ttl {
			delete(r.widgets, id)
		}
	}
	metrics.SetSessions(len(r.widgets))
}
