package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartcity/weatherwidget/internal/domain"
	"github.com/smartcity/weatherwidget/internal/metrics"
)

// User-facing notification texts
const (
	MsgEmptyQuery   = "Please enter a location"
	MsgUpdated      = "Weather updated successfully!"
	MsgNotFound     = "Location not found. Please try again."
	NotificationTTL = 3 * time.Second
)

// Fetcher returns the current conditions for a free-text location
type Fetcher interface {
	FetchWeather(ctx context.Context, query string) (domain.WeatherRecord, error)
}

// Clock abstracts time for tests
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// WidgetService owns what every widget session shares: the fetcher,
// the lookup log and the default location.
type WidgetService struct {
	fetcher         Fetcher
	repo            LookupRepository
	defaultLocation string
	clock           Clock

	wgBg sync.WaitGroup // tracks background lookup log writes
}

// NewWidgetService creates a widget service; clock may be nil
func NewWidgetService(fetcher Fetcher, repo LookupRepository, defaultLocation string, clock Clock) *WidgetService {
	if clock == nil {
		clock = RealClock{}
	}
	return &WidgetService{
		fetcher:         fetcher,
		repo:            repo,
		defaultLocation: defaultLocation,
		clock:           clock,
	}
}

// WaitBackground blocks until all lookup log writes complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *WidgetService) WaitBackground() {
	s.wgBg.Wait()
}

// Weather fetches and renders a location without touching any session
func (s *WidgetService) Weather(ctx context.Context, query string, unit domain.Unit) (domain.WeatherRecord, domain.DisplayFields, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return domain.WeatherRecord{}, domain.DisplayFields{}, domain.ErrEmptyQuery
	}
	rec, err := s.lookup(ctx, domain.TriggerDirect, "", q)
	if err != nil {
		return domain.WeatherRecord{}, domain.DisplayFields{}, err
	}
	return rec, Render(rec, unit, s.clock.Now()), nil
}

// lookup performs one provider call, records it and returns its result
func (s *WidgetService) lookup(ctx context.Context, trigger domain.Trigger, sessionID, query string) (domain.WeatherRecord, error) {
	start := time.Now()
	rec, err := s.fetcher.FetchWeather(ctx, query)
	outcome := domain.OutcomeOf(err)
	metrics.ObserveLookup(trigger, outcome, time.Since(start))

	entry := domain.Lookup{
		ID:        uuid.NewString(),
		SessionID: strings.Clone(sessionID),
		Query:     strings.Clone(query), // outlives the request buffer
		Trigger:   trigger,
		Outcome:   outcome,
		Timestamp: s.clock.Now(),
	}
	if err == nil {
		r := rec
		entry.Record = &r
	}

	if s.repo != nil {
		s.wgBg.Add(1)
		go func() {
			defer s.wgBg.Done()
			bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if saveErr := s.repo.SaveLookup(bgCtx, entry); saveErr != nil {
				log.Printf("Failed to save lookup: %v", saveErr)
			}
		}()
	}

	return rec, err
}

// Widget is the interaction controller of one browser session
type Widget struct {
	id  string
	svc *WidgetService

	mu           sync.Mutex
	unit         domain.Unit
	record       *domain.WeatherRecord
	display      domain.DisplayFields
	input        string
	inFlight     int
	issued       uint64
	applied      uint64
	notification *domain.Notification
	pulse        int
	tilt         domain.Transform
}

// NewWidget creates a session widget in its initial Celsius state
func (s *WidgetService) NewWidget(id string) *Widget {
	return &Widget{
		id:      id,
		svc:     s,
		unit:    domain.Celsius,
		display: domain.DisplayFields{UnitLabel: domain.Celsius.Label()},
		tilt:    RestTransform(),
	}
}

// ID returns the session the widget belongs to
func (w *Widget) ID() string { return w.id }

// SetInput stores the text typed into the search box
func (w *Widget) SetInput(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.input = text
}

// Search runs the search trigger: validate, fetch, then render or notify.
// It returns the fetch error, or domain.ErrEmptyQuery when nothing was sent.
func (w *Widget) Search(ctx context.Context, query string) error {
	q := strings.TrimSpace(query)

	w.mu.Lock()
	if q == "" {
		w.notify(MsgEmptyQuery, domain.SeverityError)
		w.mu.Unlock()
		return domain.ErrEmptyQuery
	}
	seq := w.begin()
	w.input = ""
	w.mu.Unlock()

	rec, err := w.svc.lookup(ctx, domain.TriggerSearch, w.id, q)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.finish(seq) {
		log.Printf("Discarding stale search %d for %q (newest applied %d)", seq, q, w.applied)
		return err
	}
	if err != nil {
		log.Printf("Search for %q failed: %v", q, err)
		w.notify(MsgNotFound, domain.SeverityError)
		return err
	}
	w.apply(rec)
	w.notify(MsgUpdated, domain.SeveritySuccess)
	w.pulse++
	return nil
}

// Load runs the page-load trigger for the default location.
// Failures are logged only.
func (w *Widget) Load(ctx context.Context) error {
	w.mu.Lock()
	seq := w.begin()
	w.mu.Unlock()

	rec, err := w.svc.lookup(ctx, domain.TriggerLoad, w.id, w.svc.defaultLocation)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.finish(seq) {
		log.Printf("Discarding stale default load %d (newest applied %d)", seq, w.applied)
		return err
	}
	if err != nil {
		if errors.Is(err, domain.ErrLocationNotFound) {
			log.Printf("Default location %q not recognised by provider", w.svc.defaultLocation)
		} else {
			log.Printf("Could not load default location: %v", err)
		}
		return err
	}
	w.apply(rec)
	return nil
}

// ToggleUnit flips Celsius/Fahrenheit and repaints the temperature slots
func (w *Widget) ToggleUnit() domain.Unit {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.unit == domain.Celsius {
		w.unit = domain.Fahrenheit
	} else {
		w.unit = domain.Celsius
	}
	w.display.UnitLabel = w.unit.Label()
	if w.record != nil {
		w.display = RenderTemperature(w.display, *w.record, w.unit)
	}
	return w.unit
}

// Tilt follows the pointer over the card; ignored while loading
func (w *Widget) Tilt(x, y, width, height float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight > 0 {
		return
	}
	w.tilt = TiltTransform(x, y, width, height)
}

// ResetTilt returns the card to rest when the pointer leaves it
func (w *Widget) ResetTilt() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tilt = RestTransform()
}

// Snapshot returns the full view state; expired notifications are omitted
func (w *Widget) Snapshot() domain.WidgetSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	loading := w.inFlight > 0
	snap := domain.WidgetSnapshot{
		Display:        w.display,
		HasRecord:      w.record != nil,
		Input:          w.input,
		Loading:        loading,
		SearchDisabled: loading,
		CardOpacity:    1,
		Unit:           w.unit,
		Toggle:         toggleState(w.unit),
		Tilt:           w.tilt,
		AnimationPulse: w.pulse,
	}
	if loading {
		snap.CardOpacity = 0.5
	}
	if w.record != nil {
		r := *w.record
		snap.Record = &r
	}
	if n := w.notification; n != nil && w.svc.clock.Now().Before(n.ExpiresAt) {
		cp := *n
		snap.Notification = &cp
	}
	return snap
}

// begin registers an in-flight fetch and returns its sequence number
func (w *Widget) begin() uint64 {
	w.inFlight++
	w.issued++
	return w.issued
}

// finish ends an in-flight fetch and reports whether its result may be applied
func (w *Widget) finish(seq uint64) bool {
	w.inFlight--
	if seq < w.applied {
		return false
	}
	w.applied = seq
	return true
}

func (w *Widget) apply(rec domain.WeatherRecord) {
	w.record = &rec
	w.display = Render(rec, w.unit, w.svc.clock.Now())
}

// notify replaces the active notification and restarts its window
func (w *Widget) notify(msg string, sev domain.Severity) {
	icon := "fas fa-check-circle"
	if sev == domain.SeverityError {
		icon = "fas fa-exclamation-circle"
	}
	w.notification = &domain.Notification{
		Message:   msg,
		Severity:  sev,
		Icon:      icon,
		ExpiresAt: w.svc.clock.Now().Add(NotificationTTL),
	}
}

func toggleState(u domain.Unit) domain.ToggleState {
	if u == domain.Fahrenheit {
		return domain.ToggleState{Active: u, SliderOffsetPx: 40}
	}
	return domain.ToggleState{Active: u}
}
