package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/smartcity/weatherwidget/internal/domain"
	"github.com/smartcity/weatherwidget/internal/repository/postgres"
	"github.com/smartcity/weatherwidget/internal/service"
)

type fakeFetcher struct{}

func (fakeFetcher) FetchWeather(_ context.Context, query string) (domain.WeatherRecord, error) {
	switch query {
	case "London":
		return domain.WeatherRecord{Name: "London", Country: "UK", LocalTime: "2024-03-07 9:00", TempC: 8, FeelsLikeC: 6, Condition: "Overcast", WindKPH: 11, Humidity: 87}, nil
	case "Paris":
		return domain.WeatherRecord{Name: "Paris", Region: "Île-de-France", Country: "France", LocalTime: "2024-03-07 14:05", TempC: 11.6, FeelsLikeC: 9.4, Condition: "Partly cloudy", WindKPH: 13.3, Humidity: 71}, nil
	case "Broken":
		return domain.WeatherRecord{}, domain.ErrTransport
	}
	return domain.WeatherRecord{}, domain.ErrLocationNotFound
}

func newTestApp(t *testing.T) (*fiber.App, *service.WidgetService, *postgres.MemoryRepository) {
	t.Helper()
	repo := postgres.NewMemoryRepository()
	svc := service.NewWidgetService(fakeFetcher{}, repo, "London", nil)
	reg := service.NewWidgetRegistry(svc, time.Hour)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, svc, reg, repo)
	return app, svc, repo
}

type client struct {
	t       *testing.T
	app     *fiber.App
	session *nethttp.Cookie
}

func (c *client) do(method, path, body string) (*nethttp.Response, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		req.AddCookie(c.session)
	}

	resp, err := c.app.Test(req, -1)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie {
			c.session = ck
		}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (c *client) snapshot(method, path, body string) domain.WidgetSnapshot {
	c.t.Helper()
	resp, data := c.do(method, path, body)
	if resp.StatusCode != fiber.StatusOK {
		c.t.Fatalf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, data)
	}
	var snap domain.WidgetSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.t.Fatalf("%s %s: response is not a snapshot: %v", method, path, err)
	}
	return snap
}

func TestWidgetFlow(t *testing.T) {
	app, _, _ := newTestApp(t)
	c := &client{t: t, app: app}

	snap := c.snapshot(fiber.MethodGet, "/api/v1/widget", "")
	if c.session == nil {
		t.Fatal("expected a session cookie")
	}
	if snap.HasRecord || snap.Unit != domain.Celsius {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}

	snap = c.snapshot(fiber.MethodPost, "/api/v1/widget/load", "")
	if snap.Display.Location != "London" || snap.Notification != nil {
		t.Fatalf("unexpected snapshot after load: %+v", snap)
	}

	snap = c.snapshot(fiber.MethodPut, "/api/v1/widget/input", `{"query":"Par"}`)
	if snap.Input != "Par" {
		t.Fatalf("expected input to round-trip, got %q", snap.Input)
	}

	snap = c.snapshot(fiber.MethodPost, "/api/v1/widget/search", `{"query":"Paris"}`)
	if snap.Display.Location != "Paris, Île-de-France" || snap.Input != "" {
		t.Fatalf("unexpected snapshot after search: %+v", snap)
	}
	if snap.Notification == nil || snap.Notification.Message != service.MsgUpdated {
		t.Fatalf("expected success notification, got %+v", snap.Notification)
	}

	snap = c.snapshot(fiber.MethodPost, "/api/v1/widget/unit", "")
	if snap.Unit != domain.Fahrenheit || snap.Display.Temperature != "53°" || snap.Toggle.SliderOffsetPx != 40 {
		t.Fatalf("unexpected snapshot after toggle: %+v", snap)
	}

	snap = c.snapshot(fiber.MethodPost, "/api/v1/widget/search", `{"query":"Atlantis"}`)
	if snap.Display.Location != "Paris, Île-de-France" {
		t.Fatalf("failed search must keep the previous record, got %+v", snap.Display)
	}
	if snap.Notification == nil || snap.Notification.Message != service.MsgNotFound {
		t.Fatalf("expected not found notification, got %+v", snap.Notification)
	}

	snap = c.snapshot(fiber.MethodPost, "/api/v1/widget/search", `{"query":"   "}`)
	if snap.Notification == nil || snap.Notification.Message != service.MsgEmptyQuery {
		t.Fatalf("expected empty query notification, got %+v", snap.Notification)
	}

	snap = c.snapshot(fiber.MethodPost, "/api/v1/widget/tilt", `{"x":0,"y":0,"width":400,"height":200}`)
	if snap.Tilt.RotateX != -5 || snap.Tilt.RotateY != 10 {
		t.Fatalf("unexpected tilt: %+v", snap.Tilt)
	}
	snap = c.snapshot(fiber.MethodDelete, "/api/v1/widget/tilt", "")
	if snap.Tilt != service.RestTransform() {
		t.Fatalf("expected rest transform, got %+v", snap.Tilt)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	app, _, _ := newTestApp(t)
	a := &client{t: t, app: app}
	b := &client{t: t, app: app}

	a.snapshot(fiber.MethodPost, "/api/v1/widget/search", `{"query":"Paris"}`)
	if snap := b.snapshot(fiber.MethodGet, "/api/v1/widget", ""); snap.HasRecord {
		t.Fatalf("second session should not see the first one's record: %+v", snap)
	}
	if a.session.Value == b.session.Value {
		t.Fatal("sessions share an id")
	}
}

func TestSearchInvalidBody(t *testing.T) {
	app, _, _ := newTestApp(t)
	c := &client{t: t, app: app}

	resp, data := c.do(fiber.MethodPost, "/api/v1/widget/search", `{not-json`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, fiber.StatusBadRequest)
	}
	if !strings.Contains(string(data), "Invalid request body") {
		t.Fatalf("expected invalid body message, got %q", data)
	}
}

func TestGetWeather(t *testing.T) {
	app, _, _ := newTestApp(t)
	c := &client{t: t, app: app}

	tests := []struct {
		path   string
		status int
	}{
		{"/api/v1/weather?q=Paris&unit=F", fiber.StatusOK},
		{"/api/v1/weather?q=", fiber.StatusBadRequest},
		{"/api/v1/weather?q=Atlantis", fiber.StatusNotFound},
		{"/api/v1/weather?q=Broken", fiber.StatusBadGateway},
	}
	for _, tt := range tests {
		resp, data := c.do(fiber.MethodGet, tt.path, "")
		if resp.StatusCode != tt.status {
			t.Fatalf("%s: unexpected status: got %d want %d (%s)", tt.path, resp.StatusCode, tt.status, data)
		}
		if tt.status != fiber.StatusOK {
			var e struct {
				Error   bool   `json:"error"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(data, &e); err != nil || !e.Error || e.Message == "" {
				t.Fatalf("%s: unexpected error body %q", tt.path, data)
			}
			continue
		}

		var got struct {
			Success bool                 `json:"success"`
			Data    domain.WeatherRecord `json:"data"`
			Display domain.DisplayFields `json:"display"`
			Unit    string               `json:"unit"`
		}
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("response is not valid json: %v", err)
		}
		if !got.Success || got.Data.Name != "Paris" || got.Display.Temperature != "53°" || got.Unit != "F" {
			t.Fatalf("unexpected weather response: %+v", got)
		}
	}
}

func TestGetLookups(t *testing.T) {
	app, svc, _ := newTestApp(t)
	c := &client{t: t, app: app}

	c.snapshot(fiber.MethodPost, "/api/v1/widget/load", "")
	c.snapshot(fiber.MethodPost, "/api/v1/widget/search", `{"query":"Atlantis"}`)
	svc.WaitBackground()

	resp, data := c.do(fiber.MethodGet, "/api/v1/lookups?hours=5000", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var got struct {
		Data  []domain.Lookup `json:"data"`
		Count int             `json:"count"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("response is not valid json: %v", err)
	}
	if got.Count != 2 {
		t.Fatalf("expected 2 lookups, got %d", got.Count)
	}
	outcomes := map[domain.Outcome]bool{}
	for _, l := range got.Data {
		outcomes[l.Outcome] = true
		if l.SessionID != c.session.Value {
			t.Fatalf("lookup not tied to the session: %+v", l)
		}
	}
	if !outcomes[domain.OutcomeOK] || !outcomes[domain.OutcomeNotFound] {
		t.Fatalf("unexpected outcomes: %v", outcomes)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app, _, _ := newTestApp(t)
	c := &client{t: t, app: app}

	resp, data := c.do(fiber.MethodGet, "/health", "")
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(string(data), `"storage":"ok"`) {
		t.Fatalf("unexpected health response: %d %s", resp.StatusCode, data)
	}

	c.do(fiber.MethodGet, "/api/v1/weather?q=Paris", "")
	resp, data = c.do(fiber.MethodGet, "/metrics", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("unexpected metrics status: %d", resp.StatusCode)
	}
	if !strings.Contains(string(data), `weather_lookups_total{outcome="ok",trigger="direct"}`) {
		t.Fatalf("lookup counter missing from metrics output")
	}
}

func TestLookupLogKeepsQueryAcrossKeepAlive(t *testing.T) {
	app, svc, repo := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	base := "http://" + ln.Addr().String()
	httpClient := &nethttp.Client{Timeout: 5 * time.Second}
	queries := []string{"Paris", "Zzzzz", "Qqqqq", "Wwwww"}
	sent := map[string]int{}
	for i := 0; i < 40; i++ {
		q := queries[i%len(queries)]
		resp, err := httpClient.Get(fmt.Sprintf("%s/api/v1/weather?q=%s", base, q))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		sent[q]++
	}
	svc.WaitBackground()

	logged, err := repo.GetLookups(context.Background(), time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("GetLookups: %v", err)
	}
	if len(logged) != 40 {
		t.Fatalf("expected 40 lookups, got %d", len(logged))
	}
	got := map[string]int{}
	for _, l := range logged {
		got[l.Query]++
		if l.Record != nil && l.Record.Name != l.Query {
			t.Fatalf("lookup logged with query %q for record %q", l.Query, l.Record.Name)
		}
		if l.Record == nil && l.Outcome != domain.OutcomeNotFound {
			t.Fatalf("unexpected outcome for %q: %s", l.Query, l.Outcome)
		}
	}
	for q, n := range sent {
		if got[q] != n {
			t.Fatalf("query %q: logged %d times, sent %d (log %v)", q, got[q], n, got)
		}
	}
}
