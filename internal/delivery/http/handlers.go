package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/smartcity/weatherwidget/internal/domain"
	"github.com/smartcity/weatherwidget/internal/service"
)

// SessionCookie carries the widget session ID
const SessionCookie = "widget_session"

// Handler contains all HTTP handlers
type Handler struct {
	widgetSvc *service.WidgetService
	registry  *service.WidgetRegistry
	repo      service.LookupRepository
}

// NewHandler creates a new handler
func NewHandler(widgetSvc *service.WidgetService, registry *service.WidgetRegistry, repo service.LookupRepository) *Handler {
	return &Handler{
		widgetSvc: widgetSvc,
		registry:  registry,
		repo:      repo,
	}
}

type searchRequest struct {
	Query string `json:"query"`
}

type tiltRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	storage := "ok"
	if err := h.repo.Health(c.Context()); err != nil {
		storage = err.Error()
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"service":  "weather-widget",
		"version":  "1.0.0",
		"storage":  storage,
		"sessions": h.registry.Len(),
	})
}

// widget resolves the caller's session, issuing a cookie for new ones
func (h *Handler) widget(c *fiber.Ctx) *service.Widget {
	w, created := h.registry.Get(c.Cookies(SessionCookie))
	if created {
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    w.ID(),
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return w
}

// GetWidget returns the session's view state
func (h *Handler) GetWidget(c *fiber.Ctx) error {
	return c.JSON(h.widget(c).Snapshot())
}

// LoadWidget runs the page-load trigger
func (h *Handler) LoadWidget(c *fiber.Ctx) error {
	w := h.widget(c)
	_ = w.Load(c.Context())
	return c.JSON(w.Snapshot())
}

// Search runs the search trigger; failures are reported in the snapshot
func (h *Handler) Search(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	w := h.widget(c)
	_ = w.Search(c.Context(), req.Query)
	return c.JSON(w.Snapshot())
}

// SetInput mirrors the search box text
func (h *Handler) SetInput(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	w := h.widget(c)
	w.SetInput(req.Query)
	return c.JSON(w.Snapshot())
}

// ToggleUnit flips between Celsius and Fahrenheit
func (h *Handler) ToggleUnit(c *fiber.Ctx) error {
	w := h.widget(c)
	w.ToggleUnit()
	return c.JSON(w.Snapshot())
}

// Tilt updates the card transform from a pointer position
func (h *Handler) Tilt(c *fiber.Ctx) error {
	var req tiltRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	w := h.widget(c)
	w.Tilt(req.X, req.Y, req.Width, req.Height)
	return c.JSON(w.Snapshot())
}

// ResetTilt handles the pointer leaving the card
func (h *Handler) ResetTilt(c *fiber.Ctx) error {
	w := h.widget(c)
	w.ResetTilt()
	return c.JSON(w.Snapshot())
}

// GetWeather fetches and renders one location without a session
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	unit := domain.ParseUnit(c.Query("unit", "C"))
	// c.Query aliases the request buffer, which fasthttp reuses
	q := utils.CopyString(c.Query("q"))

	rec, display, err := h.widgetSvc.Weather(c.Context(), q, unit)
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return fiber.NewError(fiber.StatusBadRequest, service.MsgEmptyQuery)
	case errors.Is(err, domain.ErrLocationNotFound):
		return fiber.NewError(fiber.StatusNotFound, service.MsgNotFound)
	case err != nil:
		return fiber.NewError(fiber.StatusBadGateway, "Failed to fetch weather data")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rec,
		"display": display,
		"unit":    unit,
	})
}

// GetLookups returns the lookup log within a time range
func (h *Handler) GetLookups(c *fiber.Ctx) error {
	ctx := c.Context()

	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 720 { // max 30 days
		hours = 24
	}

	to := time.Now()
	from := to.Add(-time.Duration(hours) * time.Hour)

	data, err := h.repo.GetLookups(ctx, from, to)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch lookup history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}
