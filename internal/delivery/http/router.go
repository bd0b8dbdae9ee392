package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/smartcity/weatherwidget/internal/metrics"
	"github.com/smartcity/weatherwidget/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, widgetSvc *service.WidgetService, registry *service.WidgetRegistry, repo service.LookupRepository) {
	handler := NewHandler(widgetSvc, registry, repo)

	// Health check and metrics
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", metrics.Handler())

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Widget session endpoints
		widget := api.Group("/widget")
		widget.Get("/", handler.GetWidget)
		widget.Post("/load", handler.LoadWidget)
		widget.Post("/search", handler.Search)
		widget.Put("/input", handler.SetInput)
		widget.Post("/unit", handler.ToggleUnit)
		widget.Post("/tilt", handler.Tilt)
		widget.Delete("/tilt", handler.ResetTilt)

		// Stateless lookups
		api.Get("/weather", handler.GetWeather)
		api.Get("/lookups", handler.GetLookups)
	}
}

// ErrorHandler renders errors as {"error": true, "message": ...}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
