package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/smartcity/weatherwidget/internal/delivery/http"
	"github.com/smartcity/weatherwidget/internal/repository/postgres"
	"github.com/smartcity/weatherwidget/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := loadConfig()
	if cfg.WeatherAPIKey == "" {
		log.Println("Warning: WEATHERAPI_KEY is not set, provider calls will be rejected")
	}

	// Lookup log storage
	var lookupRepo service.LookupRepository
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err == nil {
			repo := postgres.NewPostgresRepository(pool)
			if err = repo.EnsureSchema(ctx); err == nil {
				defer pool.Close()
				lookupRepo = repo
				log.Println("Connected to PostgreSQL")
			} else {
				pool.Close()
			}
		}
		cancel()
		if err != nil {
			log.Printf("Warning: Could not connect to database: %v", err)
		}
	}
	if lookupRepo == nil {
		log.Println("Keeping lookup log in memory")
		lookupRepo = postgres.NewMemoryRepository()
	}

	// Dependency Injection: Services
	weatherSvc := service.NewWeatherService(cfg.WeatherAPIKey, cfg.WeatherAPIBaseURL)
	widgetSvc := service.NewWidgetService(weatherSvc, lookupRepo, cfg.DefaultLocation, nil)
	registry := service.NewWidgetRegistry(widgetSvc, cfg.SessionTTL)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Weather Widget v1.0",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Routes
	http.SetupRoutes(app, widgetSvc, registry, lookupRepo)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s (%s)", cfg.Port, cfg.Env)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	widgetSvc.WaitBackground()
	log.Println("Server exited gracefully")
}

type Config struct {
	DatabaseURL       string
	WeatherAPIKey     string
	WeatherAPIBaseURL string
	DefaultLocation   string
	AllowOrigins      string
	SessionTTL        time.Duration
	Port              string
	Env               string
}

func loadConfig() *Config {
	ttl := 60 * time.Minute
	if m, err := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "")); err == nil && m >= 0 {
		ttl = time.Duration(m) * time.Minute
	}

	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		WeatherAPIKey:     getEnv("WEATHERAPI_KEY", ""),
		WeatherAPIBaseURL: getEnv("WEATHERAPI_BASE_URL", service.DefaultBaseURL),
		DefaultLocation:   getEnv("DEFAULT_LOCATION", "London"),
		AllowOrigins:      getEnv("CORS_ALLOW_ORIGINS", "*"),
		SessionTTL:        ttl,
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("GO_ENV", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
