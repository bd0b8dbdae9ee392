package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smartcity/weatherwidget/internal/domain"
)

// DefaultBaseURL is the weatherapi.com v1 root
const DefaultBaseURL = "https://api.weatherapi.com/v1"

// WeatherService handles weather data fetching
type WeatherService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewWeatherService creates a new weather service
func NewWeatherService(apiKey, baseURL string) *WeatherService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &WeatherService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CurrentResponse represents the weatherapi.com current.json body
type CurrentResponse struct {
	Location struct {
		Name      string `json:"name"`
		Region    string `json:"region"`
		Country   string `json:"country"`
		LocalTime string `json:"localtime"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		Condition struct {
			Text string `json:"text"`
			Icon string `json:"icon"`
		} `json:"condition"`
		WindKPH    float64 `json:"wind_kph"`
		Humidity   int     `json:"humidity"`
		FeelsLikeC float64 `json:"feelslike_c"`
	} `json:"current"`
}

// FetchWeather issues one current-conditions request for a free-text location.
// The query is expected to be trimmed and non-empty.
func (s *WeatherService) FetchWeather(ctx context.Context, query string) (domain.WeatherRecord, error) {
	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("q", query)
	params.Set("aqi", "no")
	u := s.baseURL + "/current.json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("weather: failed to create request: %w: %v", domain.ErrTransport, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("weather: request failed: %w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return domain.WeatherRecord{}, fmt.Errorf("weather: %q: %w", query, domain.ErrLocationNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.WeatherRecord{}, fmt.Errorf("weather: API returned status %d: %w", resp.StatusCode, domain.ErrTransport)
	}

	var body CurrentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("weather: failed to decode response: %w: %v", domain.ErrTransport, err)
	}
	if body.Location.Name == "" || body.Location.LocalTime == "" {
		return domain.WeatherRecord{}, fmt.Errorf("weather: response missing location: %w", domain.ErrTransport)
	}

	return domain.WeatherRecord{
		Name:       body.Location.Name,
		Region:     body.Location.Region,
		Country:    body.Location.Country,
		LocalTime:  body.Location.LocalTime,
		TempC:      body.Current.TempC,
		FeelsLikeC: body.Current.FeelsLikeC,
		Condition:  body.Current.Condition.Text,
		Icon:       body.Current.Condition.Icon,
		WindKPH:    body.Current.WindKPH,
		Humidity:   body.Current.Humidity,
	}, nil
}
