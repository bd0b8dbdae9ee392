package domain

import (
	"errors"
	"time"
)

// Lookup failures surfaced by the fetcher and the widget
var (
	ErrEmptyQuery       = errors.New("empty location query")
	ErrLocationNotFound = errors.New("location not found")
	ErrTransport        = errors.New("weather provider request failed")
)

// WeatherRecord is the normalized snapshot for one location at fetch time
type WeatherRecord struct {
	Name       string  `json:"name"`
	Region     string  `json:"region,omitempty"`
	Country    string  `json:"country"`
	LocalTime  string  `json:"localtime"`
	TempC      float64 `json:"temp_c"`
	FeelsLikeC float64 `json:"feelslike_c"`
	Condition  string  `json:"condition"`
	Icon       string  `json:"icon"`
	WindKPH    float64 `json:"wind_kph"`
	Humidity   int     `json:"humidity"`
}

// Unit is the session-scoped temperature display choice
type Unit int

const (
	Celsius Unit = iota
	Fahrenheit
)

// Label returns the unit letter shown next to the temperature
func (u Unit) Label() string {
	if u == Fahrenheit {
		return "F"
	}
	return "C"
}

// ParseUnit accepts "C", "F" and their long names; anything else is Celsius
func ParseUnit(s string) Unit {
	switch s {
	case "F", "f", "fahrenheit", "Fahrenheit":
		return Fahrenheit
	}
	return Celsius
}

func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.Label()), nil
}

func (u *Unit) UnmarshalText(b []byte) error {
	*u = ParseUnit(string(b))
	return nil
}

// Severity tags a notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a transient user-facing message
type Notification struct {
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Icon      string    `json:"icon"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DisplayFields holds the text written into the card's named slots
type DisplayFields struct {
	Temperature string `json:"temperature"`
	UnitLabel   string `json:"temperature_unit"`
	Location    string `json:"location_name"`
	Condition   string `json:"condition_text"`
	IconURL     string `json:"condition_icon"`
	IconAlt     string `json:"condition_icon_alt"`
	Clock       string `json:"current_time"`
	Weekday     string `json:"current_day"`
	Date        string `json:"current_date"`
	Wind        string `json:"wind_speed"`
	Humidity    string `json:"humidity"`
	FeelsLike   string `json:"feels_like"`
	LastUpdated string `json:"last_updated"`
}
