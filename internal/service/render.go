package service

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/smartcity/weatherwidget/internal/domain"
	"github.com/smartcity/weatherwidget/pkg/utils"
)

// LocalTimeLayout is the provider's local time format
const LocalTimeLayout = "2006-01-02 15:04"

var weekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var months = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// CelsiusToFahrenheit converts without rounding
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// RoundHalfUp rounds to the nearest integer, halves towards +Inf
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// DisplayTemperature converts a Celsius reading into the unit and rounds it
func DisplayTemperature(c float64, unit domain.Unit) int {
	if unit == domain.Fahrenheit {
		c = CelsiusToFahrenheit(c)
	}
	return RoundHalfUp(c)
}

// LocationLabel joins name and region; the country is never shown
func LocationLabel(name, region string) string {
	if region == "" {
		return name
	}
	return name + ", " + region
}

// FormatClock renders a 12-hour clock, e.g. "2:05 PM"
func FormatClock(t time.Time) string {
	hour := t.Hour()
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, t.Minute(), suffix)
}

// FormatWeekday returns the English weekday name
func FormatWeekday(t time.Time) string {
	return weekdays[t.Weekday()]
}

// FormatDate renders "March 7, 2024"
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %d, %d", months[t.Month()-1], t.Day(), t.Year())
}

// ParseLocalTime reads the provider's "YYYY-MM-DD HH:MM" string
func ParseLocalTime(s string) (time.Time, error) {
	return time.Parse(LocalTimeLayout, s)
}

// Render maps a record and unit onto the card's display slots.
// now only feeds the "last updated" slot.
func Render(rec domain.WeatherRecord, unit domain.Unit, now time.Time) domain.DisplayFields {
	d := RenderTemperature(domain.DisplayFields{}, rec, unit)
	d.Location = LocationLabel(rec.Name, rec.Region)
	d.Condition = rec.Condition
	if rec.Icon != "" {
		d.IconURL = "https:" + rec.Icon
		d.IconAlt = rec.Condition
	}
	if t, err := ParseLocalTime(rec.LocalTime); err == nil {
		d.Clock = FormatClock(t)
		d.Weekday = FormatWeekday(t)
		d.Date = FormatDate(t)
	}
	d.Wind = utils.FormatNumber(rec.WindKPH) + " km/h"
	d.Humidity = strconv.Itoa(rec.Humidity) + "%"
	d.LastUpdated = "Updated at " + FormatClock(now)
	return d
}

// RenderTemperature rewrites only the unit-dependent slots of d
func RenderTemperature(d domain.DisplayFields, rec domain.WeatherRecord, unit domain.Unit) domain.DisplayFields {
	d.Temperature = strconv.Itoa(DisplayTemperature(rec.TempC, unit)) + "°"
	d.FeelsLike = strconv.Itoa(DisplayTemperature(rec.FeelsLikeC, unit)) + "°"
	d.UnitLabel = unit.Label()
	return d
}
