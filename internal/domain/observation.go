package domain

import (
	"context"
	"math"
	"time"
)

// Provider defaults for optional observation fields.
const (
	DefaultWindSpeed        = 0.0
	DefaultCloudCover       = 0
	DefaultVisibilityMeters = 10000.0
)

// WeatherObservation is a normalized point-in-time weather reading for one location.
type WeatherObservation struct {
	Location    string    `json:"location"`
	TempNow     float64   `json:"temp_now"`
	TempMax     float64   `json:"temp_max"`
	TempMin     float64   `json:"temp_min"`
	FeelsLike   float64   `json:"feels_like"`
	Humidity    int       `json:"humidity"`
	Pressure    float64   `json:"pressure"`
	WindSpeed   float64   `json:"wind_speed"`
	CloudCover  int       `json:"cloud_cover"`
	Visibility  float64   `json:"visibility_km"`
	Description string    `json:"description"`
	ObservedAt  time.Time `json:"observed_at"`
}

// RawObservation carries provider fields before defaults and unit conversion.
// Nil pointers mark optional fields the provider omitted.
type RawObservation struct {
	TempNow          float64
	TempMax          float64
	TempMin          float64
	FeelsLike        float64
	Humidity         float64
	Pressure         float64
	WindSpeed        *float64
	CloudCover       *float64
	VisibilityMeters *float64
	Description      string
	ObservedAt       time.Time
}

// WeatherSource returns the current observation for a named location.
// Implementations wrap every failure with ErrObservationUnavailable.
type WeatherSource interface {
	Current(ctx context.Context, location string) (WeatherObservation, error)
}

// NormalizeObservation applies defaults and unit conversions to a raw reading.
func NormalizeObservation(location string, raw RawObservation) WeatherObservation {
	wind := DefaultWindSpeed
	if raw.WindSpeed != nil {
		wind = *raw.WindSpeed
	}
	clouds := DefaultCloudCover
	if raw.CloudCover != nil {
		clouds = int(math.Round(*raw.CloudCover))
	}
	visibility := DefaultVisibilityMeters
	if raw.VisibilityMeters != nil {
		visibility = *raw.VisibilityMeters
	}

	return WeatherObservation{
		Location:    location,
		TempNow:     raw.TempNow,
		TempMax:     raw.TempMax,
		TempMin:     raw.TempMin,
		FeelsLike:   raw.FeelsLike,
		Humidity:    int(math.Round(raw.Humidity)),
		Pressure:    raw.Pressure,
		WindSpeed:   wind,
		CloudCover:  clouds,
		Visibility:  visibility / 1000,
		Description: raw.Description,
		ObservedAt:  raw.ObservedAt,
	}
}
