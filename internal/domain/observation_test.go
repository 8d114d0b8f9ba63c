package domain_test

import (
	"testing"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestNormalizeObservation_Defaults(t *testing.T) {
	obs := domain.NormalizeObservation("Delhi", domain.RawObservation{
		TempNow:  30,
		TempMax:  32,
		TempMin:  24,
		Humidity: 70,
		Pressure: 1008,
	})

	assert.Equal(t, "Delhi", obs.Location)
	assert.Zero(t, obs.WindSpeed)
	assert.Zero(t, obs.CloudCover)
	assert.Equal(t, 10.0, obs.Visibility)
}

func TestNormalizeObservation_ProvidedFields(t *testing.T) {
	at := time.Date(2024, time.July, 1, 6, 0, 0, 0, time.UTC)
	obs := domain.NormalizeObservation("Mumbai", domain.RawObservation{
		TempNow:          29.5,
		TempMax:          31,
		TempMin:          27,
		FeelsLike:        34.2,
		Humidity:         89,
		Pressure:         1002,
		WindSpeed:        ptr(6.7),
		CloudCover:       ptr(75.0),
		VisibilityMeters: ptr(3500.0),
		Description:      "light rain",
		ObservedAt:       at,
	})

	assert.Equal(t, domain.WeatherObservation{
		Location:    "Mumbai",
		TempNow:     29.5,
		TempMax:     31,
		TempMin:     27,
		FeelsLike:   34.2,
		Humidity:    89,
		Pressure:    1002,
		WindSpeed:   6.7,
		CloudCover:  75,
		Visibility:  3.5,
		Description: "light rain",
		ObservedAt:  at,
	}, obs)
}

func TestNormalizeObservation_ZeroValuesAreNotDefaults(t *testing.T) {
	obs := domain.NormalizeObservation("Delhi", domain.RawObservation{
		WindSpeed:        ptr(0.0),
		VisibilityMeters: ptr(0.0),
	})
	assert.Zero(t, obs.Visibility)
}
