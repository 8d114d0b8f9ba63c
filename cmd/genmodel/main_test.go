package main

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/adapter/modelfile"
	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleModel_SeparatesWetAndDryDays(t *testing.T) {
	cities := splitCities("Delhi, Mumbai,,Delhi")
	require.Equal(t, []string{"Delhi", "Mumbai"}, cities)

	m, err := domain.NewManifest(Columns(cities))
	require.NoError(t, err)
	assert.Empty(t, m.MissingSeasons())
	assert.Empty(t, m.MissingBaseFeatures())
	assert.Empty(t, m.ExtraColumns())

	model, err := modelfile.NewLogisticModel(Model(cities, 0.5), m)
	require.NoError(t, err)

	at := time.Date(2024, time.July, 15, 9, 0, 0, 0, time.UTC)
	wet := domain.WeatherObservation{TempMax: 30, TempMin: 25, Humidity: 95, Pressure: 1000, WindSpeed: 8, CloudCover: 100, Visibility: 3, ObservedAt: at}
	dry := domain.WeatherObservation{TempMax: 38, TempMin: 22, Humidity: 25, Pressure: 1016, WindSpeed: 2, CloudCover: 5, Visibility: 10, ObservedAt: at}

	predict := func(obs domain.WeatherObservation, season domain.Season) int {
		row, err := domain.Encode(obs, "Mumbai", season, m)
		require.NoError(t, err)
		label, err := model.Predict(context.Background(), row.Values())
		require.NoError(t, err)
		return label
	}

	assert.Equal(t, 1, predict(wet, domain.SeasonMonsoon))
	assert.Equal(t, 0, predict(dry, domain.SeasonWinter))
}
