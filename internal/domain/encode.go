package domain

import (
	"fmt"
	"slices"
)

// FeatureVector is one classifier row aligned to a manifest's column order.
type FeatureVector struct {
	columns []string
	values  []float64
}

// Values returns a copy of the row.
func (v FeatureVector) Values() []float64 {
	return slices.Clone(v.values)
}

// Columns returns the column names in row order.
func (v FeatureVector) Columns() []string {
	return slices.Clone(v.columns)
}

// Len returns the number of columns.
func (v FeatureVector) Len() int {
	return len(v.values)
}

// Value returns the value of a named column.
func (v FeatureVector) Value(column string) (float64, bool) {
	i := slices.Index(v.columns, column)
	if i < 0 {
		return 0, false
	}
	return v.values[i], true
}

// BaseFeatureValues derives the numeric features from an observation.
func BaseFeatureValues(obs WeatherObservation) map[string]float64 {
	return map[string]float64{
		FeatureTempMax:    obs.TempMax,
		FeatureTempMin:    obs.TempMin,
		FeatureTempRange:  obs.TempMax - obs.TempMin,
		FeatureAvgTemp:    (obs.TempMax + obs.TempMin) / 2,
		FeatureHumidity:   float64(obs.Humidity),
		FeaturePressure:   obs.Pressure,
		FeatureWindSpeed:  obs.WindSpeed,
		FeatureClouds:     float64(obs.CloudCover),
		FeatureVisibility: obs.Visibility,
	}
}

// Encode builds the classifier row for an observation at a location during
// a season. Columns the encoder does not produce stay 0. A location outside
// the manifest fails with ErrUnknownLocation.
func Encode(obs WeatherObservation, location string, season Season, m *Manifest) (FeatureVector, error) {
	locCol, ok := m.locations[location]
	if !ok {
		return FeatureVector{}, fmt.Errorf("%w: %q", ErrUnknownLocation, location)
	}

	values := make([]float64, len(m.columns))
	for name, v := range BaseFeatureValues(obs) {
		if i, ok := m.index[name]; ok {
			values[i] = v
		}
	}

	// Every other season and location indicator is already 0.
	if col, ok := m.seasons[season]; ok {
		values[m.index[col]] = 1
	}
	values[m.index[locCol]] = 1

	return FeatureVector{columns: m.columns, values: values}, nil
}
