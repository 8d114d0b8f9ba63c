package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Base numeric feature names shared with the training pipeline.
const (
	FeatureTempMax    = "tmax"
	FeatureTempMin    = "tmin"
	FeatureTempRange  = "temp_range"
	FeatureAvgTemp    = "avg_temp"
	FeatureHumidity   = "humidity"
	FeaturePressure   = "pressure"
	FeatureWindSpeed  = "wind_speed"
	FeatureClouds     = "clouds"
	FeatureVisibility = "visibility"
)

// BaseFeatures lists the numeric features the encoder produces.
var BaseFeatures = []string{
	FeatureTempMax,
	FeatureTempMin,
	FeatureTempRange,
	FeatureAvgTemp,
	FeatureHumidity,
	FeaturePressure,
	FeatureWindSpeed,
	FeatureClouds,
	FeatureVisibility,
}

const locationColumnPrefix = "city_"

// LocationColumn returns the manifest column name for a location indicator.
func LocationColumn(location string) string {
	return locationColumnPrefix + location
}

// Manifest is the typed, immutable view of a classifier's feature columns.
type Manifest struct {
	columns   []string
	index     map[string]int
	numeric   []string
	seasons   map[Season]string
	locations map[string]string
	extra     []string
}

// NewManifest partitions columns by naming convention and validates the
// combined column namespace. The column order is preserved.
func NewManifest(columns []string) (*Manifest, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrInvalidManifest)
	}

	m := &Manifest{
		columns:   slices.Clone(columns),
		index:     make(map[string]int, len(columns)),
		seasons:   make(map[Season]string, len(Seasons)),
		locations: make(map[string]string),
	}

	for i, col := range columns {
		if strings.TrimSpace(col) == "" {
			return nil, fmt.Errorf("%w: empty column name at position %d", ErrInvalidManifest, i)
		}
		if prev, dup := m.index[col]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q at positions %d and %d", ErrInvalidManifest, col, prev, i)
		}
		m.index[col] = i

		switch {
		case slices.Contains(BaseFeatures, col):
			m.numeric = append(m.numeric, col)
		case strings.HasPrefix(col, seasonColumnPrefix):
			if season, ok := parseSeason(strings.TrimPrefix(col, seasonColumnPrefix)); ok {
				m.seasons[season] = col
			} else {
				m.extra = append(m.extra, col)
			}
		case strings.HasPrefix(col, locationColumnPrefix):
			name := strings.TrimPrefix(col, locationColumnPrefix)
			if name == "" {
				return nil, fmt.Errorf("%w: location column %q has no name", ErrInvalidManifest, col)
			}
			if strings.TrimSpace(name) != name {
				return nil, fmt.Errorf("%w: location column %q has surrounding whitespace", ErrInvalidManifest, col)
			}
			m.locations[name] = col
		default:
			m.extra = append(m.extra, col)
		}
	}

	if len(m.locations) == 0 {
		return nil, fmt.Errorf("%w: no %s columns", ErrInvalidManifest, locationColumnPrefix)
	}

	return m, nil
}

// Columns returns a copy of the manifest column order.
func (m *Manifest) Columns() []string {
	return slices.Clone(m.columns)
}

// Len returns the number of columns.
func (m *Manifest) Len() int {
	return len(m.columns)
}

// Index returns the position of a column.
func (m *Manifest) Index(column string) (int, bool) {
	i, ok := m.index[column]
	return i, ok
}

// HasLocation reports whether the classifier was trained on location.
func (m *Manifest) HasLocation(location string) bool {
	_, ok := m.locations[location]
	return ok
}

// Locations returns the known locations sorted by name.
func (m *Manifest) Locations() []string {
	names := make([]string, 0, len(m.locations))
	for name := range m.locations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SeasonColumn returns the indicator column for a season, if present.
func (m *Manifest) SeasonColumn(s Season) (string, bool) {
	col, ok := m.seasons[s]
	return col, ok
}

// MissingSeasons lists seasons with no indicator column.
func (m *Manifest) MissingSeasons() []Season {
	var missing []Season
	for _, s := range Seasons {
		if _, ok := m.seasons[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// MissingBaseFeatures lists base numeric features the manifest does not include.
func (m *Manifest) MissingBaseFeatures() []string {
	var missing []string
	for _, f := range BaseFeatures {
		if !slices.Contains(m.numeric, f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// ExtraColumns lists columns the encoder does not produce. They are always 0.
func (m *Manifest) ExtraColumns() []string {
	return slices.Clone(m.extra)
}
