// Package domain models the rain prediction pipeline: weather observations,
// the feature manifest a classifier was trained against, and the encoder that
// turns one observation into a classifier row.
//
// # Observation Conventions
//
// Observations come from the OpenWeather current-weather endpoint queried with
// units=metric. Temperatures are °C, pressure is hPa, wind speed is m/s, and
// humidity and cloud cover are percentages. Visibility is reported by the
// provider in meters and stored in kilometers.
//
// Optional provider fields resolve to fixed defaults rather than errors:
//
//	wind.speed    absent → 0 m/s
//	clouds.all    absent → 0 %
//	visibility    absent → 10000 m (10 km)
//
// A daily minimum above the maximum is passed through unchanged. The derived
// temperature range is then negative, which the encoder accepts.
//
// # Manifest Conventions
//
// A manifest is the ordered list of column names the classifier was trained
// on. Columns are partitioned by name:
//
//	tmax, tmin, temp_range, avg_temp,
//	humidity, pressure, wind_speed,
//	clouds, visibility               base numeric features
//	season_<Season>                  one-hot season indicator
//	city_<Location>                  one-hot location indicator
//
// Any other column is an extra column. Extra columns are always encoded as 0
// and are reported by [Manifest.ExtraColumns] so operators can see when a
// model was trained with features this encoder does not produce.
//
// # Seasons
//
// Seasons follow the Indian meteorological calendar used for training:
//
//	Dec–Feb  Winter
//	Mar–May  Spring
//	Jun–Aug  Monsoon
//	Sep–Nov  Post-Monsoon
//
// The season depends on the wall clock at request time. Callers pass it in
// explicitly (see [CurrentSeason]) so encoding stays a pure function of its
// inputs.
package domain
