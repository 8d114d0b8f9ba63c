package domain

import "time"

// Prediction is the full answer for one location request.
type Prediction struct {
	Location    string             `json:"location"`
	Season      Season             `json:"season"`
	Observation WeatherObservation `json:"observation"`
	Result      PredictionResult   `json:"result"`
	Insights    []string           `json:"insights"`
	PredictedAt time.Time          `json:"predicted_at"`
}

// Thresholds for weather insights.
const (
	highHumidityPct  = 80
	heavyCloudPct    = 70
	strongWindMS     = 10.0
	lowPressureHPa   = 1010.0
	wideTempRangeC   = 15.0
	insightNormal    = "Normal weather conditions"
	insightHumidity  = "High humidity increases the chance of rain"
	insightClouds    = "Heavy cloud cover present"
	insightWind      = "Strong winds observed"
	insightPressure  = "Low pressure system may bring rain"
	insightTempRange = "Large temperature swing today"
)

// Insights returns short notes on conditions that commonly precede rain.
func Insights(obs WeatherObservation) []string {
	var notes []string
	if obs.Humidity > highHumidityPct {
		notes = append(notes, insightHumidity)
	}
	if obs.CloudCover > heavyCloudPct {
		notes = append(notes, insightClouds)
	}
	if obs.WindSpeed > strongWindMS {
		notes = append(notes, insightWind)
	}
	if obs.Pressure < lowPressureHPa {
		notes = append(notes, insightPressure)
	}
	if obs.TempMax-obs.TempMin > wideTempRangeC {
		notes = append(notes, insightTempRange)
	}
	if len(notes) == 0 {
		notes = append(notes, insightNormal)
	}
	return notes
}
