// Command genmodel writes a sample feature manifest and logistic model for
// local development and tests. The coefficients are hand-tuned so that humid,
// overcast, low-pressure monsoon days predict rain.
//
// Usage:
//
//	go run ./cmd/genmodel -out-dir model
//	go run ./cmd/genmodel -out-dir model -cities Delhi,Mumbai,Pune
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/rain-prediction-service/internal/adapter/modelfile"
	"github.com/couchcryptid/rain-prediction-service/internal/domain"
)

var defaultCities = []string{
	"Ahmedabad", "Bangalore", "Chennai", "Delhi", "Hyderabad",
	"Jaipur", "Kolkata", "Lucknow", "Mumbai", "Pune",
}

// Per-feature weights, on the units the encoder produces.
var baseCoefficients = map[string]float64{
	domain.FeatureTempMax:    -0.04,
	domain.FeatureTempMin:    0.02,
	domain.FeatureTempRange:  -0.12,
	domain.FeatureAvgTemp:    -0.01,
	domain.FeatureHumidity:   0.06,
	domain.FeaturePressure:   -0.08,
	domain.FeatureWindSpeed:  0.05,
	domain.FeatureClouds:     0.035,
	domain.FeatureVisibility: -0.09,
}

var seasonCoefficients = map[domain.Season]float64{
	domain.SeasonWinter:      -0.9,
	domain.SeasonSpring:      -0.4,
	domain.SeasonMonsoon:     1.3,
	domain.SeasonPostMonsoon: 0.2,
}

// Wetter coastal and north-eastern cities get a positive bias.
var cityBias = map[string]float64{
	"Mumbai":  0.6,
	"Kolkata": 0.5,
	"Chennai": 0.3,
	"Jaipur":  -0.5,
	"Delhi":   -0.2,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "model", "directory to write feature_columns.json and rain_model.json")
	cities := flag.String("cities", strings.Join(defaultCities, ","), "comma-separated training locations")
	threshold := flag.Float64("threshold", 0.5, "decision threshold for the rain label")
	flag.Parse()

	names := splitCities(*cities)
	if len(names) == 0 {
		flag.Usage()
		return fmt.Errorf("at least one city is required")
	}

	columns := Columns(names)
	file := Model(names, *threshold)

	// Bind once before writing so an invalid combination never reaches disk.
	m, err := domain.NewManifest(columns)
	if err != nil {
		return fmt.Errorf("build manifest: %w", err)
	}
	if _, err := modelfile.NewLogisticModel(file, m); err != nil {
		return fmt.Errorf("build model: %w", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	manifestPath := filepath.Join(*outDir, "feature_columns.json")
	if err := modelfile.SaveManifest(manifestPath, columns); err != nil {
		return err
	}
	log.Printf("wrote manifest: %s (%d columns)", manifestPath, len(columns))

	modelPath := filepath.Join(*outDir, "rain_model.json")
	if err := modelfile.SaveLogistic(modelPath, file); err != nil {
		return err
	}
	log.Printf("wrote model: %s (threshold %.2f)", modelPath, *threshold)
	return nil
}

// Columns lays out the manifest: base features, season indicators, then one
// indicator per city.
func Columns(cities []string) []string {
	columns := make([]string, 0, len(domain.BaseFeatures)+len(domain.Seasons)+len(cities))
	columns = append(columns, domain.BaseFeatures...)
	for _, s := range domain.Seasons {
		columns = append(columns, s.Column())
	}
	for _, c := range cities {
		columns = append(columns, domain.LocationColumn(c))
	}
	return columns
}

// Model returns the sample coefficients for the given cities.
func Model(cities []string, threshold float64) modelfile.File {
	coef := make(map[string]float64, len(baseCoefficients)+len(seasonCoefficients)+len(cities))
	for k, v := range baseCoefficients {
		coef[k] = v
	}
	for s, v := range seasonCoefficients {
		coef[s.Column()] = v
	}
	for _, c := range cities {
		coef[domain.LocationColumn(c)] = cityBias[c]
	}
	return modelfile.File{
		Type:         modelfile.TypeLogistic,
		Coefficients: coef,
		// Centres pressure (~1010 hPa) and humidity so typical days sit near 0.
		Intercept: 76.0,
		Threshold: &threshold,
	}
}

func splitCities(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		if c := strings.TrimSpace(part); c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
