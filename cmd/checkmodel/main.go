// Command checkmodel verifies a feature manifest and logistic model offline:
// the manifest parses, covers the encoder's features, the model binds to it,
// and every location/season combination classifies to a valid result.
//
// Usage:
//
//	go run ./cmd/checkmodel \
//	  -manifest model/feature_columns.json \
//	  -model model/rain_model.json
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/adapter/modelfile"
	"github.com/couchcryptid/rain-prediction-service/internal/domain"
)

// phase tracks pass/fail for a check phase. Warnings never fail a phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	manifestPath := flag.String("manifest", "model/feature_columns.json", "path to the feature manifest")
	modelPath := flag.String("model", "model/rain_model.json", "path to the logistic model file")
	flag.Parse()

	os.Exit(run(*manifestPath, *modelPath))
}

func run(manifestPath, modelPath string) int {
	fmt.Println("=== Rain Model Check ===")
	fmt.Println()

	manifest, err := modelfile.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	model, err := modelfile.LoadLogistic(modelPath, manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		checkCoverage(manifest),
		checkWeights(manifest, model),
		checkClassification(manifest, model),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Manifest: %d columns, %d locations, threshold %.2f\n",
		manifest.Len(), len(manifest.Locations()), model.Threshold())

	for _, p := range phases {
		if p.passed() && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}

	if allPassed {
		fmt.Println("\nAll checks passed.")
		return 0
	}
	fmt.Println("\nCheck FAILED.")
	return 1
}

// ── Phase 1: Manifest coverage ──

func checkCoverage(m *domain.Manifest) *phase {
	p := &phase{name: "Phase 1: Manifest coverage"}

	for _, f := range m.MissingBaseFeatures() {
		p.warnf("base feature %q not in manifest", f)
	}
	for _, s := range m.MissingSeasons() {
		p.warnf("no indicator column for season %s", s)
	}
	for _, c := range m.ExtraColumns() {
		p.warnf("column %q is never set by the encoder", c)
	}
	if len(m.MissingBaseFeatures()) == len(domain.BaseFeatures) {
		p.errorf("manifest has none of the base weather features")
	}
	return p
}

// ── Phase 2: Weights ──

func checkWeights(m *domain.Manifest, model *modelfile.LogisticModel) *phase {
	p := &phase{name: "Phase 2: Model weights"}

	weights := model.Weights()
	if len(weights) != m.Len() {
		p.errorf("model has %d weights, manifest has %d columns", len(weights), m.Len())
		return p
	}

	cols := m.Columns()
	nonZero := 0
	for i, w := range weights {
		if w != 0 {
			nonZero++
			continue
		}
		p.warnf("column %q has zero weight", cols[i])
	}
	if nonZero == 0 {
		p.errorf("every weight is zero; the model ignores its input")
	}
	return p
}

// ── Phase 3: Classification ──
// Encodes a fixed observation for every location and season.

func checkClassification(m *domain.Manifest, model *modelfile.LogisticModel) *phase {
	p := &phase{name: "Phase 3: Classification (all locations)"}

	obs := domain.WeatherObservation{
		TempMax:    32,
		TempMin:    24,
		Humidity:   70,
		Pressure:   1008,
		WindSpeed:  4,
		CloudCover: 60,
		Visibility: 8,
		ObservedAt: time.Date(2024, time.July, 15, 9, 0, 0, 0, time.UTC),
	}

	ctx := context.Background()
	for _, loc := range m.Locations() {
		for _, season := range domain.Seasons {
			row, err := domain.Encode(obs, loc, season, m)
			if err != nil {
				p.errorf("%s/%s: encode: %v", loc, season, err)
				continue
			}
			label, err := model.Predict(ctx, row.Values())
			if err != nil {
				p.errorf("%s/%s: predict: %v", loc, season, err)
				continue
			}
			proba, err := model.PredictProba(ctx, row.Values())
			if err != nil {
				p.errorf("%s/%s: predict_proba: %v", loc, season, err)
				continue
			}
			result, err := domain.NewPredictionResult(label, proba)
			if err != nil {
				p.errorf("%s/%s: %v", loc, season, err)
				continue
			}
			if math.Abs(proba[0]+proba[1]-1) > 1e-9 {
				p.errorf("%s/%s: probabilities sum to %v", loc, season, proba[0]+proba[1])
			}
			if (result.RainProbability >= model.Threshold()) != result.Label {
				p.errorf("%s/%s: will_rain=%t disagrees with probability %.3f", loc, season, result.Label, result.RainProbability)
			}
		}
	}
	return p
}
