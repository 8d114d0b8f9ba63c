package domain

import (
	"context"
	"fmt"
	"math"
)

// Classifier is a binary rain classifier operating on manifest-aligned rows.
type Classifier interface {
	// Predict returns the classifier's own label: 1 for rain, 0 otherwise.
	Predict(ctx context.Context, row []float64) (int, error)

	// PredictProba returns [p_no_rain, p_rain].
	PredictProba(ctx context.Context, row []float64) ([]float64, error)
}

// PredictionResult is the classifier verdict for one row.
type PredictionResult struct {
	Label           bool    `json:"will_rain"`
	RainProbability float64 `json:"rain_probability"`
}

// NewPredictionResult validates raw classifier output. The label is kept as
// returned even when it disagrees with the probability at the boundary.
func NewPredictionResult(label int, proba []float64) (PredictionResult, error) {
	if label != 0 && label != 1 {
		return PredictionResult{}, fmt.Errorf("%w: label %d", ErrInvalidClassifierOutput, label)
	}
	if len(proba) != 2 {
		return PredictionResult{}, fmt.Errorf("%w: expected 2 probabilities, got %d", ErrInvalidClassifierOutput, len(proba))
	}
	p := proba[1]
	if math.IsNaN(p) || p < 0 || p > 1 {
		return PredictionResult{}, fmt.Errorf("%w: rain probability %v", ErrInvalidClassifierOutput, p)
	}
	return PredictionResult{Label: label == 1, RainProbability: p}, nil
}
