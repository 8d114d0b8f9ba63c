package domain

import "errors"

var (
	// ErrObservationUnavailable means the weather source could not produce a
	// usable observation. Callers may retry later.
	ErrObservationUnavailable = errors.New("weather observation unavailable")

	// ErrUnknownLocation means the location is not one the classifier was
	// trained on. Retrying will not help.
	ErrUnknownLocation = errors.New("unknown location")

	// ErrModelNotReady means the classifier or its manifest failed to load.
	ErrModelNotReady = errors.New("model or feature manifest not loaded")

	// ErrInvalidManifest means a manifest failed structural validation.
	ErrInvalidManifest = errors.New("invalid feature manifest")

	// ErrInvalidClassifierOutput means the classifier returned a label or
	// probability distribution outside its contract.
	ErrInvalidClassifierOutput = errors.New("invalid classifier output")
)

// Outcome labels used in metrics and outcome messages.
const (
	OutcomeSuccess                = "success"
	OutcomeUnknownLocation        = "unknown_location"
	OutcomeObservationUnavailable = "observation_unavailable"
	OutcomeModelNotReady          = "model_not_ready"
	OutcomeClassifierError        = "classifier_error"
)

// OutcomeOf classifies err into one of the outcome labels.
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrUnknownLocation):
		return OutcomeUnknownLocation
	case errors.Is(err, ErrObservationUnavailable):
		return OutcomeObservationUnavailable
	case errors.Is(err, ErrModelNotReady):
		return OutcomeModelNotReady
	default:
		return OutcomeClassifierError
	}
}
