// Command predict runs a single rain prediction and prints it as JSON.
// It reads the same environment as the server.
//
// Usage:
//
//	go run ./cmd/predict -location Delhi
//	go run ./cmd/predict -list
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/rain-prediction-service/internal/app"
	"github.com/couchcryptid/rain-prediction-service/internal/config"
	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/couchcryptid/rain-prediction-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Exit codes per failure kind so scripts can branch without parsing output.
const (
	exitOK = iota
	exitFailure
	exitUnknownLocation
	exitObservationUnavailable
	exitModelNotReady
)

func main() {
	location := flag.String("location", "", "location name as it appears in the model manifest")
	list := flag.Bool("list", false, "print the locations the model knows and exit")
	verbose := flag.Bool("v", false, "log progress to stderr")
	flag.Parse()

	if *location == "" && !*list {
		flag.Usage()
		os.Exit(exitFailure)
	}

	os.Exit(run(*location, *list, *verbose))
}

func run(location string, list, verbose bool) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitFailure
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// The one-shot run never reads the cache twice.
	cfg.WeatherCache = false
	metrics := observability.NewMetrics()
	model, err := app.LoadModel(cfg, logger, metrics)
	if err != nil {
		// Carry on not-ready so the failure is reported with its exit code.
		logger.Warn("model not loaded", "error", err)
	}
	svc, _ := app.NewService(cfg, model, clockwork.NewRealClock(), logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if list {
		locations, err := svc.Locations()
		if err != nil {
			return report(err)
		}
		return printJSON(locations)
	}

	prediction, err := svc.Predict(ctx, location)
	if err != nil {
		return report(err)
	}
	return printJSON(prediction)
}

func report(err error) int {
	fmt.Fprintf(os.Stderr, "predict: %v\n", err)
	switch {
	case errors.Is(err, domain.ErrUnknownLocation):
		return exitUnknownLocation
	case errors.Is(err, domain.ErrObservationUnavailable):
		return exitObservationUnavailable
	case errors.Is(err, domain.ErrModelNotReady):
		return exitModelNotReady
	default:
		return exitFailure
	}
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		return exitFailure
	}
	return exitOK
}
