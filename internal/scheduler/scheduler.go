package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/observability"
	"github.com/go-co-op/gocron"
)

const refreshTimeout = 30 * time.Second

// Refresher re-fetches the observation for a location and stores it.
type Refresher interface {
	Refresh(ctx context.Context, location string) error
}

// LocationFilter reports whether a location is known to the model.
type LocationFilter interface {
	HasLocation(location string) bool
}

// Warmer keeps the observation cache hot for a fixed set of locations.
type Warmer struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	locations []string
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New builds a Warmer. Locations the model does not know are dropped with a
// warning, since every request for them would be rejected before a fetch.
func New(locations []string, interval time.Duration, refresher Refresher, filter LocationFilter, logger *slog.Logger, metrics *observability.Metrics) *Warmer {
	known := make([]string, 0, len(locations))
	for _, loc := range locations {
		if filter != nil && !filter.HasLocation(loc) {
			logger.Warn("skipping warm location unknown to the model", "location", loc)
			continue
		}
		known = append(known, loc)
	}
	return &Warmer{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		locations: known,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}
}

// Locations returns the locations that will be refreshed.
func (w *Warmer) Locations() []string {
	return append([]string(nil), w.locations...)
}

// Start schedules the refresh job. The first run happens immediately.
func (w *Warmer) Start() error {
	if len(w.locations) == 0 {
		w.logger.Info("no warm locations configured; scheduler idle")
		return nil
	}
	if w.interval <= 0 {
		return errors.New("warm interval must be positive")
	}

	_, err := w.scheduler.Every(w.interval).SingletonMode().Do(func() {
		w.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	w.scheduler.StartAsync()
	w.logger.Info("cache warmer started", "locations", len(w.locations), "interval", w.interval)
	return nil
}

// Stop cancels future runs.
func (w *Warmer) Stop() {
	w.scheduler.Stop()
}

// RunOnce refreshes every location concurrently and returns the number of failures.
func (w *Warmer) RunOnce(ctx context.Context) int {
	w.logger.Debug("running cache warm job", "locations", len(w.locations))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)
	for _, loc := range w.locations {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
			defer cancel()

			if err := w.refresher.Refresh(ctx, loc); err != nil {
				w.logger.Warn("cache warm failed", "location", loc, "error", err)
				w.metrics.WarmRuns.WithLabelValues("error").Inc()
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}
			w.metrics.WarmRuns.WithLabelValues("success").Inc()
		}()
	}
	wg.Wait()
	return failures
}
