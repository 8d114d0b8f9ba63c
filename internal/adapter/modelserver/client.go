package modelserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/couchcryptid/rain-prediction-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
)

// Client implements domain.Classifier against a model-serving sidecar that
// hosts the trained classifier behind /predict and /predict_proba.
type Client struct {
	baseURL    string
	columns    []string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a model server client. Rows are sent with the manifest's
// column names so the server can verify alignment.
func NewClient(baseURL string, timeout time.Duration, manifest *domain.Manifest, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		columns: manifest.Columns(),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: newBreaker(),
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
}

// errCallerDone marks a call abandoned because the caller's context ended.
// The breaker does not count it against the model server.
var errCallerDone = errors.New("request abandoned by caller")

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         "model-server",
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      30 * time.Second,
		IsSuccessful: isSuccessful,
	})
}

func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, errCallerDone)
}

type request struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

type labelsResponse struct {
	Labels []int `json:"labels"`
}

type probaResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
}

func (c *Client) Predict(ctx context.Context, row []float64) (int, error) {
	var resp labelsResponse
	if err := c.post(ctx, "/predict", row, &resp); err != nil {
		return 0, err
	}
	if len(resp.Labels) != 1 {
		return 0, fmt.Errorf("model server returned %d labels for 1 row", len(resp.Labels))
	}
	return resp.Labels[0], nil
}

func (c *Client) PredictProba(ctx context.Context, row []float64) ([]float64, error) {
	var resp probaResponse
	if err := c.post(ctx, "/predict_proba", row, &resp); err != nil {
		return nil, err
	}
	if len(resp.Probabilities) != 1 {
		return nil, fmt.Errorf("model server returned %d distributions for 1 row", len(resp.Probabilities))
	}
	return resp.Probabilities[0], nil
}

func (c *Client) post(ctx context.Context, path string, row []float64, out any) error {
	if len(row) != len(c.columns) {
		return fmt.Errorf("row has %d values, manifest has %d columns", len(row), len(c.columns))
	}
	body, err := json.Marshal(request{Columns: c.columns, Rows: [][]float64{row}})
	if err != nil {
		return fmt.Errorf("marshal model request: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", errCallerDone, err)
	}

	start := c.clock.Now()
	defer func() { c.metrics.ModelServerLatency.Observe(c.clock.Since(start).Seconds()) }()

	data, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", errCallerDone, ctx.Err())
			}
			return nil, fmt.Errorf("model server request: %w", err)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("read model response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("model server error: status %d: %s", resp.StatusCode, payload)
		}
		return payload, nil
	})
	if err != nil {
		c.logger.Error("model server call failed", "path", path, "error", err)
		return err
	}

	if err := json.Unmarshal(data.([]byte), out); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}
