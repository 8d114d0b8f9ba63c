package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/couchcryptid/rain-prediction-service/internal/observability"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// errCallerDone marks a request abandoned because the caller's context ended.
// The breaker does not count it against the upstream.
var errCallerDone = errors.New("request abandoned by caller")

// Client implements domain.WeatherSource using the OpenWeather current weather API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an OpenWeather client. The timeout bounds each request.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		breaker: newBreaker(),
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
}

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         "openweather",
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: isSuccessful,
	})
}

func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, errCallerDone)
}

// Current fetches and normalizes the current observation for a location.
// Every failure wraps domain.ErrObservationUnavailable.
func (c *Client) Current(ctx context.Context, location string) (domain.WeatherObservation, error) {
	name := strings.TrimSpace(location)
	params := url.Values{
		"q":     {name},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	start := c.clock.Now()
	body, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.WeatherAPIDuration.Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		c.logger.Warn("weather request failed", "location", name, "error", err)
		return domain.WeatherObservation{}, fmt.Errorf("%w: %s: %w", domain.ErrObservationUnavailable, name, err)
	}

	raw, err := parseResponse(body)
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("invalid").Inc()
		c.logger.Warn("weather payload rejected", "location", name, "error", err)
		return domain.WeatherObservation{}, fmt.Errorf("%w: %s: %w", domain.ErrObservationUnavailable, name, err)
	}
	if raw.ObservedAt.IsZero() {
		raw.ObservedAt = c.clock.Now().UTC()
	}

	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	return domain.NormalizeObservation(name, raw), nil
}

type httpResult struct {
	status int
	body   []byte
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	// Only transport failures and server-side statuses count against the breaker.
	// A 404 for an unknown city is a normal answer.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errCallerDone, err)
	}
	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", errCallerDone, ctx.Err())
			}
			return nil, fmt.Errorf("weather request: %w", redactURL(err))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
		}
		return httpResult{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return nil, err
	}

	r := result.(httpResult)
	if r.status != http.StatusOK {
		return nil, fmt.Errorf("openweather API error: status %d: %s", r.status, r.body)
	}
	return r.body, nil
}

// redactURL drops the request URL, which carries the API key, from transport errors.
func redactURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

func parseResponse(body []byte) (domain.RawObservation, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.RawObservation{}, fmt.Errorf("decode response: %w", err)
	}
	if err := validate.Struct(resp); err != nil {
		return domain.RawObservation{}, fmt.Errorf("invalid weather payload: %w", err)
	}

	raw := domain.RawObservation{
		TempNow:          *resp.Main.Temp,
		TempMax:          *resp.Main.TempMax,
		TempMin:          *resp.Main.TempMin,
		FeelsLike:        *resp.Main.FeelsLike,
		Humidity:         *resp.Main.Humidity,
		Pressure:         *resp.Main.Pressure,
		VisibilityMeters: resp.Visibility,
		Description:      resp.Weather[0].Description,
	}
	if resp.Wind != nil {
		raw.WindSpeed = resp.Wind.Speed
	}
	if resp.Clouds != nil {
		raw.CloudCover = resp.Clouds.All
	}
	if resp.Dt > 0 {
		raw.ObservedAt = time.Unix(resp.Dt, 0).UTC()
	}
	return raw, nil
}

// OpenWeather API response types. Pointers distinguish absent fields from zeros.

type response struct {
	Main       *mainBlock  `json:"main" validate:"required"`
	Weather    []condition `json:"weather" validate:"required,min=1"`
	Wind       *wind       `json:"wind"`
	Clouds     *clouds     `json:"clouds"`
	Visibility *float64    `json:"visibility" validate:"omitempty,gte=0"`
	Dt         int64       `json:"dt"`
}

type mainBlock struct {
	Temp      *float64 `json:"temp" validate:"required"`
	FeelsLike *float64 `json:"feels_like" validate:"required"`
	TempMin   *float64 `json:"temp_min" validate:"required"`
	TempMax   *float64 `json:"temp_max" validate:"required"`
	Pressure  *float64 `json:"pressure" validate:"required"`
	Humidity  *float64 `json:"humidity" validate:"required,gte=0,lte=100"`
}

type condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type wind struct {
	Speed *float64 `json:"speed" validate:"omitempty,gte=0"`
}

type clouds struct {
	All *float64 `json:"all" validate:"omitempty,gte=0,lte=100"`
}
