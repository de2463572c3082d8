package httpclient

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	// Name identifies the breaker in metrics and logs.
	Name string
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval between count resets while closed. Zero never resets.
	Interval time.Duration
	// Timeout before an open breaker transitions to half-open.
	Timeout time.Duration
	// FailureRatio of failures to requests that trips the breaker.
	FailureRatio float64
	// MinRequests before the ratio is evaluated.
	MinRequests uint32
}

// DefaultBreakerConfig returns breaker defaults for the named downstream.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// ErrCircuitOpen is returned when the breaker rejects a request.
var ErrCircuitOpen = gobreaker.ErrOpenState

var breakerState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func init() {
	prometheus.MustRegister(breakerState)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// BreakerClient wraps a Client with a gobreaker circuit breaker so a failing
// downstream sheds load instead of tying up request goroutines.
type BreakerClient struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
	name    string
}

// NewBreakerClient wraps client with a circuit breaker.
func NewBreakerClient(client *Client, cfg BreakerConfig, logger *slog.Logger) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateValue(to))
		},
	}

	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &BreakerClient{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
		logger:  logger,
		name:    cfg.Name,
	}
}

// Do executes the request through the breaker. Responses with 5xx status
// count as failures; 4xx responses do not trip the breaker since they signal
// caller mistakes, not downstream ill health.
func (c *BreakerClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.client.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, &statusError{code: resp.StatusCode}
		}
		return resp, nil
	})
}

// statusError marks a 5xx response as a breaker failure while still handing
// the response back to the caller.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}
