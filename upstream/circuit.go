package upstream

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig configures the upstream circuit breaker.
type BreakerConfig struct {
	// Name identifies the breaker in state-change callbacks.
	// Default: "upstream"
	Name string

	// FailureThreshold is the number of consecutive failures that trip
	// the circuit. Default: 5
	FailureThreshold uint32

	// MaxRequests is the number of probe calls allowed while half-open.
	// Default: 1
	MaxRequests uint32

	// Interval resets the failure counts while closed. Zero keeps counts
	// for the life of the closed state.
	Interval time.Duration

	// Timeout is how long the circuit stays open before probing.
	// Default: 30s
	Timeout time.Duration

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(name, from, to string)
}

// Breaker wraps a sony/gobreaker circuit around upstream calls. It trips
// after consecutive failures and rejects calls until a recovery probe
// succeeds.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[[]byte]
}

// NewBreaker creates a circuit breaker for upstream calls.
func NewBreaker(config BreakerConfig) *Breaker {
	// Apply defaults
	if config.Name == "" {
		config.Name = "upstream"
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.MaxRequests == 0 {
		config.MaxRequests = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
	}
	if config.OnStateChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			config.OnStateChange(name, from.String(), to.String())
		}
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker[[]byte](settings)}
}

// Execute runs the call through the circuit breaker.
func (b *Breaker) Execute(fn func() ([]byte, error)) ([]byte, error) {
	return b.cb.Execute(fn)
}

// State returns the current circuit state: "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Counts returns the breaker's request counts for the current window.
func (b *Breaker) Counts() gobreaker.Counts {
	return b.cb.Counts()
}

// Rejected reports whether err is the breaker refusing to attempt the call
// (open circuit, or half-open probe budget exhausted) rather than a failure
// from the call itself.
func Rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
