package client

import (
	"context"
	"errors"

	"github.com/kjstillabower/weather-dashboard/internal/circuitbreaker"
	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// BreakerClient guards a WeatherClient with a circuit breaker. While the circuit
// is open, GetTimeline fails fast with circuitbreaker.ErrOpen.
type BreakerClient struct {
	next WeatherClient
	cb   *circuitbreaker.CircuitBreaker
}

// NewBreakerClient wraps next with cb.
func NewBreakerClient(next WeatherClient, cb *circuitbreaker.CircuitBreaker) *BreakerClient {
	return &BreakerClient{next: next, cb: cb}
}

// GetTimeline calls the wrapped client through the breaker. An unknown location is
// a healthy provider answer. Caller cancellation counts as neither success nor failure.
func (b *BreakerClient) GetTimeline(ctx context.Context, query models.Query) ([]byte, error) {
	var body []byte
	var locationErr error
	err := b.cb.Call(func() error {
		var callErr error
		body, callErr = b.next.GetTimeline(ctx, query)
		switch {
		case errors.Is(callErr, ErrLocationNotFound):
			locationErr = callErr
			return nil
		case errors.Is(callErr, context.Canceled):
			return circuitbreaker.Ignore(callErr)
		}
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return body, locationErr
}
