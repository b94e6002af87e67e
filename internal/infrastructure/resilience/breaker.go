package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/skillhub/client-registry/internal/core/ports"
)

// BackendStore is the contract a remote key-value backend satisfies.
type BackendStore interface {
	ports.KeyValueStore
	ports.Pinger
}

// BreakerStore wraps a remote key-value backend with a circuit breaker so a
// failing backend is rejected fast instead of timing out every request.
type BreakerStore struct {
	next BackendStore
	cb   *gobreaker.CircuitBreaker
}

// BreakerSettings tunes the breaker. Zero values fall back to defaults.
type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

func NewBreakerStore(name string, next BackendStore, cfg BreakerSettings, log zerolog.Logger) *BreakerStore {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &BreakerStore{next: next, cb: cb}
}

var _ BackendStore = (*BreakerStore)(nil)

type getResult struct {
	value string
	found bool
}

func (s *BreakerStore) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		v, found, err := s.next.Get(ctx, key)
		return getResult{value: v, found: found}, err
	})
	if err != nil {
		return "", false, wrap(err)
	}
	r := res.(getResult)
	return r.value, r.found, nil
}

func (s *BreakerStore) Set(ctx context.Context, key, value string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Set(ctx, key, value)
	})
	return wrap(err)
}

func (s *BreakerStore) Remove(ctx context.Context, key string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Remove(ctx, key)
	})
	return wrap(err)
}

func (s *BreakerStore) Clear(ctx context.Context) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Clear(ctx)
	})
	return wrap(err)
}

// Ping bypasses the breaker so health checks see the backend's real state.
func (s *BreakerStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// State exposes the breaker state for diagnostics.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("kv backend unavailable: %w", err)
	}
	return err
}
