package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillhub/client-registry/internal/core/domain"
	"github.com/skillhub/client-registry/internal/core/ports"
)

var errBackend = errors.New("backend unavailable")

// stubKV is an in-memory key-value store whose reads and writes can be made
// to fail per key.
type stubKV struct {
	mu       sync.Mutex
	data     map[string]string
	failGet  map[string]bool
	failSet  map[string]bool
	sets     int
	failAll  bool
	removals []string
}

func newStubKV() *stubKV {
	return &stubKV{
		data:    make(map[string]string),
		failGet: make(map[string]bool),
		failSet: make(map[string]bool),
	}
}

func (s *stubKV) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll || s.failGet[key] {
		return "", false, errBackend
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *stubKV) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll || s.failSet[key] {
		return errBackend
	}
	s.sets++
	s.data[key] = value
	return nil
}

func (s *stubKV) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errBackend
	}
	s.removals = append(s.removals, key)
	delete(s.data, key)
	return nil
}

func (s *stubKV) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errBackend
	}
	s.data = make(map[string]string)
	return nil
}

// fakeClock is a controllable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(kv *stubKV, clock *fakeClock) *ClientStore {
	return NewClientStore(kv, zerolog.Nop(), WithClock(clock.Now))
}

func clientInput(name, email string) ports.CreateClientInput {
	return ports.CreateClientInput{
		Name:   name,
		Email:  email,
		Role:   domain.RoleReseller,
		Status: domain.StatusActive,
		Preferences: domain.Preferences{
			Theme:    domain.ThemeSystem,
			Language: "pt-BR",
		},
		Metadata: domain.Metadata{
			Source:   domain.SourceDirect,
			Priority: domain.PriorityMedium,
		},
	}
}
