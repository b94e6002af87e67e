package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skillhub/client-registry/internal/core/domain"
)

const clientIDPrefix = "CLIENT_"

// nextID mints the next sequential client id. The counter is loaded from the
// backend on first use and persisted before the id is handed out; when the
// backend cannot be read or written a time-plus-random id is returned so
// creation never reuses an id. Callers must hold s.mu.
func (s *ClientStore) nextID(ctx context.Context) string {
	if err := s.ensureCounter(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("client counter unavailable, using fallback id")
		return fallbackClientID(s.now())
	}

	next := s.counter + 1
	if err := s.kv.Set(ctx, counterKey, strconv.FormatInt(next, 10)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist client counter, using fallback id")
		return fallbackClientID(s.now())
	}
	s.counter = next
	return formatClientID(next)
}

func (s *ClientStore) ensureCounter(ctx context.Context) error {
	if s.counterLoaded {
		return nil
	}
	raw, found, err := s.kv.Get(ctx, counterKey)
	if err != nil {
		return fmt.Errorf("read client counter: %w", err)
	}
	var n int64
	if found && strings.TrimSpace(raw) != "" {
		n, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("parse client counter %q: %w", raw, err)
		}
	}
	s.counter = n
	s.counterLoaded = true
	return nil
}

// raiseCounterFloor makes sure the counter is at least the highest
// sequential id present in clients, so later creates cannot collide with
// imported records. Callers must hold s.mu.
func (s *ClientStore) raiseCounterFloor(ctx context.Context, clients []*domain.Client) error {
	var highest int64
	for _, c := range clients {
		if n, ok := parseClientSeq(c.ID); ok && n > highest {
			highest = n
		}
	}
	if err := s.ensureCounter(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if highest <= s.counter {
		return nil
	}
	if err := s.kv.Set(ctx, counterKey, strconv.FormatInt(highest, 10)); err != nil {
		return fmt.Errorf("%w: write client counter: %w", domain.ErrPersistence, err)
	}
	s.counter = highest
	return nil
}

// formatClientID renders CLIENT_ followed by n padded to at least 3 digits.
func formatClientID(n int64) string {
	return fmt.Sprintf("%s%03d", clientIDPrefix, n)
}

func fallbackClientID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s%d_%s", clientIDPrefix, now.UnixMilli(), suffix)
}

// parseClientSeq extracts n from a sequential id of the form CLIENT_###.
// Fallback ids (CLIENT_<millis>_<random>) are not sequential.
func parseClientSeq(id string) (int64, bool) {
	digits, ok := strings.CutPrefix(id, clientIDPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
