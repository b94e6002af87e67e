package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skillhub/client-registry/internal/core/domain"
)

// ExportAll serialises the full client set as an indented JSON array.
func (s *ClientStore) ExportAll(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, err := s.loadAll(ctx)
	if err != nil {
		return "", fmt.Errorf("export clients: %w", err)
	}
	data, err := json.MarshalIndent(clients, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export clients: %w", err)
	}
	return string(data), nil
}

// ImportAll replaces the stored client set with the clients in payload and
// returns how many were imported. The previous set is discarded.
func (s *ClientStore) ImportAll(ctx context.Context, payload string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.replaceAll(ctx, []byte(payload))
	if err != nil {
		return 0, fmt.Errorf("import clients: %w", err)
	}
	s.logger.Info().Int("count", n).Msg("clients imported")
	return n, nil
}

// MergeImport upserts the clients in payload by id. Existing records keep
// their original CreatedAt. An email owned by a different id fails the whole
// import and leaves storage unchanged.
func (s *ClientStore) MergeImport(ctx context.Context, payload string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	incoming, err := decodeClients([]byte(payload), now)
	if err != nil {
		return 0, fmt.Errorf("merge import: %w", err)
	}
	existing, err := s.loadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("merge import: %w", err)
	}

	merged := existing
	for _, c := range incoming {
		if c.ID == "" {
			merged = append(merged, c)
			continue
		}
		if i := indexByID(merged, c.ID); i >= 0 {
			c.CreatedAt = merged[i].CreatedAt
			c.UpdatedAt = now
			merged[i] = c
			continue
		}
		merged = append(merged, c)
	}
	if err := checkUniqueEmails(merged); err != nil {
		return 0, fmt.Errorf("merge import: %w", err)
	}
	if err := s.raiseCounterFloor(ctx, merged); err != nil {
		return 0, fmt.Errorf("merge import: %w", err)
	}
	s.assignMissingIDs(ctx, merged)

	if err := s.saveAll(ctx, merged); err != nil {
		return 0, fmt.Errorf("merge import: %w", err)
	}
	s.logger.Info().Int("count", len(incoming)).Int("total", len(merged)).Msg("clients merged")
	return len(incoming), nil
}

// Backup serialises the full client set inside a versioned envelope.
func (s *ClientStore) Backup(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, err := s.loadAll(ctx)
	if err != nil {
		return "", fmt.Errorf("backup clients: %w", err)
	}
	data, err := json.MarshalIndent(domain.Backup{
		Timestamp:    s.now(),
		Version:      domain.BackupVersion,
		TotalClients: len(clients),
		Data:         clients,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("backup clients: %w", err)
	}
	return string(data), nil
}

// Restore replaces the stored client set with the data of a backup envelope.
func (s *ClientStore) Restore(ctx context.Context, backup string) (int, error) {
	var envelope struct {
		Timestamp string          `json:"timestamp"`
		Version   string          `json:"version"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(backup), &envelope); err != nil {
		return 0, fmt.Errorf("restore clients: %w: %v", domain.ErrInvalidFormat, err)
	}
	if len(envelope.Data) == 0 {
		return 0, fmt.Errorf("restore clients: %w: backup has no data", domain.ErrInvalidFormat)
	}
	if envelope.Version != domain.BackupVersion {
		s.logger.Warn().Str("version", envelope.Version).Msg("restoring backup with unexpected version")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.replaceAll(ctx, envelope.Data)
	if err != nil {
		return 0, fmt.Errorf("restore clients: %w", err)
	}
	s.logger.Info().Int("count", n).Str("backup_timestamp", envelope.Timestamp).Msg("clients restored")
	return n, nil
}

// ClearAll resets the registry: every client, the id counter and every key
// stored beside them in the backend namespace (credentials, idempotency
// keys) are removed. The counter restarts at zero.
func (s *ClientStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Clear(ctx); err != nil {
		return fmt.Errorf("clear clients: %w: %w", domain.ErrPersistence, err)
	}
	s.counter = 0
	s.counterLoaded = true

	s.logger.Warn().Msg("all clients removed")
	return nil
}

// replaceAll decodes payload and writes it as the whole client set.
// Callers must hold s.mu.
func (s *ClientStore) replaceAll(ctx context.Context, payload []byte) (int, error) {
	clients, err := decodeClients(payload, s.now())
	if err != nil {
		return 0, err
	}
	if err := checkUniqueEmails(clients); err != nil {
		return 0, err
	}
	if err := s.raiseCounterFloor(ctx, clients); err != nil {
		return 0, err
	}
	s.assignMissingIDs(ctx, clients)

	if err := s.saveAll(ctx, clients); err != nil {
		return 0, err
	}
	return len(clients), nil
}

// assignMissingIDs mints ids for records that arrived without one.
// Callers must hold s.mu.
func (s *ClientStore) assignMissingIDs(ctx context.Context, clients []*domain.Client) {
	for _, c := range clients {
		if c.ID == "" {
			c.ID = s.nextID(ctx)
		}
	}
}

// decodeClients parses an import payload. The root must be a JSON array of
// client objects; missing timestamps default to now.
func decodeClients(payload []byte, now time.Time) ([]*domain.Client, error) {
	trimmed := bytes.TrimSpace(payload)
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", domain.ErrInvalidFormat)
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array of clients", domain.ErrInvalidFormat)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}

	clients := make([]*domain.Client, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("%w: record %d is not an object", domain.ErrInvalidFormat, i)
		}
		var c domain.Client
		if err := json.Unmarshal(item, &c); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", domain.ErrInvalidFormat, i, err)
		}
		if c.ID != "" {
			if _, dup := seen[c.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidFormat, c.ID)
			}
			seen[c.ID] = struct{}{}
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = now
		}
		c.Normalize()
		clients = append(clients, &c)
	}
	return clients, nil
}

func checkUniqueEmails(clients []*domain.Client) error {
	seen := make(map[string]string, len(clients))
	for _, c := range clients {
		if other, dup := seen[c.Email]; dup {
			return fmt.Errorf("%w: %s shared by %s and %s", domain.ErrDuplicateEmail, c.Email, other, c.ID)
		}
		seen[c.Email] = c.ID
	}
	return nil
}
