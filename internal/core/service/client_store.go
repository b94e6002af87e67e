package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillhub/client-registry/internal/core/domain"
	"github.com/skillhub/client-registry/internal/core/ports"
)

// Storage keys owned by the client store.
const (
	clientsKey = "skillhub_clients"
	counterKey = "skillhub_client_counter"
)

// ClientStore is the sole owner of the persisted client set. Every
// operation reads the whole set from the backend, works on it in memory and
// writes it back; mu serialises those cycles within the process.
type ClientStore struct {
	kv     ports.KeyValueStore
	logger zerolog.Logger
	now    func() time.Time

	mu            sync.Mutex
	counter       int64
	counterLoaded bool
}

// Option customises a ClientStore.
type Option func(*ClientStore)

// WithClock overrides the time source used for timestamps and stats.
func WithClock(now func() time.Time) Option {
	return func(s *ClientStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewClientStore(kv ports.KeyValueStore, logger zerolog.Logger, opts ...Option) *ClientStore {
	s := &ClientStore{
		kv:     kv,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ClientService = (*ClientStore)(nil)

// Create stores a new client with a freshly minted id and timestamps.
func (s *ClientStore) Create(ctx context.Context, input ports.CreateClientInput) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, err := s.loadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	if indexByEmail(clients, input.Email) >= 0 {
		return nil, fmt.Errorf("create client: %w", domain.ErrDuplicateEmail)
	}

	now := s.now()
	client := &domain.Client{
		ID:          s.nextID(ctx),
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Company:     input.Company,
		Role:        input.Role,
		IsAdmin:     input.IsAdmin,
		Status:      input.Status,
		Avatar:      input.Avatar,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLogin:   input.LastLogin,
		Preferences: input.Preferences,
		Metadata:    input.Metadata,
	}
	client = client.Clone()
	client.Normalize()

	if err := s.saveAll(ctx, append(clients, client)); err != nil {
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to create client")
		return nil, fmt.Errorf("create client: %w", err)
	}

	s.logger.Info().Str("client_id", client.ID).Str("role", string(client.Role)).Msg("client created")
	return client.Clone(), nil
}

// GetByID returns the client with id, or nil when there is none.
func (s *ClientStore) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, err := s.loadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if i := indexByID(clients, id); i >= 0 {
		return clients[i], nil
	}
	return nil, nil
}

// GetByEmail returns the client registered with email, or nil when there is none.
func (s *ClientStore) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, err := s.loadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get client by email: %w", err)
	}
	if i := indexByEmail(clients, email); i >= 0 {
		return clients[i], nil
	}
	return nil, nil
}

// List returns the clients matching filter, newest first.
func (s *ClientStore) List(ctx context.Context, filter domain.ClientFilter) ([]*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, err := s.loadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	matched := clients
	if !filter.IsEmpty() {
		matched = make([]*domain.Client, 0, len(clients))
		for _, c := range clients {
			if filter.Matches(c) {
				matched = append(matched, c)
			}
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

// Update merges patch onto the stored client and refreshes UpdatedAt.
func (s *ClientStore) Update(ctx context.Context, id string, patch ports.ClientPatch) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, err := s.loadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}

	i := indexByID(clients, id)
	if i < 0 {
		return nil, fmt.Errorf("update client %s: %w", id, domain.ErrClientNotFound)
	}
	current := clients[i]
	if patch.Email != nil && *patch.Email != current.Email && indexByEmail(clients, *patch.Email) >= 0 {
		return nil, fmt.Errorf("update client %s: %w", id, domain.ErrDuplicateEmail)
	}

	applyPatch(current, patch)
	current.UpdatedAt = s.now()
	current.Normalize()

	if err := s.saveAll(ctx, clients); err != nil {
		return nil, fmt.Errorf("update client %s: %w", id, err)
	}

	s.logger.Info().Str("client_id", id).Msg("client updated")
	return current.Clone(), nil
}

// Delete permanently removes the client with id and its credential.
func (s *ClientStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, err := s.loadAll(ctx)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}

	kept := make([]*domain.Client, 0, len(clients))
	for _, c := range clients {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(clients) {
		return fmt.Errorf("delete client %s: %w", id, domain.ErrClientNotFound)
	}

	if err := s.saveAll(ctx, kept); err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	// The client's credential shares the backend and is keyed by id.
	if err := s.kv.Remove(ctx, credentialKey(id)); err != nil {
		s.logger.Warn().Err(err).Str("client_id", id).Msg("failed to remove credential of deleted client")
	}

	s.logger.Info().Str("client_id", id).Msg("client deleted")
	return nil
}

// UpdateLastLogin stamps the client's last login. Failures are logged only
// so that authentication never depends on this bookkeeping.
func (s *ClientStore) UpdateLastLogin(ctx context.Context, id string) {
	now := s.now()
	if _, err := s.Update(ctx, id, ports.ClientPatch{LastLogin: &now}); err != nil {
		s.logger.Warn().Err(err).Str("client_id", id).Msg("failed to update last login")
	}
}

// Stats aggregates the full client set.
func (s *ClientStore) Stats(ctx context.Context) (domain.ClientStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, err := s.loadAll(ctx)
	if err != nil {
		return domain.ClientStats{}, fmt.Errorf("client stats: %w", err)
	}
	return domain.ComputeStats(clients, s.now()), nil
}

// loadAll reads and decodes the full client set. A missing key is an empty set.
func (s *ClientStore) loadAll(ctx context.Context) ([]*domain.Client, error) {
	raw, found, err := s.kv.Get(ctx, clientsKey)
	if err != nil {
		return nil, fmt.Errorf("%w: read clients: %w", domain.ErrPersistence, err)
	}
	if !found || raw == "" {
		return []*domain.Client{}, nil
	}

	var decoded []*domain.Client
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode clients: %w", domain.ErrPersistence, err)
	}

	clients := make([]*domain.Client, 0, len(decoded))
	for _, c := range decoded {
		if c == nil {
			continue
		}
		c.Normalize()
		clients = append(clients, c)
	}
	return clients, nil
}

func (s *ClientStore) saveAll(ctx context.Context, clients []*domain.Client) error {
	data, err := json.Marshal(clients)
	if err != nil {
		return fmt.Errorf("%w: encode clients: %w", domain.ErrPersistence, err)
	}
	if err := s.kv.Set(ctx, clientsKey, string(data)); err != nil {
		return fmt.Errorf("%w: write clients: %w", domain.ErrPersistence, err)
	}
	return nil
}

func applyPatch(c *domain.Client, p ports.ClientPatch) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Role != nil {
		c.Role = *p.Role
	}
	if p.IsAdmin != nil {
		c.IsAdmin = *p.IsAdmin
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Avatar != nil {
		c.Avatar = *p.Avatar
	}
	if p.LastLogin != nil {
		ts := *p.LastLogin
		c.LastLogin = &ts
	}
	if p.Preferences != nil {
		c.Preferences = *p.Preferences
	}
	if p.Metadata != nil {
		c.Metadata = p.Metadata.Clone()
	}
}

// indexByEmail compares emails exactly, without case folding.
func indexByEmail(clients []*domain.Client, email string) int {
	for i, c := range clients {
		if c.Email == email {
			return i
		}
	}
	return -1
}

func indexByID(clients []*domain.Client, id string) int {
	for i, c := range clients {
		if c.ID == id {
			return i
		}
	}
	return -1
}
