package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillhub/client-registry/internal/core/domain"
	"github.com/skillhub/client-registry/internal/core/ports"
)

const (
	credentialKeyPrefix = "skillhub_credential:"
	minPasswordLength   = 6

	DefaultAdminEmail = "admin@skillhub.com"
	DefaultAdminName  = "SkillHub Administrator"
)

// AuthService implements registration, login and the default admin seed.
// Password hashes live in the same key-value backend as the client set,
// one key per client id, so an email change keeps the password.
type AuthService struct {
	clients     ports.ClientService
	credentials ports.KeyValueStore
	recorder    ports.LoginRecorder
	jwtSecret   string
	tokenTTL    time.Duration
	log         zerolog.Logger
}

func NewAuthService(
	clients ports.ClientService,
	credentials ports.KeyValueStore,
	recorder ports.LoginRecorder,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		clients:     clients,
		credentials: credentials,
		recorder:    recorder,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		log:         log,
	}
}

var _ ports.AuthService = (*AuthService)(nil)

// credential is the stored secret of one client. ClientCreatedAt pins it to
// the account it was issued for: an id reused after ClearAll or an import
// does not inherit it.
type credential struct {
	Hash            string    `json:"hash"`
	ClientCreatedAt time.Time `json:"clientCreatedAt"`
}

// Register creates an active reseller account for a self-service sign-up.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Client, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	client, err := s.clients.Create(ctx, ports.CreateClientInput{
		Name:      name,
		Email:     email,
		Role:      domain.RoleReseller,
		Status:    domain.StatusActive,
		LastLogin: &now,
		Preferences: domain.Preferences{
			Theme:         domain.ThemeSystem,
			Language:      "pt-BR",
			Notifications: domain.NotificationSettings{Email: true, Push: true},
			Privacy:       domain.PrivacySettings{MarketingEmails: true, Analytics: true},
		},
		Metadata: domain.Metadata{
			Source:       domain.SourceDirect,
			Tags:         []string{"new-signup", "reseller"},
			Notes:        "Registered through the app",
			Priority:     domain.PriorityMedium,
			CustomFields: map[string]any{},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	if err := s.saveCredential(ctx, client, hash); err != nil {
		// Without a credential the account is unusable; roll it back.
		if delErr := s.clients.Delete(ctx, client.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("client_id", client.ID).Msg("failed to roll back registration")
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("client_id", client.ID).Msg("client registered")
	return client, nil
}

// Login verifies the password for email and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Client, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	client, err := s.clients.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	if client == nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	cred, found, err := s.loadCredential(ctx, client.ID)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	if !found {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !cred.ClientCreatedAt.Equal(client.CreatedAt) {
		s.log.Warn().Str("client_id", client.ID).Msg("credential belongs to an earlier account with this id")
		return "", nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.Hash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if client.Status == domain.StatusInactive {
		return "", nil, domain.ErrAccountInactive
	}

	token, err := s.generateToken(client)
	if err != nil {
		return "", nil, fmt.Errorf("login: sign token: %w", err)
	}

	s.recordLogin(ctx, client.ID)
	return token, client, nil
}

// EnsureDefaultAdmin creates the default administrator when no client holds
// the admin flag. It is a no-op otherwise and returns the existing admin.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, seed ports.AdminSeed) (*domain.Client, error) {
	if seed.Email == "" {
		seed.Email = DefaultAdminEmail
	}
	if seed.Name == "" {
		seed.Name = DefaultAdminName
	}

	all, err := s.clients.List(ctx, domain.ClientFilter{})
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	for _, c := range all {
		if c.IsAdmin {
			s.log.Debug().Str("client_id", c.ID).Msg("admin already present")
			return c, nil
		}
	}

	existing, err := s.clients.GetByEmail(ctx, seed.Email)
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	if existing != nil {
		s.log.Info().Str("client_id", existing.ID).Msg("default admin email already registered")
		return existing, nil
	}

	admin, err := s.clients.Create(ctx, ports.CreateClientInput{
		Name:    seed.Name,
		Email:   seed.Email,
		Company: "SkillHub",
		Role:    domain.RoleAdmin,
		IsAdmin: true,
		Status:  domain.StatusActive,
		Preferences: domain.Preferences{
			Theme:         domain.ThemeSystem,
			Language:      "pt-BR",
			Notifications: domain.NotificationSettings{Email: true, Push: true},
			Privacy:       domain.PrivacySettings{Analytics: true},
		},
		Metadata: domain.Metadata{
			Source:   domain.SourceSystem,
			Tags:     []string{"admin", "system", "default"},
			Notes:    "Default administrator created by the system",
			Priority: domain.PriorityHigh,
			CustomFields: map[string]any{
				"isDefaultAdmin": true,
				"createdBy":      "system",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	if seed.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("seed admin: hash password: %w", err)
		}
		if err := s.saveCredential(ctx, admin, hash); err != nil {
			return nil, fmt.Errorf("seed admin: %w", err)
		}
	} else {
		s.log.Warn().Str("email", seed.Email).Msg("default admin created without a password; login disabled until one is set")
	}

	s.log.Info().Str("client_id", admin.ID).Str("email", admin.Email).Msg("default admin created")
	return admin, nil
}

// recordLogin hands the login to the recorder, or stamps it inline when no
// recorder is configured.
func (s *AuthService) recordLogin(ctx context.Context, clientID string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(clientID)
		return
	}
	s.clients.UpdateLastLogin(ctx, clientID)
}

func (s *AuthService) generateToken(c *domain.Client) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      c.ID,
		"email":    c.Email,
		"role":     string(c.Role),
		"is_admin": c.IsAdmin,
		// created_at ties the token to this account; LoadClient rejects it
		// once the id belongs to someone else.
		"created_at": c.CreatedAt.UnixMilli(),
		"iat":        now.Unix(),
		"exp":        now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) saveCredential(ctx context.Context, c *domain.Client, hash []byte) error {
	data, err := json.Marshal(credential{Hash: string(hash), ClientCreatedAt: c.CreatedAt})
	if err != nil {
		return fmt.Errorf("%w: encode credential: %w", domain.ErrPersistence, err)
	}
	if err := s.credentials.Set(ctx, credentialKey(c.ID), string(data)); err != nil {
		return fmt.Errorf("%w: store credential: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *AuthService) loadCredential(ctx context.Context, clientID string) (credential, bool, error) {
	raw, found, err := s.credentials.Get(ctx, credentialKey(clientID))
	if err != nil {
		return credential{}, false, fmt.Errorf("%w: read credential: %w", domain.ErrPersistence, err)
	}
	if !found {
		return credential{}, false, nil
	}
	var cred credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return credential{}, false, fmt.Errorf("%w: decode credential: %w", domain.ErrPersistence, err)
	}
	return cred, true, nil
}

func credentialKey(clientID string) string {
	return credentialKeyPrefix + clientID
}
