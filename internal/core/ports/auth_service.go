package ports

import (
	"context"

	"github.com/skillhub/client-registry/internal/core/domain"
)

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AdminSeed describes the default administrator created on an empty system.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Client, error)
	Login(ctx context.Context, email, password string) (string, *domain.Client, error)
	EnsureDefaultAdmin(ctx context.Context, seed AdminSeed) (*domain.Client, error)
}

// LoginRecorder receives successful logins for asynchronous lastLogin
// bookkeeping. RecordLogin must not block.
type LoginRecorder interface {
	RecordLogin(clientID string)
}
