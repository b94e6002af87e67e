package ports

import (
	"context"

	"github.com/skillhub/client-registry/internal/core/domain"
)

// AdminService holds privileged account management. actorID is the id of
// the administrator performing the change.
type AdminService interface {
	SetAdmin(ctx context.Context, actorID, targetID string, isAdmin bool) (*domain.Client, error)
	ChangeRole(ctx context.Context, id string, role domain.Role) (*domain.Client, error)
	ChangeStatus(ctx context.Context, actorID, targetID string, status domain.ClientStatus) (*domain.Client, error)
}
