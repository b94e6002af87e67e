package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/skillhub/client-registry/internal/core/domain"
	"github.com/skillhub/client-registry/internal/core/ports"
)

type adminService struct {
	clients ports.ClientService
	log     zerolog.Logger
}

// NewAdminService returns the privileged account-management operations.
func NewAdminService(clients ports.ClientService, log zerolog.Logger) ports.AdminService {
	return &adminService{clients: clients, log: log}
}

// SetAdmin grants or revokes the admin flag. An administrator cannot revoke
// their own flag.
func (s *adminService) SetAdmin(ctx context.Context, actorID, targetID string, isAdmin bool) (*domain.Client, error) {
	if !isAdmin && actorID == targetID {
		return nil, domain.ErrSelfDemotion
	}

	updated, err := s.clients.Update(ctx, targetID, ports.ClientPatch{IsAdmin: &isAdmin})
	if err != nil {
		return nil, fmt.Errorf("set admin: %w", err)
	}

	s.log.Info().
		Str("actor_id", actorID).
		Str("client_id", targetID).
		Bool("is_admin", isAdmin).
		Msg("admin flag changed")
	return updated, nil
}

// ChangeRole sets the client's role. Moving to the admin role also grants the
// admin flag; other roles leave the flag as it was.
func (s *adminService) ChangeRole(ctx context.Context, id string, role domain.Role) (*domain.Client, error) {
	patch := ports.ClientPatch{Role: &role}
	if role == domain.RoleAdmin {
		grant := true
		patch.IsAdmin = &grant
	}

	updated, err := s.clients.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}
	s.log.Info().Str("client_id", id).Str("role", string(role)).Msg("role changed")
	return updated, nil
}

// ChangeStatus sets the client's status. An administrator cannot deactivate
// their own account.
func (s *adminService) ChangeStatus(ctx context.Context, actorID, targetID string, status domain.ClientStatus) (*domain.Client, error) {
	if status == domain.StatusInactive && actorID == targetID {
		return nil, domain.ErrSelfDeactivation
	}

	updated, err := s.clients.Update(ctx, targetID, ports.ClientPatch{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("change status: %w", err)
	}
	s.log.Info().
		Str("actor_id", actorID).
		Str("client_id", targetID).
		Str("status", string(status)).
		Msg("status changed")
	return updated, nil
}
