package ports

import (
	"context"
	"time"

	"github.com/skillhub/client-registry/internal/core/domain"
)

// CreateClientInput carries every client field the caller may set. The id
// and both timestamps are assigned by the store.
type CreateClientInput struct {
	Name        string
	Email       string
	Phone       string
	Company     string
	Role        domain.Role
	IsAdmin     bool
	Status      domain.ClientStatus
	Avatar      string
	LastLogin   *time.Time
	Preferences domain.Preferences
	Metadata    domain.Metadata
}

// ClientPatch is a partial update. Nil fields are left untouched; nested
// structures are replaced as a whole when present.
type ClientPatch struct {
	Name        *string
	Email       *string
	Phone       *string
	Company     *string
	Role        *domain.Role
	IsAdmin     *bool
	Status      *domain.ClientStatus
	Avatar      *string
	LastLogin   *time.Time
	Preferences *domain.Preferences
	Metadata    *domain.Metadata
}

// IsEmpty reports whether the patch changes nothing but updatedAt.
func (p ClientPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Company == nil &&
		p.Role == nil && p.IsAdmin == nil && p.Status == nil && p.Avatar == nil &&
		p.LastLogin == nil && p.Preferences == nil && p.Metadata == nil
}

// ClientService is the durable client registry.
type ClientService interface {
	Create(ctx context.Context, input CreateClientInput) (*domain.Client, error)
	// GetByID returns nil without error when no client has that id.
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	// GetByEmail returns nil without error when no client has that email.
	GetByEmail(ctx context.Context, email string) (*domain.Client, error)
	// List returns matching clients, most recently created first.
	List(ctx context.Context, filter domain.ClientFilter) ([]*domain.Client, error)
	Update(ctx context.Context, id string, patch ClientPatch) (*domain.Client, error)
	Delete(ctx context.Context, id string) error
	// UpdateLastLogin is best effort: failures are logged, never returned.
	UpdateLastLogin(ctx context.Context, id string)
	Stats(ctx context.Context) (domain.ClientStats, error)

	ExportAll(ctx context.Context) (string, error)
	// ImportAll replaces the whole client set with the payload.
	ImportAll(ctx context.Context, payload string) (int, error)
	// MergeImport upserts the payload's clients by id.
	MergeImport(ctx context.Context, payload string) (int, error)
	Backup(ctx context.Context) (string, error)
	// Restore replaces the whole client set with a backup's data.
	Restore(ctx context.Context, backup string) (int, error)
	ClearAll(ctx context.Context) error
}
