// Package template manages the WhatsApp template registry and decides, at
// call time, whether a template may be used for sending.
package template

import (
	"context"
	"errors"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/sender"
)

// Sentinel errors returned by repositories.
var (
	ErrNotFound = errors.New("template not found")
	ErrExists   = errors.New("template already exists")
)

// Repository defines the data access contract for templates.
type Repository interface {
	Create(ctx context.Context, t *domain.Template) error
	Get(ctx context.Context, id string) (*domain.Template, error)
	// GetByName returns the template with the given name or ErrNotFound.
	GetByName(ctx context.Context, name string) (*domain.Template, error)
	List(ctx context.Context) ([]domain.Template, error)
	// Update replaces an existing template; ErrNotFound if it is gone.
	Update(ctx context.Context, t *domain.Template) error
	Delete(ctx context.Context, id string) error
}

// ApprovalSource reports a template's review status at the provider.
type ApprovalSource interface {
	FetchApproval(ctx context.Context, name, language string) (sender.Approval, error)
}
