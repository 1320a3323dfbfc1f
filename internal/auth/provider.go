package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	repo "github.com/Additional-Code/gavel/internal/repository/user"
)

// Identity is the display identity attached to bid and presence events.
type Identity struct {
	ID   string
	Name string
}

// Provider resolves an authenticated user id to a display identity.
type Provider interface {
	Resolve(ctx context.Context, userID string) (Identity, error)
}

// DirectoryProvider resolves identities from the user store. Unknown ids
// fall back to the raw id as display name; the caller was already
// authenticated upstream, so a missing row only degrades presentation.
type DirectoryProvider struct {
	users  *repo.Repository
	logger *zap.Logger
}

// NewDirectoryProvider wires a Provider backed by the user repository.
func NewDirectoryProvider(users *repo.Repository, logger *zap.Logger) *DirectoryProvider {
	return &DirectoryProvider{users: users, logger: logger}
}

// Resolve looks up the user's display name.
func (p *DirectoryProvider) Resolve(ctx context.Context, userID string) (Identity, error) {
	u, err := p.users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return Identity{ID: userID, Name: userID}, nil
	}
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("identity lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return Identity{}, err
	}
	return Identity{ID: u.ID, Name: u.Name}, nil
}
