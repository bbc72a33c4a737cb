package users

import (
	"context"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
}

// Service handles user management business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// VisibleUsers lists the accounts the viewer may manage. Superadmins see
// everyone; other team roles only see accounts below their own tier, plus
// themselves.
func (s *Service) VisibleUsers(ctx context.Context, viewer rbac.Principal) ([]User, error) {
	all, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if viewer.IsRoot {
		return all, nil
	}
	visible := make([]User, 0, len(all))
	for _, user := range all {
		if user.ID == viewer.ID || user.Role.Rank() > viewer.Role.Rank() {
			visible = append(visible, user)
		}
	}
	return visible, nil
}
