package admin

import (
	"context"
	"errors"
	"fmt"

	"repairflow/auth"
)

// ErrInvalidRole signals a role outside the enumerated set.
var ErrInvalidRole = errors.New("admin: invalid role")

// Service exposes administrative operations over user accounts.
type Service struct {
	repo Repository
}

// NewService builds a Service using the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all user accounts ordered by role then name.
func (s *Service) ListUsers(ctx context.Context) ([]Account, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateRole changes a user's role. The role is validated against the fixed
// enumerated set before any storage access.
func (s *Service) UpdateRole(ctx context.Context, userID int64, role auth.Role) error {
	if !auth.ValidRole(role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return s.repo.UpdateRole(ctx, userID, role)
}
