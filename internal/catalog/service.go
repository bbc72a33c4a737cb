package catalog

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context, q rbac.Query) ([]Product, error)
	Get(ctx context.Context, q rbac.Query, id int64) (*Product, error)
	Create(ctx context.Context, input ProductInput) (int64, error)
	Update(ctx context.Context, q rbac.Query, id int64, input ProductInput) error
	SoftDelete(ctx context.Context, q rbac.Query, id int64) error
	HardDelete(ctx context.Context, id int64) error
}

// Service coordinates catalogue operations. Every read or mutation runs
// against a query scoped to the caller first.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func scopedQuery(p rbac.Principal) rbac.Query {
	return rbac.Scope(p, rbac.NewQuery("products"))
}

// List returns the products visible to the principal.
func (s *Service) List(ctx context.Context, p rbac.Principal) ([]Product, error) {
	return s.repo.List(ctx, scopedQuery(p))
}

// Get returns one visible product.
func (s *Service) Get(ctx context.Context, p rbac.Principal, id int64) (*Product, error) {
	return s.repo.Get(ctx, scopedQuery(p), id)
}

// Create adds a product to the principal's tenant.
func (s *Service) Create(ctx context.Context, p rbac.Principal, input ProductInput) (int64, error) {
	if !p.IsRoot {
		input.TenantKey = p.TenantKey
	}
	if err := s.validate.Struct(input); err != nil {
		return 0, err
	}
	return s.repo.Create(ctx, input)
}

// Update edits a visible product.
func (s *Service) Update(ctx context.Context, p rbac.Principal, id int64, input ProductInput) error {
	if err := s.validate.Struct(input); err != nil {
		return err
	}
	return s.repo.Update(ctx, scopedQuery(p), id, input)
}

// Delete removes a product. Root accounts delete the row outright;
// everyone else deactivates it.
func (s *Service) Delete(ctx context.Context, p rbac.Principal, id int64) error {
	if p.IsRoot {
		return s.repo.HardDelete(ctx, id)
	}
	return s.repo.SoftDelete(ctx, scopedQuery(p), id)
}
