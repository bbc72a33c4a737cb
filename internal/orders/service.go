package orders

import (
	"context"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
)

// RepositoryPort abstracts order persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context, q rbac.Query) ([]Order, error)
	Get(ctx context.Context, id int64) (*Order, error)
	Lines(ctx context.Context, orderID int64) ([]Line, error)
	Create(ctx context.Context, input CreateInput) (int64, error)
	SetStatus(ctx context.Context, q rbac.Query, id int64, status Status) error
}

// Service holds order business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func scopedQuery(p rbac.Principal) rbac.Query {
	return rbac.Scope(p, rbac.NewQuery("orders"))
}

// List returns the orders visible to the principal. Customers only see
// their own orders; team members see their tenant's.
func (s *Service) List(ctx context.Context, p rbac.Principal) ([]Order, error) {
	return s.repo.List(ctx, scopedQuery(p))
}

// Get loads an order and its lines without scoping. The handler runs the
// ownership check against the loaded order before rendering it.
func (s *Service) Get(ctx context.Context, id int64) (*Order, []Line, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.repo.Lines(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return order, lines, nil
}

// Place creates an order owned by the principal. Non-root callers always
// order inside their own tenant under their own identity.
func (s *Service) Place(ctx context.Context, p rbac.Principal, input CreateInput) (int64, error) {
	if !p.IsRoot {
		input.OwnerID = p.ID
		input.CustomerEmail = p.Email
		input.TenantKey = p.TenantKey
	}
	if len(input.Lines) == 0 {
		return 0, ErrEmptyOrder
	}
	for _, line := range input.Lines {
		if line.ProductID <= 0 || line.Qty <= 0 || line.PriceCents < 0 {
			return 0, ErrInvalidLine
		}
	}
	return s.repo.Create(ctx, input)
}

// UpdateStatus moves an order to a new lifecycle state within the
// principal's scope.
func (s *Service) UpdateStatus(ctx context.Context, p rbac.Principal, id int64, status Status) error {
	switch status {
	case StatusPending, StatusConfirmed, StatusShipped, StatusCancelled:
	default:
		return ErrInvalidStatus
	}
	return s.repo.SetStatus(ctx, scopedQuery(p), id, status)
}
