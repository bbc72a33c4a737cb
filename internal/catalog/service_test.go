package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
)

type stubCatalogRepo struct {
	lastQuery  rbac.Query
	softCalled bool
	hardCalled bool
	created    ProductInput
}

func (s *stubCatalogRepo) List(_ context.Context, q rbac.Query) ([]Product, error) {
	s.lastQuery = q
	return nil, nil
}

func (s *stubCatalogRepo) Get(_ context.Context, q rbac.Query, id int64) (*Product, error) {
	s.lastQuery = q
	return &Product{ID: id}, nil
}

func (s *stubCatalogRepo) Create(_ context.Context, input ProductInput) (int64, error) {
	s.created = input
	return 1, nil
}

func (s *stubCatalogRepo) Update(_ context.Context, q rbac.Query, id int64, input ProductInput) error {
	s.lastQuery = q
	return nil
}

func (s *stubCatalogRepo) SoftDelete(_ context.Context, q rbac.Query, id int64) error {
	s.lastQuery = q
	s.softCalled = true
	return nil
}

func (s *stubCatalogRepo) HardDelete(_ context.Context, id int64) error {
	s.hardCalled = true
	return nil
}

func TestListPinsTenantForTeamRoles(t *testing.T) {
	repo := &stubCatalogRepo{}
	svc := NewService(repo)
	admin := rbac.Principal{ID: 2, Role: rbac.RoleAdmin, TenantKey: "acme"}

	_, err := svc.List(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, repo.lastQuery.Predicates, 1)
	assert.Equal(t, "tenant_key", repo.lastQuery.Predicates[0].Column)
	assert.Equal(t, "acme", repo.lastQuery.Predicates[0].Value)
}

func TestListUnscopedForRoot(t *testing.T) {
	repo := &stubCatalogRepo{}
	svc := NewService(repo)
	root := rbac.Principal{ID: 1, Role: rbac.RoleSuperadmin, TenantKey: rbac.TenantWildcard, IsRoot: true}

	_, err := svc.List(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, repo.lastQuery.Predicates)
}

func TestCreateForcesCallerTenant(t *testing.T) {
	repo := &stubCatalogRepo{}
	svc := NewService(repo)
	admin := rbac.Principal{ID: 2, Role: rbac.RoleAdmin, TenantKey: "acme"}

	_, err := svc.Create(context.Background(), admin, ProductInput{
		SKU: "SKU-1", Name: "Pallet", PriceCents: 1500, TenantKey: "other",
	})
	require.NoError(t, err)
	assert.Equal(t, "acme", repo.created.TenantKey)
}

func TestCreateValidatesInput(t *testing.T) {
	repo := &stubCatalogRepo{}
	svc := NewService(repo)
	admin := rbac.Principal{ID: 2, Role: rbac.RoleAdmin, TenantKey: "acme"}

	_, err := svc.Create(context.Background(), admin, ProductInput{Name: "No SKU"})
	assert.Error(t, err)
}

func TestDeleteSoftForTeamHardForRoot(t *testing.T) {
	repo := &stubCatalogRepo{}
	svc := NewService(repo)

	admin := rbac.Principal{ID: 2, Role: rbac.RoleAdmin, TenantKey: "acme"}
	require.NoError(t, svc.Delete(context.Background(), admin, 10))
	assert.True(t, repo.softCalled)
	assert.False(t, repo.hardCalled)

	repo = &stubCatalogRepo{}
	svc = NewService(repo)
	root := rbac.Principal{ID: 1, Role: rbac.RoleSuperadmin, IsRoot: true}
	require.NoError(t, svc.Delete(context.Background(), root, 10))
	assert.True(t, repo.hardCalled)
	assert.False(t, repo.softCalled)
}
