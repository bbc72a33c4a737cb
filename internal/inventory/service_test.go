package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
)

type stockRow struct {
	qty    int64
	tenant string
}

type fakeStockRepo struct {
	rows      map[[2]int64]stockRow
	movements []Movement
	lastQuery rbac.Query
	lockOrder []int64
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{rows: make(map[[2]int64]stockRow)}
}

func (f *fakeStockRepo) setRow(warehouseID, productID, qty int64, tenant string) {
	f.rows[[2]int64{warehouseID, productID}] = stockRow{qty: qty, tenant: tenant}
}

func (f *fakeStockRepo) qty(warehouseID, productID int64) int64 {
	return f.rows[[2]int64{warehouseID, productID}].qty
}

func (f *fakeStockRepo) List(_ context.Context, q rbac.Query) ([]StockLevel, error) {
	f.lastQuery = q
	return nil, nil
}

func (f *fakeStockRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	snapshot := make(map[[2]int64]stockRow, len(f.rows))
	for k, v := range f.rows {
		snapshot[k] = v
	}
	moved := len(f.movements)
	if err := fn(ctx, (*fakeStockTx)(f)); err != nil {
		f.rows = snapshot
		f.movements = f.movements[:moved]
		return err
	}
	return nil
}

type fakeStockTx fakeStockRepo

func scopeMatches(q rbac.Query, row stockRow) bool {
	for _, p := range q.Predicates {
		if p.Column == "tenant_key" && p.Value != row.tenant {
			return false
		}
	}
	return true
}

func (f *fakeStockTx) GetQtyForUpdate(_ context.Context, q rbac.Query, warehouseID, productID int64) (int64, error) {
	f.lockOrder = append(f.lockOrder, warehouseID)
	row, ok := f.rows[[2]int64{warehouseID, productID}]
	if !ok || !scopeMatches(q, row) {
		return 0, ErrStockNotFound
	}
	return row.qty, nil
}

func (f *fakeStockTx) SetQty(_ context.Context, q rbac.Query, warehouseID, productID, qty int64) error {
	key := [2]int64{warehouseID, productID}
	row, ok := f.rows[key]
	if !ok || !scopeMatches(q, row) {
		return ErrStockNotFound
	}
	row.qty = qty
	f.rows[key] = row
	return nil
}

func (f *fakeStockTx) InsertMovement(_ context.Context, m Movement) error {
	f.movements = append(f.movements, m)
	return nil
}

func supervisorOf(tenant string) rbac.Principal {
	return rbac.Principal{ID: 2, Role: rbac.RoleSupervisor, TenantKey: tenant}
}

func TestAdjustAppliesDelta(t *testing.T) {
	repo := newFakeStockRepo()
	repo.setRow(1, 10, 5, "acme")
	svc := NewService(repo, nil)

	err := svc.Adjust(context.Background(), supervisorOf("acme"), AdjustInput{ProductID: 10, WarehouseID: 1, Delta: 3, ActorID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(8), repo.qty(1, 10))
	require.Len(t, repo.movements, 1)
	assert.Equal(t, MovementAdjust, repo.movements[0].Type)
}

func TestAdjustCannotTouchOtherTenantsStock(t *testing.T) {
	repo := newFakeStockRepo()
	repo.setRow(1, 10, 5, "globex")
	svc := NewService(repo, nil)

	err := svc.Adjust(context.Background(), supervisorOf("acme"), AdjustInput{ProductID: 10, WarehouseID: 1, Delta: -5, ActorID: 2})
	assert.ErrorIs(t, err, ErrStockNotFound)
	assert.Equal(t, int64(5), repo.qty(1, 10))
	assert.Empty(t, repo.movements)
}

func TestAdjustRootReachesAnyTenant(t *testing.T) {
	repo := newFakeStockRepo()
	repo.setRow(1, 10, 5, "globex")
	svc := NewService(repo, nil)
	root := rbac.Principal{ID: 1, Role: rbac.RoleSuperadmin, TenantKey: rbac.TenantWildcard, IsRoot: true}

	err := svc.Adjust(context.Background(), root, AdjustInput{ProductID: 10, WarehouseID: 1, Delta: -5, ActorID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(0), repo.qty(1, 10))
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	repo := newFakeStockRepo()
	repo.setRow(1, 10, 2, "acme")
	svc := NewService(repo, nil)

	err := svc.Adjust(context.Background(), supervisorOf("acme"), AdjustInput{ProductID: 10, WarehouseID: 1, Delta: -5, ActorID: 2})
	assert.ErrorIs(t, err, ErrNegativeStock)
	assert.Equal(t, int64(2), repo.qty(1, 10))
	assert.Empty(t, repo.movements)
}

func TestAdjustRejectsZeroDelta(t *testing.T) {
	svc := NewService(newFakeStockRepo(), nil)
	err := svc.Adjust(context.Background(), supervisorOf("acme"), AdjustInput{ProductID: 10, WarehouseID: 1, Delta: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestTransferMovesStockAtomically(t *testing.T) {
	repo := newFakeStockRepo()
	repo.setRow(1, 10, 7, "acme")
	repo.setRow(2, 10, 1, "acme")
	svc := NewService(repo, nil)

	err := svc.Transfer(context.Background(), supervisorOf("acme"), TransferInput{ProductID: 10, SrcWarehouse: 1, DstWarehouse: 2, Qty: 4, ActorID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), repo.qty(1, 10))
	assert.Equal(t, int64(5), repo.qty(2, 10))
	require.Len(t, repo.movements, 2)
	assert.Equal(t, MovementTransferOut, repo.movements[0].Type)
	assert.Equal(t, MovementTransferIn, repo.movements[1].Type)
}

func TestTransferRejectsForeignDestination(t *testing.T) {
	repo := newFakeStockRepo()
	repo.setRow(1, 10, 7, "acme")
	repo.setRow(2, 10, 1, "globex")
	svc := NewService(repo, nil)

	err := svc.Transfer(context.Background(), supervisorOf("acme"), TransferInput{ProductID: 10, SrcWarehouse: 1, DstWarehouse: 2, Qty: 4, ActorID: 2})
	assert.ErrorIs(t, err, ErrStockNotFound)
	assert.Equal(t, int64(7), repo.qty(1, 10))
	assert.Equal(t, int64(1), repo.qty(2, 10))
	assert.Empty(t, repo.movements)
}

func TestTransferLocksWarehousesInAscendingOrder(t *testing.T) {
	repo := newFakeStockRepo()
	repo.setRow(1, 10, 3, "acme")
	repo.setRow(2, 10, 9, "acme")
	svc := NewService(repo, nil)

	err := svc.Transfer(context.Background(), supervisorOf("acme"), TransferInput{ProductID: 10, SrcWarehouse: 2, DstWarehouse: 1, Qty: 4, ActorID: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, repo.lockOrder)
	assert.Equal(t, int64(7), repo.qty(1, 10))
	assert.Equal(t, int64(5), repo.qty(2, 10))
}

func TestTransferRejectsOverdraw(t *testing.T) {
	repo := newFakeStockRepo()
	repo.setRow(1, 10, 2, "acme")
	repo.setRow(2, 10, 0, "acme")
	svc := NewService(repo, nil)

	err := svc.Transfer(context.Background(), supervisorOf("acme"), TransferInput{ProductID: 10, SrcWarehouse: 1, DstWarehouse: 2, Qty: 4})
	assert.ErrorIs(t, err, ErrNegativeStock)
	assert.Equal(t, int64(2), repo.qty(1, 10))
	assert.Equal(t, int64(0), repo.qty(2, 10))
}

func TestTransferRejectsSameWarehouse(t *testing.T) {
	svc := NewService(newFakeStockRepo(), nil)
	err := svc.Transfer(context.Background(), supervisorOf("acme"), TransferInput{ProductID: 10, SrcWarehouse: 1, DstWarehouse: 1, Qty: 4})
	assert.ErrorIs(t, err, ErrSameWarehouse)
}

func TestListScopesToTenant(t *testing.T) {
	repo := newFakeStockRepo()
	svc := NewService(repo, nil)
	staff := rbac.Principal{ID: 4, Role: rbac.RoleStaff, TenantKey: "acme"}

	_, err := svc.List(context.Background(), staff)
	require.NoError(t, err)
	require.Len(t, repo.lastQuery.Predicates, 1)
	assert.Equal(t, "tenant_key", repo.lastQuery.Predicates[0].Column)
}
