package inventory

import (
	"context"
	"errors"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	List(ctx context.Context, q rbac.Query) ([]StockLevel, error)
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

// Service coordinates stock operations.
type Service struct {
	repo        RepositoryPort
	idempotency *shared.IdempotencyStore
}

// NewService builds Service instance. idem may be nil in tests.
func NewService(repo RepositoryPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, idempotency: idem}
}

// List returns stock levels visible to the principal.
func (s *Service) List(ctx context.Context, p rbac.Principal) ([]StockLevel, error) {
	return s.repo.List(ctx, rbac.Scope(p, rbac.NewQuery("stock")))
}

// Adjust applies a manual correction to one stock level. Rows outside the
// principal's tenant are invisible to the mutation and surface as
// ErrStockNotFound. A repeated idempotency key returns
// ErrIdempotencyConflict without touching stock.
func (s *Service) Adjust(ctx context.Context, p rbac.Principal, input AdjustInput) error {
	if input.ProductID == 0 || input.WarehouseID == 0 {
		return errors.New("inventory: warehouse and product required")
	}
	if input.Delta == 0 {
		return ErrInvalidQuantity
	}

	insertedKey, err := s.claimKey(ctx, input.IdempotencyKey)
	if err != nil {
		return err
	}

	scoped := rbac.Scope(p, rbac.NewQuery("stock"))
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		qty, err := tx.GetQtyForUpdate(ctx, scoped, input.WarehouseID, input.ProductID)
		if err != nil {
			return err
		}
		next := qty + input.Delta
		if next < 0 {
			return ErrNegativeStock
		}
		if err := tx.SetQty(ctx, scoped, input.WarehouseID, input.ProductID, next); err != nil {
			return err
		}
		return tx.InsertMovement(ctx, Movement{
			ProductID:   input.ProductID,
			WarehouseID: input.WarehouseID,
			Type:        MovementAdjust,
			Delta:       input.Delta,
			Note:        input.Note,
			ActorID:     input.ActorID,
		})
	})
	if err != nil && insertedKey {
		_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
	}
	return err
}

// Transfer moves stock between two warehouses in one transaction. Both rows
// must sit inside the principal's tenant scope.
func (s *Service) Transfer(ctx context.Context, p rbac.Principal, input TransferInput) error {
	if input.ProductID == 0 || input.SrcWarehouse == 0 || input.DstWarehouse == 0 {
		return errors.New("inventory: warehouse and product required")
	}
	if input.SrcWarehouse == input.DstWarehouse {
		return ErrSameWarehouse
	}
	if input.Qty <= 0 {
		return ErrInvalidQuantity
	}

	insertedKey, err := s.claimKey(ctx, input.IdempotencyKey)
	if err != nil {
		return err
	}

	scoped := rbac.Scope(p, rbac.NewQuery("stock"))
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		// Lock both rows in ascending warehouse order so two
		// opposite-direction transfers cannot deadlock each other.
		first, second := input.SrcWarehouse, input.DstWarehouse
		if second < first {
			first, second = second, first
		}
		qtys := make(map[int64]int64, 2)
		for _, warehouseID := range []int64{first, second} {
			qty, err := tx.GetQtyForUpdate(ctx, scoped, warehouseID, input.ProductID)
			if err != nil {
				return err
			}
			qtys[warehouseID] = qty
		}
		if qtys[input.SrcWarehouse]-input.Qty < 0 {
			return ErrNegativeStock
		}
		if err := tx.SetQty(ctx, scoped, input.SrcWarehouse, input.ProductID, qtys[input.SrcWarehouse]-input.Qty); err != nil {
			return err
		}
		if err := tx.SetQty(ctx, scoped, input.DstWarehouse, input.ProductID, qtys[input.DstWarehouse]+input.Qty); err != nil {
			return err
		}
		out := Movement{
			ProductID:   input.ProductID,
			WarehouseID: input.SrcWarehouse,
			Type:        MovementTransferOut,
			Delta:       -input.Qty,
			Note:        input.Note,
			ActorID:     input.ActorID,
		}
		if err := tx.InsertMovement(ctx, out); err != nil {
			return err
		}
		in := out
		in.WarehouseID = input.DstWarehouse
		in.Type = MovementTransferIn
		in.Delta = input.Qty
		return tx.InsertMovement(ctx, in)
	})
	if err != nil && insertedKey {
		_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
	}
	return err
}

func (s *Service) claimKey(ctx context.Context, key string) (bool, error) {
	if s.idempotency == nil || key == "" {
		return false, nil
	}
	if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
		return false, err
	}
	return true, nil
}
