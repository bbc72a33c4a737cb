package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/platform/db"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
)

// TxRepository exposes the stock operations available inside one
// transaction. Every row access carries the caller's scoped query so a
// tenant can never lock or rewrite another tenant's stock.
type TxRepository interface {
	GetQtyForUpdate(ctx context.Context, q rbac.Query, warehouseID, productID int64) (int64, error)
	SetQty(ctx context.Context, q rbac.Query, warehouseID, productID, qty int64) error
	InsertMovement(ctx context.Context, m Movement) error
}

// Repository provides PostgreSQL backed persistence for stock levels.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns stock levels within the scoped query. Scope predicates are
// qualified with the stock_levels alias because products carries a
// tenant_key column too.
func (r *Repository) List(ctx context.Context, q rbac.Query) ([]StockLevel, error) {
	qualified := rbac.NewQuery(q.Kind)
	for _, p := range q.Predicates {
		qualified = qualified.Where("s."+p.Column, p.Value)
	}
	clause, args := qualified.Clause(1)
	query := fmt.Sprintf(`
		SELECT s.product_id, p.name, s.warehouse_id, w.name, s.tenant_key, s.qty, s.updated_at
		FROM stock_levels s
		JOIN products p ON p.id = s.product_id
		JOIN warehouses w ON w.id = s.warehouse_id
		WHERE %s
		ORDER BY w.name, p.name`, clause)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var levels []StockLevel
	for rows.Next() {
		var level StockLevel
		if err := rows.Scan(&level.ProductID, &level.ProductName, &level.WarehouseID, &level.Warehouse,
			&level.TenantKey, &level.Qty, &level.UpdatedAt); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, rows.Err()
}

// WithTx runs fn inside one database transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetQtyForUpdate(ctx context.Context, q rbac.Query, warehouseID, productID int64) (int64, error) {
	clause, scopeArgs := q.Clause(3)
	query := fmt.Sprintf(`
		SELECT qty FROM stock_levels
		WHERE warehouse_id = $1 AND product_id = $2 AND %s
		FOR UPDATE`, clause)
	var qty int64
	err := r.tx.QueryRow(ctx, query, append([]any{warehouseID, productID}, scopeArgs...)...).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrStockNotFound
		}
		return 0, err
	}
	return qty, nil
}

func (r *txRepository) SetQty(ctx context.Context, q rbac.Query, warehouseID, productID, qty int64) error {
	clause, scopeArgs := q.Clause(4)
	query := fmt.Sprintf(`
		UPDATE stock_levels SET qty = $3, updated_at = now()
		WHERE warehouse_id = $1 AND product_id = $2 AND %s`, clause)
	tag, err := r.tx.Exec(ctx, query, append([]any{warehouseID, productID, qty}, scopeArgs...)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStockNotFound
	}
	return nil
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO stock_movements (product_id, warehouse_id, type, delta, note, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ProductID, m.WarehouseID, string(m.Type), m.Delta, m.Note, m.ActorID, time.Now().UTC())
	return err
}
