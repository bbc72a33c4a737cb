package orders

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

// Repository provides PostgreSQL backed persistence for orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `id, number, owner_id, customer_email, tenant_key, status, total_cents, created_at, updated_at`

// List returns orders within the scoped query, newest first.
func (r *Repository) List(ctx context.Context, q rbac.Query) ([]Order, error) {
	clause, args := q.Clause(1)
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC`, orderColumns, clause)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

// Get loads one order by ID regardless of scope. Callers run the
// ownership check against the loaded row before returning it.
func (r *Repository) Get(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := scanOrder(r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns), id), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Lines loads the lines of one order.
func (r *Repository) Lines(ctx context.Context, orderID int64) ([]Line, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.order_id, l.product_id, p.name, l.qty, l.price_cents
		FROM order_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.order_id = $1
		ORDER BY l.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Product, &line.Qty, &line.PriceCents); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Create inserts an order with its lines in one transaction.
func (r *Repository) Create(ctx context.Context, input CreateInput) (int64, error) {
	var orderID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		total := int64(0)
		for _, line := range input.Lines {
			total += line.Qty * line.PriceCents
		}
		number := fmt.Sprintf("ORD-%d", time.Now().UTC().UnixNano())
		if err := tx.QueryRow(ctx, `
			INSERT INTO orders (number, owner_id, customer_email, tenant_key, status, total_cents, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			RETURNING id`,
			number, input.OwnerID, input.CustomerEmail, input.TenantKey, string(StatusPending), total,
		).Scan(&orderID); err != nil {
			return err
		}
		for _, line := range input.Lines {
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_lines (order_id, product_id, qty, price_cents)
				VALUES ($1, $2, $3, $4)`,
				orderID, line.ProductID, line.Qty, line.PriceCents); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// SetStatus updates one order's status within the scoped query.
func (r *Repository) SetStatus(ctx context.Context, q rbac.Query, id int64, status Status) error {
	clause, args := q.Clause(3)
	query := fmt.Sprintf(`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1 AND %s`, clause)
	tag, err := r.pool.Exec(ctx, query, append([]any{id, string(status)}, args...)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.Row, o *Order) error {
	var status string
	if err := row.Scan(&o.ID, &o.Number, &o.OwnerID, &o.CustomerEmail, &o.TenantKey, &status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return err
	}
	o.Status = Status(status)
	return nil
}
