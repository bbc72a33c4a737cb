package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
)

// Repository provides PostgreSQL backed persistence. Every read takes a
// scoped query; the repository never widens it.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, sku, name, description, price_cents, tenant_key, is_active, created_at, updated_at`

// List returns active products within the scoped query.
func (r *Repository) List(ctx context.Context, q rbac.Query) ([]Product, error) {
	clause, args := q.Clause(1)
	query := fmt.Sprintf(`SELECT %s FROM products WHERE is_active AND %s ORDER BY name`, productColumns, clause)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Get returns one product within the scoped query.
func (r *Repository) Get(ctx context.Context, q rbac.Query, id int64) (*Product, error) {
	clause, args := q.Clause(2)
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1 AND %s`, productColumns, clause)
	var p Product
	err := scanProduct(r.pool.QueryRow(ctx, query, append([]any{id}, args...)...), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, input ProductInput) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (sku, name, description, price_cents, tenant_key, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, now(), now())
		RETURNING id`,
		input.SKU, input.Name, input.Description, input.PriceCents, input.TenantKey,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateSKU
		}
		return 0, err
	}
	return id, nil
}

// Update edits a product within the scoped query.
func (r *Repository) Update(ctx context.Context, q rbac.Query, id int64, input ProductInput) error {
	clause, args := q.Clause(6)
	query := fmt.Sprintf(`
		UPDATE products
		SET sku = $2, name = $3, description = $4, price_cents = $5, updated_at = now()
		WHERE id = $1 AND %s`, clause)
	tag, err := r.pool.Exec(ctx, query, append([]any{id, input.SKU, input.Name, input.Description, input.PriceCents}, args...)...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSKU
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// SoftDelete deactivates a product within the scoped query.
func (r *Repository) SoftDelete(ctx context.Context, q rbac.Query, id int64) error {
	clause, args := q.Clause(2)
	query := fmt.Sprintf(`UPDATE products SET is_active = FALSE, updated_at = now() WHERE id = $1 AND %s`, clause)
	tag, err := r.pool.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// HardDelete removes a product row permanently.
func (r *Repository) HardDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row, p *Product) error {
	var createdAt, updatedAt time.Time
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.TenantKey, &p.IsActive, &createdAt, &updatedAt); err != nil {
		return err
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
