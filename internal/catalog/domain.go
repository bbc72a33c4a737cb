package catalog

import (
	"errors"
	"time"
)

// Product is one sellable item in a tenant's catalogue.
type Product struct {
	ID          int64
	SKU         string
	Name        string
	Description string
	PriceCents  int64
	TenantKey   string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ErrProductNotFound indicates the product does not exist or is out of
// the caller's scope.
var ErrProductNotFound = errors.New("catalog: product not found")

// ErrDuplicateSKU indicates another product already carries the SKU.
var ErrDuplicateSKU = errors.New("catalog: duplicate sku")

// ProductInput carries create/update fields.
type ProductInput struct {
	SKU         string `validate:"required,max=64"`
	Name        string `validate:"required,max=255"`
	Description string `validate:"max=2000"`
	PriceCents  int64  `validate:"gte=0"`
	TenantKey   string `validate:"required,max=255"`
}
