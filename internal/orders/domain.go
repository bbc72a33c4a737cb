package orders

import (
	"errors"
	"time"
)

// Status enumerates order lifecycle states.
type Status string

const (
	// StatusPending marks a freshly placed order.
	StatusPending Status = "pending"
	// StatusConfirmed marks an order accepted by the team.
	StatusConfirmed Status = "confirmed"
	// StatusShipped marks an order handed to logistics.
	StatusShipped Status = "shipped"
	// StatusCancelled marks a withdrawn order.
	StatusCancelled Status = "cancelled"
)

// Order is one customer order.
type Order struct {
	ID            int64
	Number        string
	OwnerID       int64
	CustomerEmail string
	TenantKey     string
	Status        Status
	TotalCents    int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Line is one order line.
type Line struct {
	ID         int64
	OrderID    int64
	ProductID  int64
	Product    string
	Qty        int64
	PriceCents int64
}

// Subtotal is the line amount in cents.
func (l Line) Subtotal() int64 {
	return l.Qty * l.PriceCents
}

var (
	// ErrOrderNotFound indicates the order does not exist or is out of the
	// caller's scope.
	ErrOrderNotFound = errors.New("orders: order not found")
	// ErrEmptyOrder indicates an order with no lines.
	ErrEmptyOrder = errors.New("orders: order has no lines")
	// ErrInvalidLine indicates a line with a bad product, quantity or price.
	ErrInvalidLine = errors.New("orders: invalid order line")
	// ErrInvalidStatus indicates an unknown lifecycle status.
	ErrInvalidStatus = errors.New("orders: invalid status")
)

// CreateInput carries the fields for placing an order.
type CreateInput struct {
	OwnerID       int64
	CustomerEmail string
	TenantKey     string
	Lines         []LineInput
}

// LineInput is one requested order line.
type LineInput struct {
	ProductID  int64
	Qty        int64
	PriceCents int64
}
