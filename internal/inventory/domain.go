package inventory

import (
	"errors"
	"time"
)

// StockLevel is the on-hand quantity of one product in one warehouse.
type StockLevel struct {
	ProductID   int64
	ProductName string
	WarehouseID int64
	Warehouse   string
	TenantKey   string
	Qty         int64
	UpdatedAt   time.Time
}

// MovementType enumerates stock movements.
type MovementType string

const (
	// MovementAdjust is a manual correction, positive or negative.
	MovementAdjust MovementType = "ADJUST"
	// MovementTransferOut is the source leg of a transfer.
	MovementTransferOut MovementType = "TRANSFER_OUT"
	// MovementTransferIn is the destination leg of a transfer.
	MovementTransferIn MovementType = "TRANSFER_IN"
)

// Movement records one applied stock change.
type Movement struct {
	ID          int64
	ProductID   int64
	WarehouseID int64
	Type        MovementType
	Delta       int64
	Note        string
	ActorID     int64
	CreatedAt   time.Time
}

// AdjustInput describes a manual stock correction.
type AdjustInput struct {
	ProductID      int64
	WarehouseID    int64
	Delta          int64
	Note           string
	ActorID        int64
	IdempotencyKey string
}

// TransferInput describes a stock move between warehouses.
type TransferInput struct {
	ProductID      int64
	SrcWarehouse   int64
	DstWarehouse   int64
	Qty            int64
	Note           string
	ActorID        int64
	IdempotencyKey string
}

// ErrNegativeStock indicates a movement would drive stock below zero.
var ErrNegativeStock = errors.New("inventory: negative stock not allowed")

// ErrInvalidQuantity indicates a zero or malformed quantity.
var ErrInvalidQuantity = errors.New("inventory: quantity must be non zero")

// ErrStockNotFound indicates no stock row for the product/warehouse pair.
var ErrStockNotFound = errors.New("inventory: stock level not found")

// ErrSameWarehouse indicates a transfer onto itself.
var ErrSameWarehouse = errors.New("inventory: source and destination warehouse must differ")
