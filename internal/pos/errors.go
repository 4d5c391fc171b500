package pos

import "errors"

var (
	ErrTableNotFound   = errors.New("table not found")
	ErrProductNotFound = errors.New("product not found")
	ErrLineNotFound    = errors.New("order line not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTableOccupied   = errors.New("table has an open order")
	ErrEmptyOrder      = errors.New("table has no order lines")
	ErrBadTransition   = errors.New("invalid kitchen status transition")
)
