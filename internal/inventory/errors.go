package inventory

import (
	"errors"
	"fmt"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// CriticalFaultError: stock/reserved mau negatif. Ini bug di hulu subsystem
// ini, bukan kesalahan user; selalu di-log saat terdeteksi.
type CriticalFaultError struct {
	ProductID string
	Op        string
	Stock     int
	Reserved  int
	Qty       int
}

func (e *CriticalFaultError) Error() string {
	return fmt.Sprintf("critical inventory fault on %s(product=%s qty=%d): stock=%d reserved=%d would go negative",
		e.Op, e.ProductID, e.Qty, e.Stock, e.Reserved)
}
