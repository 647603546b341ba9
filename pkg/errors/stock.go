package errors

import (
	"fmt"

	"github.com/google/uuid"
)

// StockShortfall identifies the batch or supply that could not cover a
// requested quantity. Every insufficient-stock error carries one so callers
// can report exactly what was missing.
type StockShortfall struct {
	BatchID   *uuid.UUID `json:"batch_id,omitempty"`
	SupplyID  *uuid.UUID `json:"supply_id,omitempty"`
	Requested int        `json:"requested"`
	Available int        `json:"available"`
	Shortfall int        `json:"shortfall"`
}

// InsufficientStock builds the typed error for a failed quantity check.
func InsufficientStock(shortfall StockShortfall) *Error {
	msg := fmt.Sprintf("insufficient stock: requested %d, available %d", shortfall.Requested, shortfall.Available)
	if shortfall.Shortfall == 0 {
		shortfall.Shortfall = shortfall.Requested - shortfall.Available
	}
	return New(CodeInsufficientStock, msg).WithDetails(shortfall)
}

// ShortfallFrom extracts the shortfall details from an insufficient-stock
// error, when present.
func ShortfallFrom(err error) (StockShortfall, bool) {
	typed := As(err)
	if typed == nil || typed.Code() != CodeInsufficientStock {
		return StockShortfall{}, false
	}
	details, ok := typed.Details().(StockShortfall)
	return details, ok
}
