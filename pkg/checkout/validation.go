package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
)

// StockValidationInput describes a requested line against the product's current stock.
type StockValidationInput struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Quantity    int
}

// StockViolationDetail is returned to callers when a line cannot be fulfilled.
type StockViolationDetail struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name,omitempty"`
	AvailableQty int       `json:"available_qty"`
	RequestedQty int       `json:"requested_qty"`
}

// ValidateStock ensures every requested quantity is covered by the product's stock.
func ValidateStock(items []StockValidationInput) error {
	var violations []StockViolationDetail
	for _, item := range items {
		if item.Quantity <= item.Available {
			continue
		}
		available := item.Available
		if available < 0 {
			available = 0
		}
		violations = append(violations, StockViolationDetail{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			AvailableQty: available,
			RequestedQty: item.Quantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("insufficient stock for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
