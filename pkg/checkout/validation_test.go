package checkout

import (
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
)

func TestValidateStock_NoViolations(t *testing.T) {
	items := []StockValidationInput{
		{ProductID: uuid.New(), ProductName: "Exact", Available: 2, Quantity: 2},
		{ProductID: uuid.New(), ProductName: "Plenty", Available: 40, Quantity: 1},
	}
	if err := ValidateStock(items); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStock_Violations(t *testing.T) {
	short := uuid.New()
	items := []StockValidationInput{
		{ProductID: short, ProductName: "Serum", Available: 1, Quantity: 3},
		{ProductID: uuid.New(), ProductName: "Oversold", Available: -2, Quantity: 1},
		{ProductID: uuid.New(), ProductName: "Fine", Available: 5, Quantity: 5},
	}
	err := ValidateStock(items)
	if err == nil {
		t.Fatal("expected error for stock shortfall")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected pkgerrors.Error, got %T", err)
	}
	if typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected code %s, got %s", pkgerrors.CodeStateConflict, typed.Code())
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	violations, ok := details["violations"].([]StockViolationDetail)
	if !ok {
		t.Fatalf("expected violations slice, got %T", details["violations"])
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(violations))
	}
	if violations[0].ProductID != short || violations[0].AvailableQty != 1 || violations[0].RequestedQty != 3 {
		t.Fatalf("unexpected first violation %+v", violations[0])
	}
	if violations[1].AvailableQty != 0 {
		t.Fatalf("negative stock should report 0 available, got %d", violations[1].AvailableQty)
	}
}
