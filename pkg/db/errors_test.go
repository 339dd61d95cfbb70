package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "coupons_code_key"}
	wrapped := fmt.Errorf("insert coupon: %w", pgErr)

	if !IsUniqueViolation(wrapped, "") {
		t.Fatalf("expected wrapped pg error to be detected")
	}
	if !IsUniqueViolation(wrapped, "coupons_code_key") {
		t.Fatalf("expected constraint match")
	}
	if IsUniqueViolation(wrapped, "orders_order_number_key") {
		t.Fatalf("expected constraint mismatch")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: coupons.code"), "coupons.code") {
		t.Fatalf("expected sqlite message to be detected")
	}
	if IsUniqueViolation(nil, "") || IsUniqueViolation(errors.New("timeout"), "") {
		t.Fatalf("unexpected match")
	}
}
