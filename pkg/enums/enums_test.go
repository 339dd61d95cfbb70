package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses() {
		got, err := ParseOrderStatus(string(status))
		if err != nil {
			t.Fatalf("parse %s: %v", status, err)
		}
		if got != status {
			t.Fatalf("expected %s got %s", status, got)
		}
	}
	if _, err := ParseOrderStatus("pending"); err == nil {
		t.Fatalf("expected lowercase status to be rejected")
	}
}

func TestOrderStatusTerminalAndRevenue(t *testing.T) {
	if !OrderStatusCancelled.IsTerminal() || !OrderStatusRefunded.IsTerminal() {
		t.Fatalf("cancelled and refunded must be terminal")
	}
	if OrderStatusDelivered.IsTerminal() {
		t.Fatalf("delivered can still be refunded")
	}
	if OrderStatusCancelled.CountsAsRevenue() {
		t.Fatalf("cancelled orders must not count as revenue")
	}
	if !OrderStatusShipped.CountsAsRevenue() {
		t.Fatalf("shipped orders count as revenue")
	}
}

func TestPaymentStatusIsOpen(t *testing.T) {
	if !PaymentStatusPending.IsOpen() || !PaymentStatusProcessing.IsOpen() {
		t.Fatalf("pending and processing are open")
	}
	if PaymentStatusPaid.IsOpen() {
		t.Fatalf("paid is not open")
	}
}

func TestUserRoleIsAdmin(t *testing.T) {
	if !UserRoleAdmin.IsAdmin() || !UserRoleSuperAdmin.IsAdmin() {
		t.Fatalf("admin roles should be admin")
	}
	if UserRoleCustomer.IsAdmin() {
		t.Fatalf("customer is not admin")
	}
	if _, err := ParseUserRole("ROOT"); err == nil {
		t.Fatalf("expected unknown role error")
	}
}

func TestParseDiscountTypeAndMethod(t *testing.T) {
	if got, err := ParseDiscountType("FREE_SHIPPING"); err != nil || got != DiscountTypeFreeShipping {
		t.Fatalf("unexpected discount type %v %v", got, err)
	}
	if _, err := ParsePaymentMethod("PAYPAL"); err == nil {
		t.Fatalf("expected unknown payment method error")
	}
}
