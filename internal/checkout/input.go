package checkout

import (
	"fmt"
	"strings"

	"github.com/belacosmetics/storefront-backend/internal/pricing"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

const maxItemQuantity = 99

// mergeItems validates cart lines and folds repeated products into one line.
// Field problems are returned keyed by request path.
func mergeItems(items []ItemInput) ([]ItemInput, map[string]string) {
	details := map[string]string{}
	if len(items) == 0 {
		details["items"] = "at least one item is required"
	}
	merged := make([]ItemInput, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for i, item := range items {
		if item.ProductID == uuid.Nil {
			details[fmt.Sprintf("items[%d].product_id", i)] = "required"
			continue
		}
		if item.Quantity < 1 {
			details[fmt.Sprintf("items[%d].quantity", i)] = "must be at least 1"
			continue
		}
		if pos, ok := index[item.ProductID]; ok {
			merged[pos].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	for _, item := range merged {
		if item.Quantity > maxItemQuantity {
			details["items"] = fmt.Sprintf("quantity per product must not exceed %d", maxItemQuantity)
		}
	}
	return merged, details
}

// normalizeInput validates the request and merges repeated product lines.
func normalizeInput(input Input) ([]ItemInput, Address, error) {
	merged, details := mergeItems(input.Items)

	if !input.PaymentMethod.IsValid() {
		details["payment_method"] = "must be PIX, CREDIT_CARD or BOLETO"
	}

	address := Address{
		Name:       strings.TrimSpace(input.ShippingAddress.Name),
		Street:     strings.TrimSpace(input.ShippingAddress.Street),
		Number:     strings.TrimSpace(input.ShippingAddress.Number),
		Complement: trimmedOrNil(input.ShippingAddress.Complement),
		District:   strings.TrimSpace(input.ShippingAddress.District),
		City:       strings.TrimSpace(input.ShippingAddress.City),
		State:      strings.ToUpper(strings.TrimSpace(input.ShippingAddress.State)),
	}
	required := map[string]string{
		"shipping_address.name":     address.Name,
		"shipping_address.street":   address.Street,
		"shipping_address.number":   address.Number,
		"shipping_address.district": address.District,
		"shipping_address.city":     address.City,
	}
	for field, value := range required {
		if value == "" {
			details[field] = "required"
		}
	}
	if len(address.State) != 2 {
		details["shipping_address.state"] = "must be a 2-letter UF"
	}
	zip, err := pricing.NormalizePostalCode(input.ShippingAddress.ZipCode)
	if err != nil {
		details["shipping_address.zip_code"] = "must be a valid CEP"
	}
	address.ZipCode = zip

	if len(details) > 0 {
		return nil, Address{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout request").WithDetails(details)
	}
	return merged, address, nil
}
