package mercadopagowebhook

import (
	"strings"

	"github.com/belacosmetics/storefront-backend/pkg/enums"
	"github.com/belacosmetics/storefront-backend/pkg/mercadopago"
)

type statusPair struct {
	payment enums.PaymentStatus
	order   enums.OrderStatus
}

var gatewayStatusMap = map[string]statusPair{
	mercadopago.StatusApproved:  {enums.PaymentStatusPaid, enums.OrderStatusConfirmed},
	mercadopago.StatusPending:   {enums.PaymentStatusProcessing, enums.OrderStatusPending},
	mercadopago.StatusInProcess: {enums.PaymentStatusProcessing, enums.OrderStatusPending},
	mercadopago.StatusRejected:  {enums.PaymentStatusFailed, enums.OrderStatusCancelled},
	mercadopago.StatusRefunded:  {enums.PaymentStatusRefunded, enums.OrderStatusRefunded},
	mercadopago.StatusCancelled: {enums.PaymentStatusCancelled, enums.OrderStatusCancelled},
}

// MapStatus translates a gateway status into the local payment and order
// statuses. Statuses without a mapping keep the current pair; ok is false.
func MapStatus(gatewayStatus string, currentPayment enums.PaymentStatus, currentOrder enums.OrderStatus) (enums.PaymentStatus, enums.OrderStatus, bool) {
	pair, ok := gatewayStatusMap[strings.ToLower(strings.TrimSpace(gatewayStatus))]
	if !ok {
		if currentPayment == "" {
			currentPayment = enums.PaymentStatusPending
		}
		return currentPayment, currentOrder, false
	}
	return pair.payment, pair.order, true
}
