package mercadopagowebhook

import (
	"context"
	"errors"
)

const deliveryConsumer = "mercadopago-webhook"

type deliveryMarker interface {
	CheckAndMark(ctx context.Context, consumer, deliveryID string) (bool, error)
	Delete(ctx context.Context, consumer, deliveryID string) error
}

// DeliveryGuard marks webhook deliveries by x-request-id so redeliveries are
// acknowledged without reprocessing.
type DeliveryGuard struct {
	marker deliveryMarker
}

// NewDeliveryGuard wraps an idempotency manager.
func NewDeliveryGuard(marker deliveryMarker) (*DeliveryGuard, error) {
	if marker == nil {
		return nil, errors.New("idempotency manager is required")
	}
	return &DeliveryGuard{marker: marker}, nil
}

// CheckAndMark reports whether requestID was already marked, marking it otherwise.
func (g *DeliveryGuard) CheckAndMark(ctx context.Context, requestID string) (bool, error) {
	return g.marker.CheckAndMark(ctx, deliveryConsumer, requestID)
}

// Release removes the mark so the gateway retry is processed.
func (g *DeliveryGuard) Release(ctx context.Context, requestID string) error {
	return g.marker.Delete(ctx, deliveryConsumer, requestID)
}
