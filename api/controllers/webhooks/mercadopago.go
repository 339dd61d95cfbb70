package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/belacosmetics/storefront-backend/api/responses"
	mercadopagowebhook "github.com/belacosmetics/storefront-backend/internal/webhooks/mercadopago"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/belacosmetics/storefront-backend/pkg/logger"
	"github.com/belacosmetics/storefront-backend/pkg/metrics"
)

const (
	headerSignature = "x-signature"
	headerRequestID = "x-request-id"
)

type receivedBody struct {
	Received bool `json:"received"`
}

type errorBody struct {
	Error string `json:"error"`
}

// MercadoPagoReconciler applies a decoded gateway notification.
type MercadoPagoReconciler interface {
	Reconcile(ctx context.Context, n mercadopagowebhook.Notification) (mercadopagowebhook.Result, error)
}

type mercadoPagoGuard interface {
	CheckAndMark(ctx context.Context, requestID string) (bool, error)
	Release(ctx context.Context, requestID string) error
}

// MercadoPagoWebhookParams wires the gateway callback handler. Guard and
// Secret are optional.
type MercadoPagoWebhookParams struct {
	Reconciler MercadoPagoReconciler
	Guard      mercadoPagoGuard
	Secret     string
	Metrics    *metrics.WebhookMetrics
	Logger     *logger.Logger
}

// MercadoPagoWebhook handles payment notifications. It answers with the
// gateway's raw wire format instead of the API envelope.
func MercadoPagoWebhook(params MercadoPagoWebhookParams) http.HandlerFunc {
	logg := params.Logger
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if params.Reconciler == nil {
			fail(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			params.Metrics.Observe("", metrics.WebhookOutcomeFailed)
			fail(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read request body"))
			return
		}

		notification, err := mercadopagowebhook.ParseNotification(payload)
		if err != nil {
			params.Metrics.Observe("", metrics.WebhookOutcomeFailed)
			fail(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"notification_type":   notification.Type,
				"payment_external_id": notification.DataID,
			})
		}
		if !notification.IsPayment() {
			params.Metrics.Observe("", metrics.WebhookOutcomeIgnored)
			if logg != nil {
				logg.Debug(ctx, "webhook.mercadopago.ignored")
			}
			responses.WriteJSON(w, http.StatusOK, receivedBody{Received: true})
			return
		}

		requestID := strings.TrimSpace(r.Header.Get(headerRequestID))
		if params.Secret != "" {
			if err := mercadopagowebhook.VerifySignature(params.Secret, r.Header.Get(headerSignature), notification.DataID, requestID); err != nil {
				params.Metrics.Observe("", metrics.WebhookOutcomeRejected)
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "reason", err.Error()), "webhook.mercadopago.invalid_signature")
				}
				responses.WriteJSON(w, http.StatusUnauthorized, errorBody{Error: "Invalid signature"})
				return
			}
		}

		marked := false
		if params.Guard != nil && requestID != "" {
			duplicate, err := params.Guard.CheckAndMark(ctx, requestID)
			switch {
			case err != nil:
				// Reconcile is replay safe; carry on without the mark.
				if logg != nil {
					logg.Error(ctx, "webhook.mercadopago.guard_failed", err)
				}
			case duplicate:
				params.Metrics.Observe("", metrics.WebhookOutcomeDuplicate)
				if logg != nil {
					logg.Info(ctx, "webhook.mercadopago.duplicate")
				}
				responses.WriteJSON(w, http.StatusOK, receivedBody{Received: true})
				return
			default:
				marked = true
			}
		}

		result, err := params.Reconciler.Reconcile(ctx, notification)
		params.Metrics.Observe(result.GatewayStatus, result.Outcome)
		if err != nil {
			if marked {
				if relErr := params.Guard.Release(ctx, requestID); relErr != nil && logg != nil {
					logg.Error(ctx, "webhook.mercadopago.guard_release_failed", relErr)
				}
			}
			fail(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, receivedBody{Received: true})
	}
}

// fail maps a processing error onto the two error bodies the gateway
// understands. The cause is logged only.
func fail(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		if logg != nil {
			logg.Warn(ctx, "webhook.mercadopago.payment_not_found")
		}
		responses.WriteJSON(w, http.StatusNotFound, errorBody{Error: "Payment not found"})
		return
	}
	if logg != nil {
		logg.Error(ctx, "webhook.mercadopago.failed", err)
	}
	responses.WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "Webhook processing failed"})
}
