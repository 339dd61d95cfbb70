package mercadopago

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/belacosmetics/storefront-backend/pkg/enums"
)

// Gateway status strings returned by GET /v1/payments/{id}.
const (
	StatusApproved    = "approved"
	StatusPending     = "pending"
	StatusInProcess   = "in_process"
	StatusRejected    = "rejected"
	StatusRefunded    = "refunded"
	StatusCancelled   = "cancelled"
	StatusAuthorized  = "authorized"
	StatusInMediation = "in_mediation"
	StatusChargedBack = "charged_back"
)

const (
	methodIDPix    = "pix"
	methodIDVisa   = "visa"
	methodIDBoleto = "bolbradesco"
)

// CreatePaymentInput describes a payment to open at the gateway for an order.
type CreatePaymentInput struct {
	OrderID      uuid.UUID
	OrderNumber  string
	Amount       decimal.Decimal
	Description  string
	PayerEmail   string
	PayerName    string
	PayerCPF     *string
	Method       enums.PaymentMethod
	Installments int
	CardToken    *string
}

// CreatedPayment is the normalized gateway answer with method-specific instructions.
type CreatedPayment struct {
	ExternalID string
	Status     string

	CardLastFour *string
	CardBrand    *string
	Installments *int

	PixCode      *string
	PixQRCode    *string
	PixExpiresAt *time.Time

	BoletoURL     *string
	BoletoBarcode *string
	BoletoDueDate *time.Time
}

// PaymentStatus is the gateway's current view of a payment.
type PaymentStatus struct {
	Status       string
	StatusDetail string
}

type payerIdentification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type payer struct {
	Email          string               `json:"email"`
	FirstName      string               `json:"first_name,omitempty"`
	LastName       string               `json:"last_name,omitempty"`
	Identification *payerIdentification `json:"identification,omitempty"`
}

type createPaymentRequest struct {
	TransactionAmount json.Number `json:"transaction_amount"`
	Description       string      `json:"description"`
	PaymentMethodID   string      `json:"payment_method_id"`
	Installments      int         `json:"installments,omitempty"`
	Token             string      `json:"token,omitempty"`
	Payer             payer       `json:"payer"`
	ExternalReference string      `json:"external_reference"`
	NotificationURL   string      `json:"notification_url,omitempty"`
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	PaymentMethodID   string      `json:"payment_method_id"`
	Installments      *int        `json:"installments"`
	DateOfExpiration  string      `json:"date_of_expiration"`
	ExternalReference string      `json:"external_reference"`
	Card              *struct {
		LastFourDigits string `json:"last_four_digits"`
	} `json:"card"`
	PointOfInteraction *struct {
		TransactionData *struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
	TransactionDetails *struct {
		ExternalResourceURL string `json:"external_resource_url"`
	} `json:"transaction_details"`
	Barcode *struct {
		Content string `json:"content"`
	} `json:"barcode"`
}

type refundResponse struct {
	ID     json.Number `json:"id"`
	Status string      `json:"status"`
}
