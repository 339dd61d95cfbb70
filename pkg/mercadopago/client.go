package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/belacosmetics/storefront-backend/pkg/config"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
)

const (
	defaultBaseURL               = "https://api.mercadopago.com"
	defaultTimeout               = 10 * time.Second
	defaultMaxInstallments       = 12
	webhookPath                  = "/api/webhooks/mercadopago"
	responseBodyReadLimit  int64 = 1024
)

var errAccessTokenRequired = errors.New("mercadopago access token is required")

// Client talks to the MercadoPago payments API.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	accessToken     string
	notificationURL string
	maxInstallments int
	limiter         *rate.Limiter
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithLimiter replaces the outbound request limiter.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// NewClient builds the gateway client. publicURL is the externally reachable
// base of this API and is used to derive the notification URL.
func NewClient(cfg config.MercadoPagoConfig, publicURL string, opts ...Option) (*Client, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}

	client := &Client{
		accessToken:     token,
		baseURL:         strings.TrimSpace(cfg.BaseURL),
		httpClient:      &http.Client{Timeout: defaultTimeout},
		maxInstallments: cfg.MaxInstallments,
		limiter:         newLimiter(cfg.RequestsPerSecond),
	}
	if base := strings.TrimRight(strings.TrimSpace(publicURL), "/"); base != "" {
		client.notificationURL = base + webhookPath
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.maxInstallments <= 0 {
		client.maxInstallments = defaultMaxInstallments
	}

	return client, nil
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(math.Ceil(rps))
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// CreatePayment opens a payment for the order. The order id doubles as the
// idempotency key so a retried checkout cannot charge twice.
func (c *Client) CreatePayment(ctx context.Context, input CreatePaymentInput) (*CreatedPayment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercadopago client not configured")
	}
	body, err := c.buildCreateRequest(input)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal payment request")
	}

	var resp paymentResponse
	headers := map[string]string{"X-Idempotency-Key": input.OrderID.String()}
	if err := c.do(ctx, http.MethodPost, "v1/payments", bytes.NewReader(payload), headers, &resp); err != nil {
		return nil, err
	}

	return mapCreatedPayment(input.Method, resp)
}

// GetPaymentStatus fetches the current status of a gateway payment.
func (c *Client) GetPaymentStatus(ctx context.Context, externalID string) (*PaymentStatus, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercadopago client not configured")
	}
	trimmed := strings.TrimSpace(externalID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	var resp paymentResponse
	if err := c.do(ctx, http.MethodGet, "v1/payments/"+url.PathEscape(trimmed), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &PaymentStatus{Status: resp.Status, StatusDetail: resp.StatusDetail}, nil
}

// VoidPayment undoes a payment that has no local order behind it. Approved
// payments are refunded in full; anything still open is cancelled.
func (c *Client) VoidPayment(ctx context.Context, externalID, status string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "mercadopago client not configured")
	}
	trimmed := strings.TrimSpace(externalID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	path := "v1/payments/" + url.PathEscape(trimmed)

	switch status {
	case StatusApproved, StatusAuthorized:
		var resp refundResponse
		headers := map[string]string{"X-Idempotency-Key": "refund-" + trimmed}
		return c.do(ctx, http.MethodPost, path+"/refunds", strings.NewReader("{}"), headers, &resp)
	case StatusCancelled, StatusRejected, StatusRefunded:
		return nil
	default:
		var resp paymentResponse
		return c.do(ctx, http.MethodPut, path, strings.NewReader(`{"status":"cancelled"}`), nil, &resp)
	}
}

func (c *Client) buildCreateRequest(input CreatePaymentInput) (*createPaymentRequest, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if strings.TrimSpace(input.PayerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payer email is required")
	}

	req := &createPaymentRequest{
		TransactionAmount: json.Number(input.Amount.StringFixed(2)),
		Description:       input.Description,
		ExternalReference: input.OrderID.String(),
		NotificationURL:   c.notificationURL,
		Payer:             payer{Email: strings.TrimSpace(input.PayerEmail)},
	}
	if req.Description == "" {
		req.Description = fmt.Sprintf("Pedido %s", input.OrderNumber)
	}

	switch input.Method {
	case enums.PaymentMethodPix:
		req.PaymentMethodID = methodIDPix
		req.Payer.FirstName, req.Payer.LastName = splitName(input.PayerName)
	case enums.PaymentMethodCreditCard:
		if input.CardToken == nil || strings.TrimSpace(*input.CardToken) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "card token is required for card payments")
		}
		installments := input.Installments
		if installments == 0 {
			installments = 1
		}
		if installments < 1 || installments > c.maxInstallments {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("installments must be between 1 and %d", c.maxInstallments))
		}
		req.PaymentMethodID = methodIDVisa
		req.Installments = installments
		req.Token = strings.TrimSpace(*input.CardToken)
	case enums.PaymentMethodBoleto:
		req.PaymentMethodID = methodIDBoleto
		req.Payer.FirstName, req.Payer.LastName = splitName(input.PayerName)
		if input.PayerCPF != nil && strings.TrimSpace(*input.PayerCPF) != "" {
			req.Payer.Identification = &payerIdentification{Type: "CPF", Number: strings.TrimSpace(*input.PayerCPF)}
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %q", input.Method))
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, headers map[string]string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mercadopago rate limiter")
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build mercadopago request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute mercadopago request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "mercadopago request failed").
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode mercadopago response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

func mapCreatedPayment(method enums.PaymentMethod, resp paymentResponse) (*CreatedPayment, error) {
	externalID := resp.ID.String()
	if externalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercadopago response missing payment id")
	}
	out := &CreatedPayment{ExternalID: externalID, Status: resp.Status}
	expiresAt := parseGatewayTime(resp.DateOfExpiration)

	switch method {
	case enums.PaymentMethodCreditCard:
		if resp.Card != nil {
			out.CardLastFour = nonEmpty(resp.Card.LastFourDigits)
		}
		out.CardBrand = nonEmpty(resp.PaymentMethodID)
		installments := 1
		if resp.Installments != nil {
			installments = *resp.Installments
		}
		out.Installments = &installments
	case enums.PaymentMethodPix:
		if resp.PointOfInteraction != nil && resp.PointOfInteraction.TransactionData != nil {
			out.PixCode = nonEmpty(resp.PointOfInteraction.TransactionData.QRCode)
			out.PixQRCode = nonEmpty(resp.PointOfInteraction.TransactionData.QRCodeBase64)
		}
		out.PixExpiresAt = expiresAt
	case enums.PaymentMethodBoleto:
		if resp.TransactionDetails != nil {
			out.BoletoURL = nonEmpty(resp.TransactionDetails.ExternalResourceURL)
		}
		if resp.Barcode != nil {
			out.BoletoBarcode = nonEmpty(resp.Barcode.Content)
		}
		out.BoletoDueDate = expiresAt
	}
	return out, nil
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func parseGatewayTime(raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	utc := parsed.UTC()
	return &utc
}

func nonEmpty(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
