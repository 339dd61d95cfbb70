package mercadopagowebhook

import (
	"bytes"
	"encoding/json"
	"strings"

	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// NotificationTypePayment is the only notification type that is reconciled.
const NotificationTypePayment = "payment"

// Notification is the decoded gateway callback.
type Notification struct {
	Type   string
	DataID string
}

type notificationBody struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type notificationData struct {
	ID json.RawMessage `json:"id"`
}

// IsPayment reports whether the notification is one that gets reconciled.
func (n Notification) IsPayment() bool {
	return n.Type == NotificationTypePayment
}

// ParseNotification decodes the callback body. data.id may be a JSON string
// or number; numbers are rendered in plain notation. data is only required to
// be well formed on payment notifications; other types keep whatever id can
// be read and are never rejected for their data.
func ParseNotification(body []byte) (Notification, error) {
	var raw notificationBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return Notification{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook body")
	}
	n := Notification{Type: strings.TrimSpace(raw.Type)}

	id, err := decodeDataID(raw.Data)
	if err != nil {
		if n.IsPayment() {
			return Notification{}, err
		}
		return n, nil
	}
	n.DataID = id
	return n, nil
}

func decodeDataID(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	var data notificationData
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "data must be an object")
	}
	return parseDataID(data.ID)
}

func parseDataID(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode data.id")
		}
		return strings.TrimSpace(s), nil
	}
	n, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "data.id must be a string or number")
	}
	return n.String(), nil
}
