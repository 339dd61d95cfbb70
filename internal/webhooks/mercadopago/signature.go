package mercadopagowebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
)

// Manifest builds the string the gateway signs for a notification.
func Manifest(dataID, requestID, ts string) string {
	var b strings.Builder
	b.WriteString("id:")
	b.WriteString(strings.ToLower(dataID))
	b.WriteString(";")
	if requestID != "" {
		b.WriteString("request-id:")
		b.WriteString(requestID)
		b.WriteString(";")
	}
	b.WriteString("ts:")
	b.WriteString(ts)
	b.WriteString(";")
	return b.String()
}

// Sign returns the hex HMAC-SHA256 of manifest under secret.
func Sign(secret, manifest string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks an x-signature header of the form "ts=...,v1=...".
func VerifySignature(secret, header, dataID, requestID string) error {
	ts, v1 := parseSignatureHeader(header)
	if ts == "" || v1 == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "signature header malformed")
	}
	expected := Sign(secret, Manifest(dataID, requestID, ts))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "signature mismatch")
	}
	return nil
}

func parseSignatureHeader(header string) (ts, v1 string) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	return ts, v1
}
