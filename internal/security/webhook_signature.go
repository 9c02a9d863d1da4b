package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrMalformedSignature = errors.New("malformed x-signature header")
	ErrSignatureMismatch  = errors.New("signature mismatch")
)

// WebhookVerifier checks the Mercado Pago x-signature header:
// "ts=<unix>,v1=<hex hmac-sha256>" over the manifest
// "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
// A zero-value secret disables verification (sandbox mode).
type WebhookVerifier struct {
	secret []byte
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

func (v *WebhookVerifier) Enabled() bool { return len(v.secret) > 0 }

func (v *WebhookVerifier) Verify(signatureHeader, requestID, dataID string) error {
	if !v.Enabled() {
		return nil
	}

	var ts, v1 string
	for _, part := range strings.Split(signatureHeader, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "ts":
			ts = val
		case "v1":
			v1 = val
		}
	}
	if ts == "" || v1 == "" {
		return ErrMalformedSignature
	}

	manifest := "id:" + dataID + ";request-id:" + requestID + ";ts:" + ts + ";"
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return ErrSignatureMismatch
	}
	return nil
}
