package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, manifest string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	const secret = "whsec_test"
	v1 := sign(secret, "id:12345;request-id:req-1;ts:1700000000;")
	header := "ts=1700000000,v1=" + v1

	v := NewWebhookVerifier(secret)
	require.NoError(t, v.Verify(header, "req-1", "12345"))
}

func TestVerifyAcceptsSpacedAndUppercaseHeader(t *testing.T) {
	const secret = "whsec_test"
	v1 := sign(secret, "id:12345;request-id:req-1;ts:1700000000;")
	header := "ts=1700000000, v1=" + hexUpper(v1)

	v := NewWebhookVerifier(secret)
	require.NoError(t, v.Verify(header, "req-1", "12345"))
}

func hexUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func TestVerifyRejectsTamperedDataID(t *testing.T) {
	const secret = "whsec_test"
	v1 := sign(secret, "id:12345;request-id:req-1;ts:1700000000;")
	header := "ts=1700000000,v1=" + v1

	v := NewWebhookVerifier(secret)
	assert.ErrorIs(t, v.Verify(header, "req-1", "99999"), ErrSignatureMismatch)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v1 := sign("other-secret", "id:12345;request-id:req-1;ts:1700000000;")
	header := "ts=1700000000,v1=" + v1

	v := NewWebhookVerifier("whsec_test")
	assert.ErrorIs(t, v.Verify(header, "req-1", "12345"), ErrSignatureMismatch)
}

func TestVerifyRejectsMalformedHeader(t *testing.T) {
	v := NewWebhookVerifier("whsec_test")
	for _, header := range []string{"", "garbage", "ts=1700000000", "v1=deadbeef"} {
		assert.ErrorIsf(t, v.Verify(header, "req-1", "12345"), ErrMalformedSignature, "header %q", header)
	}
}

func TestEmptySecretDisablesVerification(t *testing.T) {
	v := NewWebhookVerifier("")
	assert.False(t, v.Enabled())
	assert.NoError(t, v.Verify("garbage", "req-1", "12345"))
}
