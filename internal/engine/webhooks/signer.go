package webhooks

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// SignatureHeader returns the value sent in X-Boardflow-Signature-256.
func SignatureHeader(secret string, payload []byte) string {
	return signaturePrefix + Sign(secret, payload)
}

// VerifySignature checks an inbound signature header against the payload
// in constant time. Accepts the header with or without the sha256= prefix.
func VerifySignature(payload []byte, secret, header string) bool {
	got := strings.TrimPrefix(header, signaturePrefix)
	want := Sign(secret, payload)
	return hmac.Equal([]byte(want), []byte(got))
}

// GenerateSecret returns a fresh whsec_-prefixed signing secret. The raw
// value is shown to the caller exactly once, at creation or rotation.
func GenerateSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "whsec_" + hex.EncodeToString(buf), nil
}
