package webhooks

import (
	"strings"
	"testing"
)

func TestSign(t *testing.T) {
	secret := "secret"
	payload := []byte("payload")

	// Calculated using: echo -n "payload" | openssl dgst -sha256 -hmac "secret"
	expected := "b82fcb791acec57859b989b430a826488ce2e479fdf92326bd0a2e8375a42ba4"

	got := Sign(secret, payload)

	if got != expected {
		t.Errorf("Sign() = %v, want %v", got, expected)
	}
}

func TestSignatureHeader(t *testing.T) {
	got := SignatureHeader("secret", []byte("payload"))
	want := "sha256=b82fcb791acec57859b989b430a826488ce2e479fdf92326bd0a2e8375a42ba4"

	if got != want {
		t.Errorf("SignatureHeader() = %v, want %v", got, want)
	}
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"type":"card.moved","card_id":"card_1"}`)
	header := SignatureHeader(secret, payload)

	tests := []struct {
		name    string
		payload []byte
		secret  string
		header  string
		want    bool
	}{
		{"valid", payload, secret, header, true},
		{"valid without prefix", payload, secret, Sign(secret, payload), true},
		{"tampered payload", []byte(`{"type":"card.moved","card_id":"card_2"}`), secret, header, false},
		{"wrong secret", payload, "whsec_other", header, false},
		{"empty header", payload, secret, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(tt.payload, tt.secret, tt.header); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateSecret(t *testing.T) {
	s1, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	if !strings.HasPrefix(s1, "whsec_") {
		t.Errorf("Expected whsec_ prefix, got %s", s1)
	}
	if len(s1) != len("whsec_")+48 {
		t.Errorf("Unexpected secret length %d", len(s1))
	}

	s2, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	if s1 == s2 {
		t.Error("Expected distinct secrets on successive calls")
	}
}
