package session

import (
	"errors"
	"testing"

	"github.com/bakiel/jasper-portal-api/internal/models"
)

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	payload := &models.SessionPayload{
		SubjectID: "u1",
		Email:     "a@b.com",
		IssuedAt:  1700000000000,
		ExpiresAt: 1700604800000,
	}

	for _, secret := range []string{"", "test-secret"} {
		codec := NewCodec(secret)

		token, err := codec.Encode(payload)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		decoded, err := codec.Decode(token)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}

		if *decoded != *payload {
			t.Errorf("Round trip mismatch: got %+v, want %+v", decoded, payload)
		}
	}
}

func TestCodec_DecodeMalformed(t *testing.T) {
	t.Parallel()

	codec := NewCodec("")

	tests := []struct {
		name  string
		token string
	}{
		{name: "not base64", token: "not-base64!!"},
		{name: "valid base64 wrong shape", token: "eyJhIjoxfQ=="},
		{name: "empty", token: ""},
		{name: "base64 but not json", token: "aGVsbG8gd29ybGQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := codec.Decode(tt.token)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, ErrMalformedToken) {
				t.Errorf("Expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestCodec_SignedTokenRejectsTampering(t *testing.T) {
	t.Parallel()

	codec := NewCodec("test-secret")
	payload := &models.SessionPayload{
		SubjectID: "u1",
		Email:     "a@b.com",
		IssuedAt:  1700000000000,
		ExpiresAt: 1700604800000,
	}

	token, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Token produced by a codec with a different secret must not verify
	other := NewCodec("other-secret")
	if _, err := other.Decode(token); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("Expected ErrMalformedToken for wrong secret, got %v", err)
	}

	// Unsigned token must not pass a signing codec
	unsigned, err := NewCodec("").Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := codec.Decode(unsigned); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("Expected ErrMalformedToken for unsigned token, got %v", err)
	}
}
