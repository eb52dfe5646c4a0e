package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type googleTestIssuer struct {
	signKey jwk.Key
	server  *httptest.Server
}

func newGoogleTestIssuer(t *testing.T) *googleTestIssuer {
	t.Helper()

	rawKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}

	signKey, err := jwk.FromRaw(rawKey)
	if err != nil {
		t.Fatalf("failed to build jwk: %v", err)
	}
	signKey.Set(jwk.KeyIDKey, "test-key-1")
	signKey.Set(jwk.AlgorithmKey, jwa.RS256)

	pubKey, err := signKey.PublicKey()
	if err != nil {
		t.Fatalf("failed to derive public key: %v", err)
	}

	set := jwk.NewSet()
	set.AddKey(pubKey)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(srv.Close)

	return &googleTestIssuer{signKey: signKey, server: srv}
}

func (i *googleTestIssuer) sign(t *testing.T, claims map[string]any) string {
	t.Helper()

	builder := jwt.NewBuilder().
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour))
	for name, value := range claims {
		builder = builder.Claim(name, value)
	}
	token, err := builder.Build()
	if err != nil {
		t.Fatalf("failed to build token: %v", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, i.signKey))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return string(signed)
}

func TestGoogleVerifier_Exchange(t *testing.T) {
	t.Parallel()

	issuer := newGoogleTestIssuer(t)
	verifier := NewGoogleVerifier(NewJWKSManager(), "google-client-id").
		WithEndpoints(issuer.server.URL, "https://accounts.google.com")

	idToken := issuer.sign(t, map[string]any{
		"iss":     "https://accounts.google.com",
		"aud":     "google-client-id",
		"sub":     "google-subject-1",
		"email":   "analyst@example.com",
		"name":    "Ada Analyst",
		"picture": "https://lh3.googleusercontent.com/ada.jpg",
	})

	identity, err := verifier.Exchange(context.Background(), idToken)
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if identity.SubjectID != "google-subject-1" {
		t.Errorf("SubjectID = %q, want %q", identity.SubjectID, "google-subject-1")
	}
	if identity.Email != "analyst@example.com" {
		t.Errorf("Email = %q", identity.Email)
	}
	if identity.DisplayName != "Ada Analyst" {
		t.Errorf("DisplayName = %q", identity.DisplayName)
	}
}

func TestGoogleVerifier_RejectsBadTokens(t *testing.T) {
	t.Parallel()

	issuer := newGoogleTestIssuer(t)
	verifier := NewGoogleVerifier(NewJWKSManager(), "google-client-id").
		WithEndpoints(issuer.server.URL, "https://accounts.google.com")

	tests := []struct {
		name       string
		idToken    func(t *testing.T) string
		wantReason string
	}{
		{
			name: "garbage token",
			idToken: func(t *testing.T) string {
				return "not-a-jwt"
			},
			wantReason: ReasonInvalidToken,
		},
		{
			name: "wrong audience",
			idToken: func(t *testing.T) string {
				return issuer.sign(t, map[string]any{
					"iss":   "https://accounts.google.com",
					"aud":   "some-other-client",
					"sub":   "google-subject-1",
					"email": "analyst@example.com",
				})
			},
			wantReason: ReasonInvalidToken,
		},
		{
			name: "wrong issuer",
			idToken: func(t *testing.T) string {
				return issuer.sign(t, map[string]any{
					"iss":   "https://evil.example.com",
					"aud":   "google-client-id",
					"sub":   "google-subject-1",
					"email": "analyst@example.com",
				})
			},
			wantReason: ReasonInvalidToken,
		},
		{
			name: "missing email",
			idToken: func(t *testing.T) string {
				return issuer.sign(t, map[string]any{
					"iss": "https://accounts.google.com",
					"aud": "google-client-id",
					"sub": "google-subject-1",
				})
			},
			wantReason: ReasonNoEmail,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := verifier.Exchange(context.Background(), tt.idToken(t))
			if err == nil {
				t.Fatal("Exchange() expected error")
			}

			var oauthErr *Error
			if !errors.As(err, &oauthErr) {
				t.Fatalf("expected *oauth.Error, got %T", err)
			}
			if oauthErr.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", oauthErr.Reason, tt.wantReason)
			}
		})
	}
}
