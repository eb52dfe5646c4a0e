package oauth

import (
	"context"
	"fmt"

	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// GoogleJWKSURL is Google's published signing-key set
	GoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
	// GoogleIssuer is the expected iss claim (Google also emits the bare form)
	GoogleIssuer     = "https://accounts.google.com"
	googleIssuerBare = "accounts.google.com"
)

// GoogleVerifier converts a Google-issued ID token into a normalized
// identity. Signature verification is delegated to the jwx key-set parser
// against Google's JWKS; audience must match the configured client ID.
type GoogleVerifier struct {
	jwksManager *JWKSManager
	clientID    string
	jwksURL     string
	issuer      string
}

// NewGoogleVerifier creates a Google ID-token verifier
func NewGoogleVerifier(jwksManager *JWKSManager, clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		jwksManager: jwksManager,
		clientID:    clientID,
		jwksURL:     GoogleJWKSURL,
		issuer:      GoogleIssuer,
	}
}

// WithEndpoints overrides the JWKS URL and issuer. Exposed for tests.
func (v *GoogleVerifier) WithEndpoints(jwksURL, issuer string) *GoogleVerifier {
	v.jwksURL = jwksURL
	v.issuer = issuer
	return v
}

// Exchange verifies the ID token and extracts the identity claims. Any
// verification failure is an Error with reason invalid_token.
func (v *GoogleVerifier) Exchange(ctx context.Context, idToken string) (*models.Identity, error) {
	keys, err := v.jwksManager.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, newError(ReasonInvalidToken, fmt.Errorf("failed to get JWKS: %w", err))
	}

	token, err := jwt.Parse([]byte(idToken), jwt.WithKeySet(keys), jwt.WithValidate(true))
	if err != nil {
		return nil, newError(ReasonInvalidToken, fmt.Errorf("failed to parse/verify token: %w", err))
	}

	if iss := token.Issuer(); iss != v.issuer && iss != googleIssuerBare {
		return nil, newError(ReasonInvalidToken, fmt.Errorf("unexpected issuer %q", iss))
	}

	if !audienceContains(token.Audience(), v.clientID) {
		return nil, newError(ReasonInvalidToken, fmt.Errorf("audience mismatch"))
	}

	identity := &models.Identity{SubjectID: token.Subject()}

	if email, ok := token.Get("email"); ok {
		identity.Email, _ = email.(string)
	}
	if name, ok := token.Get("name"); ok {
		identity.DisplayName, _ = name.(string)
	}
	if picture, ok := token.Get("picture"); ok {
		identity.AvatarURL, _ = picture.(string)
	}

	if identity.SubjectID == "" {
		return nil, newError(ReasonInvalidToken, fmt.Errorf("token missing sub claim"))
	}
	if identity.Email == "" {
		return nil, newError(ReasonNoEmail, fmt.Errorf("token missing email claim"))
	}

	return identity, nil
}

func audienceContains(audience []string, clientID string) bool {
	for _, aud := range audience {
		if aud == clientID {
			return true
		}
	}
	return false
}
