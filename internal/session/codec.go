package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bakiel/jasper-portal-api/internal/models"
)

// ErrMalformedToken is returned when a token cannot be decoded into a
// session payload, or its signature does not verify.
var ErrMalformedToken = errors.New("malformed token")

// Codec encodes session payloads to opaque bearer strings and back.
//
// The token body is base64url(JSON). When the codec carries a secret, an
// HMAC-SHA256 signature is appended as "<body>.<sig>" and verified on
// decode; without a secret, tokens are unsigned and any holder can forge
// them. Production deployments must supply a secret.
type Codec struct {
	secret []byte
}

// NewCodec creates a token codec. An empty secret produces unsigned tokens.
func NewCodec(secret string) *Codec {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &Codec{secret: key}
}

// Encode serializes a session payload into a bearer token string
func (c *Codec) Encode(payload *models.SessionPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session payload: %w", err)
	}

	body := base64.RawURLEncoding.EncodeToString(data)
	if len(c.secret) == 0 {
		return body, nil
	}
	return body + "." + c.sign(body), nil
}

// Decode parses a bearer token back into a session payload. It fails with
// ErrMalformedToken on bad base64, bad JSON, a payload missing its required
// fields, or a signature mismatch.
func (c *Codec) Decode(token string) (*models.SessionPayload, error) {
	body := token
	if len(c.secret) > 0 {
		parts := strings.SplitN(token, ".", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: missing signature", ErrMalformedToken)
		}
		body = parts[0]
		if !hmac.Equal([]byte(c.sign(body)), []byte(parts[1])) {
			return nil, fmt.Errorf("%w: signature mismatch", ErrMalformedToken)
		}
	}

	data, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		// Tolerate padded tokens from older encoders
		data, err = base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64", ErrMalformedToken)
		}
	}

	payload := &models.SessionPayload{}
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("%w: invalid payload", ErrMalformedToken)
	}

	if payload.SubjectID == "" || payload.Email == "" || payload.ExpiresAt == 0 {
		return nil, fmt.Errorf("%w: incomplete payload", ErrMalformedToken)
	}

	return payload, nil
}

func (c *Codec) sign(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
