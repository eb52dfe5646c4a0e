package models

import (
	"strings"
	"time"
)

// SessionTTL is the fixed lifetime of an issued session token.
// Tokens are non-renewable; re-authentication produces an independent token.
const SessionTTL = 7 * 24 * time.Hour

// Identity is a normalized identity record produced by any authentication
// method (password, Google, LinkedIn).
type Identity struct {
	SubjectID   string `json:"subject_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// SessionPayload is the decoded contents of a bearer token.
// Timestamps are Unix epoch milliseconds.
type SessionPayload struct {
	SubjectID   string `json:"subject_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        string `json:"role,omitempty"`
	IssuedAt    int64  `json:"issued_at"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Expired reports whether the payload is past its expiry at the given time.
func (p *SessionPayload) Expired(now time.Time) bool {
	return now.UnixMilli() >= p.ExpiresAt
}

// UserView is the response-shaping projection of an authenticated user
// returned by the login and /me endpoints.
type UserView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Role        string     `json:"role"`
	CompanyName *string    `json:"company_name,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	LastLoginAt time.Time  `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SplitDisplayName splits a display name into first/last name best-effort:
// the first whitespace-delimited token versus the remainder.
func SplitDisplayName(displayName string) (first, last string) {
	trimmed := strings.TrimSpace(displayName)
	if trimmed == "" {
		return "", ""
	}
	parts := strings.Fields(trimmed)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
