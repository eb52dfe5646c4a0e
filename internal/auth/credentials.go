package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bakiel/jasper-portal-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed verification. Unknown
// email and wrong password are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid email or password")

// dummyHash is compared against when the email is unknown
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("jasper-dummy-credential"), bcrypt.DefaultCost)

// Entry is one allow-list account
type Entry struct {
	Email        string
	DisplayName  string
	PasswordHash string
}

// Verifier checks email/password pairs against a fixed in-memory allow-list.
// Passwords are stored as bcrypt hashes and compared with
// bcrypt.CompareHashAndPassword.
type Verifier struct {
	entries map[string]Entry
}

// NewVerifier creates a verifier from pre-hashed allow-list entries
func NewVerifier(entries []Entry) *Verifier {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[strings.ToLower(strings.TrimSpace(e.Email))] = e
	}
	return &Verifier{entries: m}
}

// NewVerifierFromPlaintext hashes the given passwords and builds a verifier.
// Intended for demo/provisioning paths where credentials arrive from
// configuration rather than a credential store.
func NewVerifierFromPlaintext(accounts map[string]struct{ Password, DisplayName string }) (*Verifier, error) {
	entries := make([]Entry, 0, len(accounts))
	for email, acc := range accounts {
		hash, err := HashPassword(acc.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", email, err)
		}
		entries = append(entries, Entry{Email: email, DisplayName: acc.DisplayName, PasswordHash: hash})
	}
	return NewVerifier(entries), nil
}

// Verify checks an email/password pair. Lookup is case-insensitive on email.
// On success it returns a normalized identity whose subject is the email.
func (v *Verifier) Verify(email, password string) (*models.Identity, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	entry, ok := v.entries[normalized]
	if !ok {
		// Burn a comparison anyway so unknown emails cost the same as
		// mismatched passwords.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(entry.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &models.Identity{
		SubjectID:   normalized,
		Email:       normalized,
		DisplayName: entry.DisplayName,
	}, nil
}

// HashPassword produces a bcrypt hash at the default cost
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}
