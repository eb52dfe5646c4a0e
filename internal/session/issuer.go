package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/database"
	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/google/uuid"
)

const (
	// ProviderPassword marks identities verified against the credential store
	ProviderPassword = "password"
	// ProviderGoogle marks identities from a Google ID token
	ProviderGoogle = "google"
	// ProviderLinkedIn marks identities from a LinkedIn code exchange
	ProviderLinkedIn = "linkedin"
)

// Grant is the result of issuing a session for a verified identity
type Grant struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int64            `json:"expires_in"`
	User        *models.UserView `json:"user"`
}

// Issuer combines a verified identity with a fixed expiry to produce a bearer
// token, upserting the backing client record along the way. There is no
// session table: each issuance is independent and invalidation is purely
// time-based.
type Issuer struct {
	codec   *Codec
	clients database.ClientRepositoryInterface
	now     func() time.Time
}

// NewIssuer creates a session issuer
func NewIssuer(codec *Codec, clients database.ClientRepositoryInterface) *Issuer {
	return &Issuer{
		codec:   codec,
		clients: clients,
		now:     time.Now,
	}
}

// WithClock overrides the issuer's time source. Exposed for tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue produces a bearer token and the user-facing view for a verified
// identity. The token expires exactly models.SessionTTL after issuance and is
// not renewable without re-authentication.
func (i *Issuer) Issue(ctx context.Context, identity *models.Identity, provider, role string) (*Grant, error) {
	now := i.now()
	email := strings.ToLower(strings.TrimSpace(identity.Email))

	record, err := i.upsertClient(ctx, identity, provider, email, now)
	if err != nil {
		return nil, err
	}

	payload := &models.SessionPayload{
		SubjectID:   identity.SubjectID,
		Email:       email,
		DisplayName: identity.DisplayName,
		AvatarURL:   identity.AvatarURL,
		Role:        role,
		IssuedAt:    now.UnixMilli(),
		ExpiresAt:   now.Add(models.SessionTTL).UnixMilli(),
	}

	token, err := i.codec.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session token: %w", err)
	}

	return &Grant{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(models.SessionTTL.Seconds()),
		User:        i.userView(identity, record, role, now),
	}, nil
}

// upsertClient resolves the client record for an identity, creating it on
// first login. Lookup is by provider ID for OAuth identities, by email for
// password identities. A nil record (no store configured) is tolerated.
func (i *Issuer) upsertClient(ctx context.Context, identity *models.Identity, provider, email string, now time.Time) (*models.Client, error) {
	if i.clients == nil {
		return nil, nil
	}

	var record *models.Client
	var err error
	if provider == ProviderPassword {
		record, err = i.clients.GetByEmail(ctx, email)
	} else {
		record, err = i.clients.GetByProviderID(ctx, provider, identity.SubjectID)
		if err != nil && errors.Is(err, sql.ErrNoRows) {
			// Provider not linked yet; fall back to the email before creating
			record, err = i.clients.GetByEmail(ctx, email)
		}
	}

	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to look up client: %w", err)
		}
		record = i.newClientRecord(identity, provider, email)
		if createErr := i.clients.Create(ctx, record); createErr != nil {
			return nil, fmt.Errorf("failed to create client: %w", createErr)
		}
	} else if i.linkProvider(record, identity, provider) {
		if updateErr := i.clients.Update(ctx, record); updateErr != nil {
			return nil, fmt.Errorf("failed to link provider: %w", updateErr)
		}
	}

	if err := i.clients.RecordLogin(ctx, record.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	record.LastLoginAt = &now

	return record, nil
}

func (i *Issuer) newClientRecord(identity *models.Identity, provider, email string) *models.Client {
	record := &models.Client{
		ID:     uuid.New(),
		Email:  email,
		Status: models.ClientStatusPendingApproval,
		// OAuth providers assert the address; password logins come from the
		// pre-provisioned allow-list
		EmailVerified: true,
	}
	if identity.DisplayName != "" {
		name := identity.DisplayName
		record.FullName = &name
	}
	if identity.AvatarURL != "" {
		avatar := identity.AvatarURL
		record.AvatarURL = &avatar
	}
	i.linkProvider(record, identity, provider)
	return record
}

// linkProvider attaches the provider subject ID to the record when missing.
// Reports whether the record changed.
func (i *Issuer) linkProvider(record *models.Client, identity *models.Identity, provider string) bool {
	changed := false
	switch provider {
	case ProviderGoogle:
		if record.GoogleID == nil || *record.GoogleID != identity.SubjectID {
			id := identity.SubjectID
			record.GoogleID = &id
			changed = true
		}
	case ProviderLinkedIn:
		if record.LinkedInID == nil || *record.LinkedInID != identity.SubjectID {
			id := identity.SubjectID
			record.LinkedInID = &id
			changed = true
		}
	}
	if identity.AvatarURL != "" && (record.AvatarURL == nil || *record.AvatarURL != identity.AvatarURL) {
		avatar := identity.AvatarURL
		record.AvatarURL = &avatar
		changed = true
	}
	return changed
}

// userView shapes the response projection: display name split into
// first/last, fixed role, persisted timestamps with "now" as fallback.
func (i *Issuer) userView(identity *models.Identity, record *models.Client, role string, now time.Time) *models.UserView {
	first, last := models.SplitDisplayName(identity.DisplayName)

	view := &models.UserView{
		ID:          identity.SubjectID,
		Email:       strings.ToLower(identity.Email),
		FirstName:   first,
		LastName:    last,
		Role:        role,
		AvatarURL:   identity.AvatarURL,
		LastLoginAt: now,
		CreatedAt:   now,
	}

	if record != nil {
		view.ID = record.ID.String()
		view.CompanyName = record.CompanyName
		if !record.CreatedAt.IsZero() {
			view.CreatedAt = record.CreatedAt
		}
		if record.LastLoginAt != nil {
			view.LastLoginAt = *record.LastLoginAt
		}
	}

	return view
}
