package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/models"
	"golang.org/x/oauth2"
)

const (
	// LinkedInAuthURL is the browser authorization endpoint (returned to the
	// frontend, not called server-side)
	LinkedInAuthURL = "https://www.linkedin.com/oauth/v2/authorization"
	// LinkedInTokenURL is the code-for-token exchange endpoint
	LinkedInTokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
	// LinkedInUserinfoURL is the OIDC userinfo endpoint
	LinkedInUserinfoURL = "https://api.linkedin.com/v2/userinfo"
	// LinkedInScope is the scope requested during authorization
	LinkedInScope = "openid profile email"
)

// LinkedInExchanger converts an authorization code into a normalized
// identity. The exchange is strictly sequential: the token from step one is
// the bearer credential for the userinfo fetch in step two.
type LinkedInExchanger struct {
	clientID     string
	clientSecret string
	tokenURL     string
	userinfoURL  string
	httpClient   *http.Client
}

// NewLinkedInExchanger creates a LinkedIn code exchanger
func NewLinkedInExchanger(clientID, clientSecret string) *LinkedInExchanger {
	return &LinkedInExchanger{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     LinkedInTokenURL,
		userinfoURL:  LinkedInUserinfoURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// WithEndpoints overrides the provider endpoints. Exposed for tests.
func (e *LinkedInExchanger) WithEndpoints(tokenURL, userinfoURL string) *LinkedInExchanger {
	e.tokenURL = tokenURL
	e.userinfoURL = userinfoURL
	return e
}

// linkedinProfile is the userinfo response shape
type linkedinProfile struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// Exchange trades the authorization code for an access token, then fetches
// the authenticated profile. Failure reasons: exchange_failed when the token
// endpoint rejects the code, no_email when the profile has no email claim.
func (e *LinkedInExchanger) Exchange(ctx context.Context, code, redirectURI string) (*models.Identity, error) {
	token, err := e.exchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, newError(ReasonExchangeFailed, err)
	}

	profile, err := e.fetchProfile(ctx, token)
	if err != nil {
		return nil, newError(ReasonExchangeFailed, err)
	}

	if profile.Email == "" {
		return nil, newError(ReasonNoEmail, fmt.Errorf("userinfo response has no email claim"))
	}

	displayName := strings.TrimSpace(profile.GivenName + " " + profile.FamilyName)
	if displayName == "" {
		displayName = profile.Name
	}

	return &models.Identity{
		SubjectID:   profile.Sub,
		Email:       strings.ToLower(profile.Email),
		DisplayName: displayName,
		AvatarURL:   profile.Picture,
	}, nil
}

func (e *LinkedInExchanger) exchangeCode(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	conf := &oauth2.Config{
		ClientID:     e.clientID,
		ClientSecret: e.clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   LinkedInAuthURL,
			TokenURL:  e.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, nil
}

func (e *LinkedInExchanger) fetchProfile(ctx context.Context, token *oauth2.Token) (*linkedinProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo endpoint returned status %d: %s", resp.StatusCode, body)
	}

	profile := &linkedinProfile{}
	if err := json.NewDecoder(resp.Body).Decode(profile); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return profile, nil
}
