package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bakiel/jasper-portal-api/internal/auth"
	"github.com/bakiel/jasper-portal-api/internal/config"
	"github.com/bakiel/jasper-portal-api/internal/database"
	logpkg "github.com/bakiel/jasper-portal-api/internal/logger"
	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/bakiel/jasper-portal-api/internal/queue"
	"github.com/bakiel/jasper-portal-api/internal/request"
	"github.com/bakiel/jasper-portal-api/internal/services/oauth"
	"github.com/bakiel/jasper-portal-api/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// invalidCredentialsDetail is returned for every credential failure so the
// response does not reveal whether the email exists
const invalidCredentialsDetail = "Invalid email or password"

// credentialVerifier checks an email/password pair. Satisfied by *auth.Verifier.
type credentialVerifier interface {
	Verify(email, password string) (*models.Identity, error)
}

// sessionIssuer mints a grant for a verified identity. Satisfied by *session.Issuer.
type sessionIssuer interface {
	Issue(ctx context.Context, identity *models.Identity, provider, role string) (*session.Grant, error)
}

// googleExchanger verifies a Google ID token. Satisfied by *oauth.GoogleVerifier.
type googleExchanger interface {
	Exchange(ctx context.Context, idToken string) (*models.Identity, error)
}

// linkedInExchanger trades a LinkedIn code for an identity. Satisfied by *oauth.LinkedInExchanger.
type linkedInExchanger interface {
	Exchange(ctx context.Context, code, redirectURI string) (*models.Identity, error)
}

// AuthHandler handles the admin authentication endpoints
type AuthHandler struct {
	verifier credentialVerifier
	issuer   sessionIssuer
	google   googleExchanger
	linkedin linkedInExchanger
	clients  database.ClientRepositoryInterface
	jobs     queue.JobQueue
	cfg      *config.Config
	logger   *zap.Logger
}

// NewAuthHandler creates the auth handler. google and linkedin may be nil
// when the provider is unconfigured; the endpoint then returns a 500 with a
// detail body instead of crashing at startup. jobs may be nil to disable the
// login-alert side effect.
func NewAuthHandler(
	verifier credentialVerifier,
	issuer sessionIssuer,
	google googleExchanger,
	linkedin linkedInExchanger,
	clients database.ClientRepositoryInterface,
	jobs queue.JobQueue,
	cfg *config.Config,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		verifier: verifier,
		issuer:   issuer,
		google:   google,
		linkedin: linkedin,
		clients:  clients,
		jobs:     jobs,
		cfg:      cfg,
		logger:   logger,
	}
}

// RegisterRoutes registers the unauthenticated auth routes
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/admin/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/admin/auth/google-client-id", h.GoogleClientID).Methods(http.MethodGet)
	r.HandleFunc("/admin/auth/google", h.GoogleLogin).Methods(http.MethodPost)
	r.HandleFunc("/admin/auth/linkedin-client-id", h.LinkedInClientID).Methods(http.MethodGet)
	r.HandleFunc("/admin/auth/linkedin", h.LinkedInLogin).Methods(http.MethodPost)
}

// RegisterProtectedRoutes registers routes that require a bearer token
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/admin/auth/me", h.Me).Methods(http.MethodGet)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an email/password pair and issues a session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondDetail(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	identity, err := h.verifier.Verify(req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Error("credential_verification_failed", zap.Error(err))
		}
		respondDetail(w, http.StatusUnauthorized, invalidCredentialsDetail)
		return
	}

	h.issueAndRespond(w, r, identity, session.ProviderPassword, "admin")
}

// GoogleClientID returns the configured Google OAuth client ID
func (h *AuthHandler) GoogleClientID(w http.ResponseWriter, r *http.Request) {
	if h.cfg.GoogleClientID == "" {
		respondDetail(w, http.StatusInternalServerError, "Google sign-in is not configured")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"client_id": h.cfg.GoogleClientID})
}

type googleLoginRequest struct {
	Credential string `json:"credential"`
}

// GoogleLogin verifies a Google ID token and issues a session
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || h.cfg.GoogleClientID == "" {
		respondDetail(w, http.StatusInternalServerError, "Google sign-in is not configured")
		return
	}

	var req googleLoginRequest
	if err := decodeJSON(r, &req); err != nil || req.Credential == "" {
		respondDetail(w, http.StatusBadRequest, "Credential is required")
		return
	}

	identity, err := h.google.Exchange(r.Context(), req.Credential)
	if err != nil {
		h.respondOAuthError(w, err, "google")
		return
	}

	h.issueAndRespond(w, r, identity, session.ProviderGoogle, "client")
}

// LinkedInClientID returns the LinkedIn OAuth client configuration for the frontend
func (h *AuthHandler) LinkedInClientID(w http.ResponseWriter, r *http.Request) {
	if h.cfg.LinkedInClientID == "" {
		respondDetail(w, http.StatusInternalServerError, "LinkedIn sign-in is not configured")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"client_id":    h.cfg.LinkedInClientID,
		"redirect_uri": h.cfg.LinkedInRedirectURI,
		"scope":        oauth.LinkedInScope,
	})
}

type linkedinLoginRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// LinkedInLogin exchanges a LinkedIn authorization code and issues a session
func (h *AuthHandler) LinkedInLogin(w http.ResponseWriter, r *http.Request) {
	if h.linkedin == nil || !h.cfg.LinkedInConfigured() {
		respondDetail(w, http.StatusInternalServerError, "LinkedIn sign-in is not configured")
		return
	}

	var req linkedinLoginRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" || req.RedirectURI == "" {
		respondDetail(w, http.StatusBadRequest, "Code and redirect_uri are required")
		return
	}

	identity, err := h.linkedin.Exchange(r.Context(), req.Code, req.RedirectURI)
	if err != nil {
		h.respondOAuthError(w, err, "linkedin")
		return
	}

	h.issueAndRespond(w, r, identity, session.ProviderLinkedIn, "client")
}

// Me returns the authenticated user's view
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := request.SessionFromContext(r)
	if sess == nil {
		respondDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	// Tokens minted before the payload carried a role decode with it empty
	role := sess.Role
	if role == "" {
		role = "client"
	}

	record, err := h.clients.GetByEmail(r.Context(), sess.Email)
	if err != nil {
		// The session is valid even when the record lookup fails; fall back
		// to the token's own claims
		first, last := models.SplitDisplayName(sess.DisplayName)
		respondJSON(w, http.StatusOK, &models.UserView{
			ID:        sess.SubjectID,
			Email:     sess.Email,
			FirstName: first,
			LastName:  last,
			Role:      role,
			AvatarURL: sess.AvatarURL,
		})
		return
	}

	first, last := models.SplitDisplayName(sess.DisplayName)
	view := &models.UserView{
		ID:        record.ID.String(),
		Email:     record.Email,
		FirstName: first,
		LastName:  last,
		Role:      role,
		AvatarURL: sess.AvatarURL,
		CreatedAt: record.CreatedAt,
	}
	if record.FullName != nil && *record.FullName != "" {
		view.FirstName, view.LastName = models.SplitDisplayName(*record.FullName)
	}
	if record.CompanyName != nil {
		view.CompanyName = record.CompanyName
	}
	if record.LastLoginAt != nil {
		view.LastLoginAt = *record.LastLoginAt
	}
	respondJSON(w, http.StatusOK, view)
}

// issueAndRespond mints the session grant and enqueues the login-alert side
// effect. Queue failures are logged, never surfaced: the login succeeded.
func (h *AuthHandler) issueAndRespond(w http.ResponseWriter, r *http.Request, identity *models.Identity, provider, role string) {
	grant, err := h.issuer.Issue(r.Context(), identity, provider, role)
	if err != nil {
		h.logger.Error("session_issue_failed",
			zap.String("provider", provider),
			zap.String("error", logpkg.SanitizeError(err)))
		respondDetail(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.enqueueLoginAlert(r.Context(), grant, identity, provider)

	respondJSON(w, http.StatusOK, grant)
}

func (h *AuthHandler) enqueueLoginAlert(ctx context.Context, grant *session.Grant, identity *models.Identity, provider string) {
	if h.jobs == nil {
		return
	}

	userID, err := uuid.Parse(grant.User.ID)
	if err != nil {
		userID = uuid.Nil
	}

	job := queue.NewJob(queue.JobTypeLoginAlert, userID, identity.Email)
	job.Metadata["provider"] = provider
	if err := h.jobs.Enqueue(ctx, job); err != nil {
		h.logger.Warn("login_alert_enqueue_failed",
			zap.String("provider", provider),
			zap.Error(err))
	}
}

func (h *AuthHandler) respondOAuthError(w http.ResponseWriter, err error, provider string) {
	var oauthErr *oauth.Error
	reason := oauth.ReasonInvalidToken
	if errors.As(err, &oauthErr) {
		reason = oauthErr.Reason
	}

	h.logger.Warn("oauth_exchange_failed",
		zap.String("provider", provider),
		zap.String("reason", reason),
		zap.String("error", logpkg.SanitizeError(err)))

	respondJSON(w, http.StatusUnauthorized, map[string]string{
		"detail": "Authentication failed",
		"error":  reason,
	})
}
