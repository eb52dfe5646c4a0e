package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bakiel/jasper-portal-api/internal/auth"
	"github.com/bakiel/jasper-portal-api/internal/config"
	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/bakiel/jasper-portal-api/internal/queue"
	"github.com/bakiel/jasper-portal-api/internal/request"
	"github.com/bakiel/jasper-portal-api/internal/session"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func authTestHandler(t *testing.T, repo *fakeClientRepo, jobs queue.JobQueue) *AuthHandler {
	t.Helper()

	verifier, err := auth.NewVerifierFromPlaintext(map[string]struct{ Password, DisplayName string }{
		"admin@jasperfinmodel.com": {Password: "s3cret-pass", DisplayName: "Jasper Admin"},
	})
	if err != nil {
		t.Fatal(err)
	}

	codec := session.NewCodec("test-secret")
	issuer := session.NewIssuer(codec, repo)
	cfg := &config.Config{GoogleClientID: "", LinkedInClientID: ""}

	return NewAuthHandler(verifier, issuer, nil, nil, repo, jobs, cfg, zap.NewNop())
}

func authTestRouter(t *testing.T, repo *fakeClientRepo, jobs queue.JobQueue) *mux.Router {
	t.Helper()
	r := mux.NewRouter()
	authTestHandler(t, repo, jobs).RegisterRoutes(r)
	return r
}

func postLogin(router *mux.Router, email, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/auth/login", bytes.NewReader(body)))
	return rec
}

func TestLogin(t *testing.T) {
	t.Parallel()

	repo := newFakeClientRepo()
	jobs := &fakeJobQueue{}
	router := authTestRouter(t, repo, jobs)

	rec := postLogin(router, "admin@jasperfinmodel.com", "s3cret-pass")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var grant session.Grant
	if err := json.Unmarshal(rec.Body.Bytes(), &grant); err != nil {
		t.Fatalf("decode grant: %v", err)
	}
	if grant.AccessToken == "" {
		t.Error("missing access token")
	}
	if grant.TokenType != "Bearer" {
		t.Errorf("token_type = %q, want Bearer", grant.TokenType)
	}
	if grant.ExpiresIn != 7*24*60*60 {
		t.Errorf("expires_in = %d, want 604800", grant.ExpiresIn)
	}
	if grant.User == nil || grant.User.Email != "admin@jasperfinmodel.com" {
		t.Errorf("unexpected user view: %+v", grant.User)
	}

	// Login enqueues an alert job for the worker
	if len(jobs.jobs) != 1 || jobs.jobs[0].Type != queue.JobTypeLoginAlert {
		t.Fatalf("jobs = %+v, want one login alert", jobs.jobs)
	}
	if jobs.jobs[0].Metadata["provider"] != session.ProviderPassword {
		t.Errorf("provider metadata = %v", jobs.jobs[0].Metadata["provider"])
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "admin@jasperfinmodel.com", "wrong"},
		{"unknown email", "intruder@example.com", "s3cret-pass"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := authTestRouter(t, newFakeClientRepo(), nil)
			rec := postLogin(router, tt.email, tt.password)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			// Unknown email and wrong password read identically
			if body["detail"] != invalidCredentialsDetail {
				t.Errorf("detail = %q, want %q", body["detail"], invalidCredentialsDetail)
			}
		})
	}
}

func TestLoginMissingFields(t *testing.T) {
	t.Parallel()

	router := authTestRouter(t, newFakeClientRepo(), nil)

	rec := postLogin(router, "", "s3cret-pass")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty email: status = %d, want 400", rec.Code)
	}

	rec = postLogin(router, "admin@jasperfinmodel.com", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty password: status = %d, want 400", rec.Code)
	}
}

func TestLoginSucceedsWhenQueueDown(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobQueue{enqueueErr: errors.New("broker down")}
	router := authTestRouter(t, newFakeClientRepo(), jobs)

	rec := postLogin(router, "admin@jasperfinmodel.com", "s3cret-pass")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestOAuthClientIDsUnconfigured(t *testing.T) {
	t.Parallel()

	router := authTestRouter(t, newFakeClientRepo(), nil)

	for _, path := range []string{"/admin/auth/google-client-id", "/admin/auth/linkedin-client-id"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s: status = %d, want 500", path, rec.Code)
		}
	}
}

func TestOAuthLoginUnconfigured(t *testing.T) {
	t.Parallel()

	router := authTestRouter(t, newFakeClientRepo(), nil)

	body, _ := json.Marshal(map[string]string{"credential": "token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/auth/google", bytes.NewReader(body)))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("google: status = %d, want 500", rec.Code)
	}
}

func TestMe(t *testing.T) {
	t.Parallel()

	client := testClient(models.ClientStatusActive)
	client.Email = "admin@jasperfinmodel.com"
	repo := newFakeClientRepo(client)
	h := authTestHandler(t, repo, nil)

	payload := &models.SessionPayload{
		SubjectID:   client.ID.String(),
		Email:       client.Email,
		DisplayName: "Jasper Admin",
		Role:        "admin",
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/auth/me", nil)
	req = req.WithContext(request.WithSession(req.Context(), payload))

	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var view models.UserView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Email != client.Email {
		t.Errorf("email = %q", view.Email)
	}
	if view.ID != client.ID.String() {
		t.Errorf("id = %q, want client record ID", view.ID)
	}
	if view.Role != "admin" {
		t.Errorf("role = %q, want the role the session was issued with", view.Role)
	}
}

func TestMeFallsBackToTokenClaims(t *testing.T) {
	t.Parallel()

	// Empty repository: the lookup fails but the session stays usable
	h := authTestHandler(t, newFakeClientRepo(), nil)

	payload := &models.SessionPayload{
		SubjectID:   "google-sub-1",
		Email:       "ghost@example.com",
		DisplayName: "Ghost User",
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/auth/me", nil)
	req = req.WithContext(request.WithSession(req.Context(), payload))

	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var view models.UserView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.ID != "google-sub-1" || view.FirstName != "Ghost" {
		t.Errorf("unexpected fallback view: %+v", view)
	}
	if view.Role != "client" {
		t.Errorf("role = %q, want the client default for roleless tokens", view.Role)
	}
}
