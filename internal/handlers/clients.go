package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bakiel/jasper-portal-api/internal/database"
	logpkg "github.com/bakiel/jasper-portal-api/internal/logger"
	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/bakiel/jasper-portal-api/internal/queue"
	"github.com/bakiel/jasper-portal-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ClientsHandler handles the admin client-management endpoints
type ClientsHandler struct {
	clients database.ClientRepositoryInterface
	jobs    queue.JobQueue
	logger  *zap.Logger
}

// NewClientsHandler creates a clients handler. jobs may be nil to disable
// approve/reject notification side effects.
func NewClientsHandler(clients database.ClientRepositoryInterface, jobs queue.JobQueue, logger *zap.Logger) *ClientsHandler {
	return &ClientsHandler{clients: clients, jobs: jobs, logger: logger}
}

// RegisterRoutes registers the client routes on an authenticated router.
// Fixed paths are registered before the {id} patterns so /pending and /stats
// are not captured as IDs.
func (h *ClientsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/admin/clients", h.List).Methods(http.MethodGet)
	r.HandleFunc("/admin/clients/pending", h.Pending).Methods(http.MethodGet)
	r.HandleFunc("/admin/clients/stats", h.Stats).Methods(http.MethodGet)
	r.HandleFunc("/admin/clients/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/admin/clients/{id}", h.Update).Methods(http.MethodPatch)
	r.HandleFunc("/admin/clients/{id}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/admin/clients/{id}/approve", h.Approve).Methods(http.MethodPost)
	r.HandleFunc("/admin/clients/{id}/reject", h.Reject).Methods(http.MethodPost)
}

// listResponse is the paginated list body
type listResponse struct {
	Clients  []*models.Client `json:"clients"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// List returns a paginated, filterable page of client records
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := queryInt(q.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(q.Get("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var status *models.ClientStatus
	if s := q.Get("status"); s != "" {
		if err := validation.ValidateClientStatus(s); err != nil {
			respondDetail(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		cs := models.ClientStatus(s)
		status = &cs
	}

	search := validation.SanitizeText(q.Get("search"))

	clients, total, err := h.clients.List(r.Context(), status, search, page, pageSize)
	if err != nil {
		h.logger.Error("client_list_failed", zap.String("error", logpkg.SanitizeError(err)))
		respondDetail(w, http.StatusInternalServerError, "Failed to list clients")
		return
	}

	respondJSON(w, http.StatusOK, listResponse{
		Clients:  clients,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Pending returns clients awaiting approval, oldest first
func (h *ClientsHandler) Pending(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.Pending(r.Context())
	if err != nil {
		h.logger.Error("client_pending_failed", zap.String("error", logpkg.SanitizeError(err)))
		respondDetail(w, http.StatusInternalServerError, "Failed to list pending clients")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

// Stats returns per-status client counts
func (h *ClientsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.clients.Stats(r.Context())
	if err != nil {
		h.logger.Error("client_stats_failed", zap.String("error", logpkg.SanitizeError(err)))
		respondDetail(w, http.StatusInternalServerError, "Failed to load client stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Get returns a single client record
func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.clientID(w, r)
	if !ok {
		return
	}

	client, err := h.clients.GetByID(r.Context(), id)
	if err != nil {
		h.respondRepoError(w, err, "client_get_failed")
		return
	}
	respondJSON(w, http.StatusOK, client)
}

type updateClientRequest struct {
	FullName    *string `json:"full_name,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
	Status      *string `json:"status,omitempty" validate:"omitempty,client_status"`
}

// Update patches mutable fields of a client record
func (h *ClientsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.clientID(w, r)
	if !ok {
		return
	}

	var req updateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid status value")
		return
	}

	client, err := h.clients.GetByID(r.Context(), id)
	if err != nil {
		h.respondRepoError(w, err, "client_update_failed")
		return
	}

	if req.FullName != nil {
		name := validation.SanitizeText(*req.FullName)
		client.FullName = &name
	}
	if req.CompanyName != nil {
		company := validation.SanitizeText(*req.CompanyName)
		client.CompanyName = &company
	}
	if req.Status != nil {
		client.Status = models.ClientStatus(*req.Status)
	}

	if err := h.clients.Update(r.Context(), client); err != nil {
		h.respondRepoError(w, err, "client_update_failed")
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// Delete suspends a client record. Rows are never physically removed so the
// audit trail survives.
func (h *ClientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.clientID(w, r)
	if !ok {
		return
	}

	client, err := h.clients.SetStatus(r.Context(), id, models.ClientStatusSuspended)
	if err != nil {
		h.respondRepoError(w, err, "client_delete_failed")
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// Approve transitions a client to active. Re-approving an active client is a
// no-op success.
func (h *ClientsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.ClientStatusActive, queue.JobTypeClientApproved)
}

// Reject transitions a client to rejected. Idempotent like Approve.
func (h *ClientsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.ClientStatusRejected, queue.JobTypeClientRejected)
}

func (h *ClientsHandler) decide(w http.ResponseWriter, r *http.Request, status models.ClientStatus, jobType queue.JobType) {
	id, ok := h.clientID(w, r)
	if !ok {
		return
	}

	before, err := h.clients.GetByID(r.Context(), id)
	if err != nil {
		h.respondRepoError(w, err, "client_decision_failed")
		return
	}

	client, err := h.clients.SetStatus(r.Context(), id, status)
	if err != nil {
		h.respondRepoError(w, err, "client_decision_failed")
		return
	}

	// Only a real transition notifies the client; repeating the same
	// decision stays silent
	if before.Status != status {
		h.enqueueDecision(r.Context(), client, jobType)
	}

	respondJSON(w, http.StatusOK, client)
}

func (h *ClientsHandler) enqueueDecision(ctx context.Context, client *models.Client, jobType queue.JobType) {
	if h.jobs == nil {
		return
	}

	job := queue.NewJob(jobType, client.ID, client.Email)
	if client.FullName != nil {
		job.Metadata["name"] = *client.FullName
	}
	if err := h.jobs.Enqueue(ctx, job); err != nil {
		h.logger.Warn("decision_enqueue_failed",
			zap.String("job_type", string(jobType)),
			zap.Error(err))
	}
}

func (h *ClientsHandler) clientID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := strings.TrimSpace(mux.Vars(r)["id"])
	id, err := uuid.Parse(raw)
	if err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid client ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ClientsHandler) respondRepoError(w http.ResponseWriter, err error, event string) {
	if errors.Is(err, sql.ErrNoRows) {
		respondDetail(w, http.StatusNotFound, "Client not found")
		return
	}
	h.logger.Error(event, zap.String("error", logpkg.SanitizeError(err)))
	respondDetail(w, http.StatusInternalServerError, "Internal server error")
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
