package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/database"
	logpkg "github.com/bakiel/jasper-portal-api/internal/logger"
	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/bakiel/jasper-portal-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	userIDHeader            = "X-User-Id"
	defaultNotificationPage = 50
)

// NotificationsHandler exposes the per-user notification feed. The caller
// identifies the user through the X-User-Id header; the portal frontend sets
// it from its own session.
type NotificationsHandler struct {
	repo   database.NotificationRepositoryInterface
	logger *zap.Logger
}

// NewNotificationsHandler creates a notification feed handler
func NewNotificationsHandler(repo database.NotificationRepositoryInterface, logger *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{repo: repo, logger: logger}
}

// RegisterRoutes registers the feed routes
func (h *NotificationsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/notifications", h.List).Methods(http.MethodGet)
	r.HandleFunc("/notifications", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/notifications/{id}/read", h.MarkRead).Methods(http.MethodPatch)
	r.HandleFunc("/notifications/{id}", h.Delete).Methods(http.MethodDelete)
}

// List returns the user's feed, newest first
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	limit := queryInt(r.URL.Query().Get("limit"), defaultNotificationPage)
	if limit < 1 || limit > defaultNotificationPage {
		limit = defaultNotificationPage
	}

	notifications, err := h.repo.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("notification_list_failed", zap.String("error", logpkg.SanitizeError(err)))
		respondDetail(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

type createNotificationRequest struct {
	Type  string `json:"type" validate:"required,notification_type"`
	Title string `json:"title" validate:"required"`
	Body  string `json:"body,omitempty"`
}

// Create appends an entry to the user's feed
func (h *NotificationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req createNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Type and title are required")
		return
	}

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      models.NotificationType(req.Type),
		Title:     validation.SanitizeText(req.Title),
		Body:      validation.SanitizeText(req.Body),
		CreatedAt: time.Now(),
	}
	if err := h.repo.Create(r.Context(), notification); err != nil {
		h.logger.Error("notification_create_failed", zap.String("error", logpkg.SanitizeError(err)))
		respondDetail(w, http.StatusInternalServerError, "Failed to create notification")
		return
	}
	respondJSON(w, http.StatusCreated, notification)
}

// MarkRead flags a single entry as read
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := h.notificationID(w, r)
	if !ok {
		return
	}

	if err := h.repo.MarkRead(r.Context(), userID, id); err != nil {
		h.respondRepoErr(w, err, "notification_mark_read_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"read": true})
}

// Delete removes a single entry from the feed
func (h *NotificationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := h.notificationID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), userID, id); err != nil {
		h.respondRepoErr(w, err, "notification_delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationsHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	if userID == "" {
		respondDetail(w, http.StatusBadRequest, "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func (h *NotificationsHandler) notificationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid notification ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *NotificationsHandler) respondRepoErr(w http.ResponseWriter, err error, event string) {
	if errors.Is(err, sql.ErrNoRows) {
		respondDetail(w, http.StatusNotFound, "Notification not found")
		return
	}
	h.logger.Error(event, zap.String("error", logpkg.SanitizeError(err)))
	respondDetail(w, http.StatusInternalServerError, "Internal server error")
}
