package handlers

import (
	"net/http"

	"github.com/bakiel/jasper-portal-api/internal/imail"
	logpkg "github.com/bakiel/jasper-portal-api/internal/logger"
	"github.com/bakiel/jasper-portal-api/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// IMailHandler exposes the email send and verify endpoints. Both sit behind
// the service API key, not the admin session.
type IMailHandler struct {
	service  *imail.Service
	verifier *imail.Verifier
	logger   *zap.Logger
}

// NewIMailHandler creates an email API handler
func NewIMailHandler(service *imail.Service, verifier *imail.Verifier, logger *zap.Logger) *IMailHandler {
	return &IMailHandler{service: service, verifier: verifier, logger: logger}
}

// RegisterRoutes registers the email routes on a key-protected router
func (h *IMailHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/imail/send", h.Send).Methods(http.MethodPost)
	r.HandleFunc("/imail/verify", h.Verify).Methods(http.MethodPost)
}

// Send handles POST /imail/send
func (h *IMailHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req imail.SendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid recipient list")
		return
	}

	report, err := h.service.Send(&req)
	if err != nil {
		// Send only errors before any delivery attempt, so these are
		// caller mistakes rather than transport failures
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusOK
	if !report.Success {
		status = http.StatusBadGateway
		h.logger.Error("email_send_all_failed",
			zap.String("tracking_id", report.TrackingID),
			zap.Int("failed", report.Failed))
	}
	respondJSON(w, status, report)
}

// Verify handles POST /imail/verify
func (h *IMailHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req imail.VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		respondDetail(w, http.StatusBadRequest, "Email address is required")
		return
	}

	result := h.verifier.Verify(r.Context(), &req)
	h.logger.Debug("email_verified",
		zap.String("email", logpkg.RedactEmail(req.Email)),
		zap.Bool("valid", result.Valid),
		zap.String("risk_level", result.RiskLevel))
	respondJSON(w, http.StatusOK, result)
}
