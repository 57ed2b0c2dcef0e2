package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/auditready/internal/brain"
	"github.com/wonny/auditready/internal/contracts"
	"github.com/wonny/auditready/pkg/logger"
)

// AuditHandler exposes the audit session: state, progress log and published result
// ⭐ SSOT: 감사 API 핸들러는 이 구조체에서만
type AuditHandler struct {
	session   *brain.Session
	directory contracts.OutletDirectory
	runCtx    context.Context // outlives requests; cancelled on shutdown
	logger    *logger.Logger
}

// NewAuditHandler creates a new audit handler.
// Runs started over HTTP use runCtx, not the request context.
func NewAuditHandler(runCtx context.Context, session *brain.Session, directory contracts.OutletDirectory, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		session:   session,
		directory: directory,
		runCtx:    runCtx,
		logger:    log,
	}
}

// ListOutlets returns the outlet catalog
// GET /api/outlets
func (h *AuditHandler) ListOutlets(w http.ResponseWriter, r *http.Request) {
	outlets, err := h.directory.ListOutlets(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list outlets")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve outlets")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"outlets": outlets,
		"count":   len(outlets),
	})
}

// StartAudit starts a run for an outlet in the background, superseding any in-flight run
// POST /api/audits/{outletId}
func (h *AuditHandler) StartAudit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["outletId"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid outlet id")
		return
	}

	outlet, err := h.directory.GetOutlet(r.Context(), id)
	if errors.Is(err, contracts.ErrOutletNotFound) {
		respondError(w, http.StatusNotFound, "Outlet not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get outlet")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve outlet")
		return
	}

	ticket := h.session.Start(h.runCtx, *outlet)

	h.logger.WithFields(map[string]interface{}{
		"outlet_id":  outlet.ID,
		"run_id":     ticket.RunID,
		"generation": ticket.Generation,
	}).Info("Audit started via API")

	respondJSON(w, http.StatusAccepted, ticket)
}

// Refresh re-runs the audit for the current outlet
// POST /api/audits/refresh
func (h *AuditHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	status := h.session.Status()
	if status.OutletID == 0 {
		respondError(w, http.StatusConflict, brain.ErrNoOutlet.Error())
		return
	}

	outlet, err := h.directory.GetOutlet(r.Context(), status.OutletID)
	if errors.Is(err, contracts.ErrOutletNotFound) {
		respondError(w, http.StatusNotFound, "Outlet not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("outlet_id", status.OutletID).Error("Failed to get outlet for refresh")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve outlet")
		return
	}

	respondJSON(w, http.StatusAccepted, h.session.Start(h.runCtx, *outlet))
}

// GetState returns the current state and run identity
// GET /api/audits/state
func (h *AuditHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Status())
}

// LogResponse is the progress log of the current run
type LogResponse struct {
	State   brain.State   `json:"state"`
	Entries []brain.Entry `json:"entries"`
	Lines   []string      `json:"lines"`
}

// GetLog returns the ordered progress entries of the current run
// GET /api/audits/log
func (h *AuditHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	entries := h.session.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}

	respondJSON(w, http.StatusOK, LogResponse{
		State:   h.session.State(),
		Entries: entries,
		Lines:   lines,
	})
}

// GetResult returns the published result.
// 409 when the last run failed, 404 when nothing is published yet.
// GET /api/audits/result
func (h *AuditHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	status := h.session.Status()
	if status.State == brain.StateError {
		respondError(w, http.StatusConflict, "Last audit run failed: "+status.Error)
		return
	}

	result, ok := h.session.Result()
	if !ok {
		respondError(w, http.StatusNotFound, "No published result")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": result.Outcome(),
		"result":  result,
	})
}
