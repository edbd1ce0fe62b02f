package executions

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/services/execution"
	"github.com/chartlab/chartlab/internal/handlers/response"
	"github.com/chartlab/chartlab/internal/static/errs"
)

// ExecutionHandler handles sandbox execution API requests
type ExecutionHandler struct {
	executionService execution.IExecutionService
	logger           primary.Logger
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(executionService execution.IExecutionService, logger primary.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		executionService: executionService,
		logger:           logger,
	}
}

// RegisterRoutes registers the API routes for ExecutionHandler
func (h *ExecutionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/sandbox/execute/", h.Execute).Methods("POST")
	router.HandleFunc("/api/sandbox/executions/{executionId}", h.GetExecution).Methods("GET")
	router.HandleFunc("/api/sandbox/executions/{executionId}/cancel", h.CancelExecution).Methods("POST")
	router.HandleFunc("/api/sandbox/executions/{executionId}/analyze", h.AnalyzeExecution).Methods("POST")
	router.HandleFunc("/api/sandbox/executions", h.ListExecutions).Methods("GET")
}

// Execute handles code submission requests
func (h *ExecutionHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode execute request", "error", err)
		response.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	submit := execution.SubmitRequest{
		Code:     req.Code,
		Language: req.Language,
		UserID:   req.UserID,
	}
	if req.SessionID != nil {
		sessionID, err := uuid.Parse(*req.SessionID)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid session id")
			return
		}
		submit.SessionID = &sessionID
	}

	exec, err := h.executionService.Submit(r.Context(), submit)
	if err != nil {
		switch {
		case errors.Is(err, errs.CodeRequired), errors.Is(err, errs.LanguageRequired):
			response.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, errs.LanguageInactive), errors.Is(err, errs.LanguageUnsupported):
			response.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error("Failed to submit execution", "error", err)
			response.WriteError(w, http.StatusInternalServerError, "failed to submit execution")
		}
		return
	}

	response.WriteJSON(w, http.StatusAccepted, ExecuteResponse{
		ExecutionID: exec.ID.String(),
		Status:      exec.Status,
	})
}

// GetExecution handles execution retrieval requests
func (h *ExecutionHandler) GetExecution(w http.ResponseWriter, r *http.Request) {
	executionID, err := uuid.Parse(mux.Vars(r)["executionId"])
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid execution id")
		return
	}

	exec, err := h.executionService.Get(r.Context(), executionID)
	if err != nil {
		h.logger.Error("Failed to get execution", "executionId", executionID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to get execution")
		return
	}
	if exec == nil {
		response.WriteError(w, http.StatusNotFound, "execution not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, exec)
}

// CancelExecution handles cancellation of a pending execution
func (h *ExecutionHandler) CancelExecution(w http.ResponseWriter, r *http.Request) {
	executionID, err := uuid.Parse(mux.Vars(r)["executionId"])
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid execution id")
		return
	}

	if err := h.executionService.Cancel(r.Context(), executionID); err != nil {
		switch {
		case errors.Is(err, errs.ExecutionNotFound):
			response.WriteError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, errs.ExecutionNotPending):
			response.WriteError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("Failed to cancel execution", "executionId", executionID, "error", err)
			response.WriteError(w, http.StatusInternalServerError, "failed to cancel execution")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AnalyzeExecution queues a follow-up analysis pass for an execution
func (h *ExecutionHandler) AnalyzeExecution(w http.ResponseWriter, r *http.Request) {
	executionID, err := uuid.Parse(mux.Vars(r)["executionId"])
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid execution id")
		return
	}

	if err := h.executionService.RequestFollowUp(r.Context(), executionID); err != nil {
		if errors.Is(err, errs.ExecutionNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("Failed to request follow-up", "executionId", executionID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to request follow-up")
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]interface{}{"status": "queued"})
}

// ListExecutions handles listing a session's executions
func (h *ExecutionHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	executions, err := h.executionService.ListBySession(r.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("Failed to list executions", "sessionId", sessionID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to list executions")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"executions": executions})
}
