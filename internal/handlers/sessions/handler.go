package sessions

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/services/session"
	"github.com/chartlab/chartlab/internal/handlers/response"
)

// SessionHandler handles analysis session API requests
type SessionHandler struct {
	sessionService session.ISessionService
	logger         primary.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService session.ISessionService, logger primary.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		logger:         logger,
	}
}

// RegisterRoutes registers the API routes for SessionHandler
func (h *SessionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/sessions", h.CreateSession).Methods("POST")
	router.HandleFunc("/api/sessions", h.ListSessions).Methods("GET")
	router.HandleFunc("/api/sessions/{sessionId}", h.GetSession).Methods("GET")
	router.HandleFunc("/api/sessions/{sessionId}/report", h.RequestReport).Methods("POST")
}

type createSessionRequest struct {
	Name   string  `json:"name"`
	UserID *string `json:"user_id,omitempty"`
}

// CreateSession handles session creation requests
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.sessionService.Create(r.Context(), req.Name, req.UserID)
	if err != nil {
		h.logger.Error("Failed to create session", "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	response.WriteJSON(w, http.StatusCreated, sess)
}

// GetSession handles session retrieval requests
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(mux.Vars(r)["sessionId"])
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	sess, err := h.sessionService.Get(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to get session", "sessionId", sessionID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	if sess == nil {
		response.WriteError(w, http.StatusNotFound, "session not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, sess)
}

// ListSessions handles listing a user's sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := h.sessionService.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("Failed to list sessions", "userId", userID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// RequestReport handles requests for a session report
func (h *SessionHandler) RequestReport(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(mux.Vars(r)["sessionId"])
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	if err := h.sessionService.RequestReport(r.Context(), sessionID); err != nil {
		h.logger.Error("Failed to request report", "sessionId", sessionID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to request report")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
