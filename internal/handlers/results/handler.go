package results

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/services/result"
	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/handlers/response"
	"github.com/chartlab/chartlab/internal/static/errs"
)

// ResultHandler serves stored execution results and their images
type ResultHandler struct {
	resultService result.IResultService
	logger        primary.Logger
}

// NewResultHandler creates a new result handler
func NewResultHandler(resultService result.IResultService, logger primary.Logger) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		logger:        logger,
	}
}

// RegisterRoutes registers the API routes for ResultHandler
func (h *ResultHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/enhanced-chat/sandbox-results/", h.GetSessionResults).Methods("GET")
	router.HandleFunc("/api/sandbox/executions/{executionId}/result", h.GetExecutionResult).Methods("GET")
	router.HandleFunc("/api/images/{imageId}", h.GetImage).Methods("GET")
}

// SessionResultsResponse is the body of the session results endpoint
type SessionResultsResponse struct {
	Success bool          `json:"success"`
	Results []ResultEntry `json:"results"`
}

// ResultEntry is one result with its images
type ResultEntry struct {
	ID          uuid.UUID                `json:"id"`
	ExecutionID uuid.UUID                `json:"execution_id"`
	Summary     string                   `json:"summary"`
	HasImages   bool                     `json:"has_images"`
	CreatedAt   string                   `json:"created_at"`
	Images      []*domain.GeneratedImage `json:"images"`
}

func toEntry(r *result.ResultWithImages) ResultEntry {
	images := r.Images
	if images == nil {
		images = []*domain.GeneratedImage{}
	}
	return ResultEntry{
		ID:          r.Result.ID,
		ExecutionID: r.Result.ExecutionID,
		Summary:     r.Result.Summary,
		HasImages:   r.Result.HasImages,
		CreatedAt:   r.Result.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Images:      images,
	}
}

// GetSessionResults handles retrieval of a session's results with images
func (h *ResultHandler) GetSessionResults(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.resultService.GetSessionResults(r.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("Failed to get session results", "sessionId", sessionID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to get session results")
		return
	}

	entries := make([]ResultEntry, 0, len(results))
	for _, res := range results {
		entries = append(entries, toEntry(res))
	}

	response.WriteJSON(w, http.StatusOK, SessionResultsResponse{
		Success: true,
		Results: entries,
	})
}

// GetExecutionResult handles retrieval of one execution's result
func (h *ResultHandler) GetExecutionResult(w http.ResponseWriter, r *http.Request) {
	executionID, err := uuid.Parse(mux.Vars(r)["executionId"])
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid execution id")
		return
	}

	res, err := h.resultService.GetResultByExecution(r.Context(), executionID)
	if err != nil {
		if errors.Is(err, errs.ResultNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("Failed to get execution result", "executionId", executionID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to get result")
		return
	}

	response.WriteJSON(w, http.StatusOK, toEntry(res))
}

// GetImage handles retrieval of one stored image
func (h *ResultHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuid.Parse(mux.Vars(r)["imageId"])
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid image id")
		return
	}

	image, err := h.resultService.GetImage(r.Context(), imageID)
	if err != nil {
		if errors.Is(err, errs.ImageNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("Failed to get image", "imageId", imageID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to get image")
		return
	}

	response.WriteJSON(w, http.StatusOK, image)
}
