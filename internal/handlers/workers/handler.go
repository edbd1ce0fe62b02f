package workers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/services/worker"
	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/handlers/response"
)

// WorkerHandler handles worker registration and heartbeat requests
type WorkerHandler struct {
	workerService worker.IWorkerRegistrationService
	logger        primary.Logger
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(workerService worker.IWorkerRegistrationService, logger primary.Logger) *WorkerHandler {
	return &WorkerHandler{
		workerService: workerService,
		logger:        logger,
	}
}

// RegisterRoutes registers the API routes for WorkerHandler
func (h *WorkerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/workers", h.RegisterWorker).Methods("POST")
	router.HandleFunc("/api/workers", h.GetWorkers).Methods("GET")
	router.HandleFunc("/api/workers/{workerId}/heartbeat", h.Heartbeat).Methods("POST")
	router.HandleFunc("/api/lanes", h.GetLanes).Methods("GET")
}

// RegisterWorker handles worker registration requests
func (h *WorkerHandler) RegisterWorker(w http.ResponseWriter, r *http.Request) {
	var info domain.WorkerInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if info.ID == "" {
		response.WriteError(w, http.StatusBadRequest, "worker id is required")
		return
	}
	for _, lane := range info.Lanes {
		if !domain.ValidLane(lane) {
			response.WriteError(w, http.StatusBadRequest, "unknown lane: "+lane)
			return
		}
	}

	if err := h.workerService.RegisterWorker(r.Context(), &info); err != nil {
		h.logger.Error("Failed to register worker", "workerId", info.ID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to register worker")
		return
	}

	response.WriteJSON(w, http.StatusCreated, info)
}

type heartbeatRequest struct {
	Load int `json:"load"`
}

// Heartbeat handles worker heartbeat requests
func (h *WorkerHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	workerID := mux.Vars(r)["workerId"]

	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.workerService.Heartbeat(r.Context(), workerID, req.Load); err != nil {
		h.logger.Error("Failed to record heartbeat", "workerId", workerID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to record heartbeat")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetWorkers handles worker listing requests, optionally filtered by lane
func (h *WorkerHandler) GetWorkers(w http.ResponseWriter, r *http.Request) {
	if lane := r.URL.Query().Get("lane"); lane != "" {
		if !domain.ValidLane(lane) {
			response.WriteError(w, http.StatusBadRequest, "unknown lane: "+lane)
			return
		}
		workers, err := h.workerService.GetWorkersByLane(r.Context(), domain.Lane(lane))
		if err != nil {
			h.logger.Error("Failed to get workers by lane", "lane", lane, "error", err)
			response.WriteError(w, http.StatusInternalServerError, "failed to get workers")
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]interface{}{"workers": workers})
		return
	}

	workers, err := h.workerService.GetAllWorkers(r.Context())
	if err != nil {
		h.logger.Error("Failed to get workers", "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to get workers")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"workers": workers})
}

// GetLanes handles lane listing requests
func (h *WorkerHandler) GetLanes(w http.ResponseWriter, r *http.Request) {
	lanes := make([]string, 0, len(domain.AllLanes()))
	for _, lane := range domain.AllLanes() {
		lanes = append(lanes, string(lane))
	}

	response.WriteJSON(w, http.StatusOK, map[string][]string{"lanes": lanes})
}
