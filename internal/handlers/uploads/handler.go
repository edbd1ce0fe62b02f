package uploads

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chartlab/chartlab/internal/config"
	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/services/dataset"
	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/handlers/response"
	"github.com/chartlab/chartlab/internal/static/errs"
)

// UploadHandler handles dataset upload API requests
type UploadHandler struct {
	datasetService dataset.IDatasetService
	cfg            *config.UploadConfig
	logger         primary.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(datasetService dataset.IDatasetService, cfg *config.UploadConfig, logger primary.Logger) *UploadHandler {
	return &UploadHandler{
		datasetService: datasetService,
		cfg:            cfg,
		logger:         logger,
	}
}

// RegisterRoutes registers the API routes for UploadHandler
func (h *UploadHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/upload/", h.Upload).Methods("POST")
	router.HandleFunc("/upload/", h.ListDatasets).Methods("GET")
	router.HandleFunc("/upload/{datasetId}", h.GetDataset).Methods("GET")
}

// Upload handles multipart dataset uploads. The stored file is verified
// asynchronously on the file_processing lane.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxSizeBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxSizeBytes); err != nil {
		response.WriteError(w, http.StatusRequestEntityTooLarge, errs.DatasetTooLarge.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	var sessionID *uuid.UUID
	if raw := r.FormValue("session_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid session id")
			return
		}
		sessionID = &id
	}

	storedPath, size, err := h.store(file, header.Filename)
	if err != nil {
		h.logger.Error("Failed to store upload", "filename", header.Filename, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	ds := domain.NewDataset(header.Filename, header.Header.Get("Content-Type"), storedPath, size, sessionID)
	if err := h.datasetService.RegisterUpload(r.Context(), ds); err != nil {
		h.logger.Error("Failed to register upload", "filename", header.Filename, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to register upload")
		return
	}

	response.WriteJSON(w, http.StatusCreated, ds)
}

// store writes the uploaded file under the upload directory with a
// unique name so clients cannot collide or overwrite each other
func (h *UploadHandler) store(file io.Reader, filename string) (string, int64, error) {
	if err := os.MkdirAll(h.cfg.Dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create upload dir: %w", err)
	}

	stored := filepath.Join(h.cfg.Dir, uuid.New().String()+"_"+filepath.Base(filename))
	out, err := os.Create(stored)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer out.Close()

	size, err := io.Copy(out, file)
	if err != nil {
		os.Remove(stored)
		return "", 0, fmt.Errorf("failed to write upload file: %w", err)
	}

	return stored, size, nil
}

// GetDataset handles dataset retrieval requests
func (h *UploadHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	datasetID, err := uuid.Parse(mux.Vars(r)["datasetId"])
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid dataset id")
		return
	}

	ds, err := h.datasetService.Get(r.Context(), datasetID)
	if err != nil {
		if errors.Is(err, errs.DatasetTooLarge) {
			response.WriteError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		h.logger.Error("Failed to get dataset", "datasetId", datasetID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to get dataset")
		return
	}
	if ds == nil {
		response.WriteError(w, http.StatusNotFound, "dataset not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, ds)
}

// ListDatasets handles listing a session's datasets
func (h *UploadHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	datasets, err := h.datasetService.ListBySession(r.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("Failed to list datasets", "sessionId", sessionID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to list datasets")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"datasets": datasets})
}
