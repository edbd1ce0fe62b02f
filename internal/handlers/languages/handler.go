package languages

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/handlers/response"
)

// LanguageHandler administers per-language sandbox limits
type LanguageHandler struct {
	languageRepo secondary.LanguageConfigRepository
	logger       primary.Logger
}

// NewLanguageHandler creates a new language handler
func NewLanguageHandler(languageRepo secondary.LanguageConfigRepository, logger primary.Logger) *LanguageHandler {
	return &LanguageHandler{
		languageRepo: languageRepo,
		logger:       logger,
	}
}

// RegisterRoutes registers the API routes for LanguageHandler
func (h *LanguageHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/languages", h.GetLanguages).Methods("GET")
	router.HandleFunc("/api/languages", h.SaveLanguage).Methods("PUT")
	router.HandleFunc("/api/languages/{language}/active", h.SetActive).Methods("POST")
}

// GetLanguages handles listing language configs. With ?active=true only
// the identifiers of active languages are returned.
func (h *LanguageHandler) GetLanguages(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("active") == "true" {
		active, err := h.languageRepo.GetActiveLanguages(r.Context())
		if err != nil {
			h.logger.Error("Failed to get active languages", "error", err)
			response.WriteError(w, http.StatusInternalServerError, "failed to get active languages")
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]interface{}{"languages": active})
		return
	}

	configs, err := h.languageRepo.GetAllLanguageConfigs(r.Context())
	if err != nil {
		h.logger.Error("Failed to get language configs", "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to get language configs")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"languages": configs})
}

// SaveLanguage handles upserting a language config
func (h *LanguageHandler) SaveLanguage(w http.ResponseWriter, r *http.Request) {
	var cfg domain.LanguageConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if cfg.Language == "" {
		response.WriteError(w, http.StatusBadRequest, "language is required")
		return
	}

	defaults := domain.DefaultLanguageConfig(cfg.Language)
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if cfg.MemoryLimitMB <= 0 {
		cfg.MemoryLimitMB = defaults.MemoryLimitMB
	}
	if cfg.CPULimit <= 0 {
		cfg.CPULimit = defaults.CPULimit
	}
	if cfg.RetryLimit < 0 {
		cfg.RetryLimit = defaults.RetryLimit
	}

	if err := h.languageRepo.SaveLanguageConfig(r.Context(), &cfg); err != nil {
		h.logger.Error("Failed to save language config", "language", cfg.Language, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to save language config")
		return
	}

	response.WriteJSON(w, http.StatusOK, cfg)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive handles activating or deactivating a language
func (h *LanguageHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	language := mux.Vars(r)["language"]

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.languageRepo.SetActive(r.Context(), language, req.Active); err != nil {
		h.logger.Error("Failed to set language active flag", "language", language, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "failed to update language")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"language": language, "active": req.Active})
}
