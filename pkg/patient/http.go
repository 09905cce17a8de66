package patient

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
	"github.com/simple-clinic/clinic-sync/pkg/synclock"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/patients/sync", h.handleSync).Methods(http.MethodPost)
	router.HandleFunc("/patients/search", h.handleSearch).Methods(http.MethodGet)
}

type syncRequest struct {
	Patients []PatientPayload `json:"patients"`
}

type searchResponse struct {
	Strategy string         `json:"strategy"`
	Results  []SearchResult `json:"results"`
}

func (h *HTTPHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.WithError(err).Warn("invalid patient sync payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := h.service.MergeWithLocalData(r.Context(), req.Patients)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (h *HTTPHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "query parameter q required", http.StatusBadRequest)
		return
	}

	results, err := h.service.Search(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(searchResponse{Strategy: h.service.searcher.Strategy(), Results: results})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, synclock.ErrLockHeld):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrSearchUnavailable):
		logger.Log.WithError(err).Error("patient request failed")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	default:
		logger.Log.WithError(err).Error("patient request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
