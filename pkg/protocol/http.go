package protocol

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
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
	router.HandleFunc("/protocols/sync", h.handleSync).Methods(http.MethodPost)
	router.HandleFunc("/protocols/default/drugs", h.handleDrugs).Methods(http.MethodGet)
	router.HandleFunc("/protocols/{id}/drugs", h.handleDrugs).Methods(http.MethodGet)
}

type syncRequest struct {
	Protocols []ProtocolPayload `json:"protocols"`
}

type drugsResponse struct {
	ProtocolID *uuid.UUID       `json:"protocol_id,omitempty"`
	Drugs      []DrugAndDosages `json:"drugs"`
}

func (h *HTTPHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.WithError(err).Warn("invalid protocol sync payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := h.service.MergeWithLocalData(r.Context(), req.Protocols)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (h *HTTPHandler) handleDrugs(w http.ResponseWriter, r *http.Request) {
	var id *uuid.UUID
	if raw, ok := mux.Vars(r)["id"]; ok {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid protocol id", http.StatusBadRequest)
			return
		}
		id = &parsed
	}

	drugs, err := h.service.DrugsForProtocolOrDefault(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(drugsResponse{ProtocolID: id, Drugs: drugs})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, synclock.ErrLockHeld):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrStoreUnavailable):
		logger.Log.WithError(err).Error("protocol request failed")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	default:
		logger.Log.WithError(err).Error("protocol request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
