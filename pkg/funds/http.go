package funds

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/phealth-au/platform/pkg/common/logger"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/funds", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/funds/{code}", h.handleGet).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.FindAll(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list funds")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": result})
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	fund, err := h.service.FindOne(r.Context(), code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "fund not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch fund")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"fund": fund})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
