package products

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/phealth-au/platform/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

type HTTPHandler struct {
	service  *Service
	redis    *redis.Client
	cacheTTL time.Duration
}

// NewHTTPHandler builds the product API handler. redisClient may be nil, in
// which case search responses are not cached.
func NewHTTPHandler(service *Service, redisClient *redis.Client, cacheTTL time.Duration) *HTTPHandler {
	return &HTTPHandler{service: service, redis: redisClient, cacheTTL: cacheTTL}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/products/search", h.handleSearch).Methods(http.MethodGet)
	router.HandleFunc("/products/services", h.handleServiceList).Methods(http.MethodGet)
	router.HandleFunc("/products/{code:.+}", h.handleGet).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		http.Error(w, "state is required", http.StatusBadRequest)
		return
	}
	adults, err := strconv.Atoi(r.URL.Query().Get("adults"))
	if err != nil || adults < 0 || adults > 2 {
		http.Error(w, "adults must be 0, 1 or 2", http.StatusBadRequest)
		return
	}
	children := r.URL.Query().Get("children") == "true"

	cacheKey := fmt.Sprintf("products:search:%s:%d:%t", state, adults, children)
	if h.redis != nil {
		if cached, err := h.redis.Get(r.Context(), cacheKey).Bytes(); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Write(cached)
			return
		}
	}

	result, err := h.service.Search(r.Context(), state, adults, children)
	if err != nil {
		logger.Log.WithError(err).Error("product search failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(map[string]interface{}{"items": result})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if h.redis != nil {
		if err := h.redis.Set(r.Context(), cacheKey, body, h.cacheTTL).Err(); err != nil {
			logger.Log.WithError(err).Warn("failed to cache search response")
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	product, err := h.service.FindOne(r.Context(), code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch product")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"product": product})
}

func (h *HTTPHandler) handleServiceList(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ServiceList(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list health services")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": services})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
