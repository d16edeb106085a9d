package handler

import (
	"net/http"
	"strconv"

	"bhesbhusa/internal/model"
	"bhesbhusa/internal/service"

	"github.com/rs/zerolog"
)

// ClothesHandler handles catalog HTTP requests.
type ClothesHandler struct {
	service service.ClothesService
	logger  zerolog.Logger
}

// NewClothesHandler creates a new catalog handler.
func NewClothesHandler(service service.ClothesService, logger zerolog.Logger) *ClothesHandler {
	return &ClothesHandler{
		service: service,
		logger:  logger.With().Str("handler", "clothes").Logger(),
	}
}

// GetAll handles GET /api/clothes requests with pagination.
func (h *ClothesHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.intQuery(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := h.intQuery(w, r, "offset")
	if !ok {
		return
	}

	clothes, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if clothes == nil {
		clothes = []model.Clothes{}
	}

	writeJSON(w, http.StatusOK, clothes)
}

// GetByID handles GET /api/clothes/{id} requests.
func (h *ClothesHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	cloth, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cloth)
}

// intQuery parses an optional integer query parameter; zero when absent.
func (h *ClothesHandler) intQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidQuery, "invalid "+name+" parameter", h.logger)
		return 0, false
	}
	return v, true
}
