package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/service"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/transport/rest/middleware"
)

// CatalogHandler handles browsing and buying surveys
type CatalogHandler struct {
	surveySvc   *service.SurveyService
	purchaseSvc *service.PurchaseService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(surveySvc *service.SurveyService, purchaseSvc *service.PurchaseService) *CatalogHandler {
	return &CatalogHandler{
		surveySvc:   surveySvc,
		purchaseSvc: purchaseSvc,
	}
}

// List handles GET /v1/catalog
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.surveySvc.List(r.Context(), true)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"surveys": surveys})
}

// Get handles GET /v1/catalog/{slug}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	staff := middleware.GetStaffID(r.Context()) != ""
	survey, err := h.surveySvc.GetBySlug(r.Context(), mux.Vars(r)["slug"], staff)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// Purchase handles POST /v1/catalog/{slug}/purchase
func (h *CatalogHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.PurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	purchase, err := h.purchaseSvc.Purchase(r.Context(), mux.Vars(r)["slug"], user, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, purchase)
}
