package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/service"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/transport/rest/middleware"
)

// PurchaseHandler lists and shows the caller's purchases
type PurchaseHandler struct {
	purchaseSvc *service.PurchaseService
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(purchaseSvc *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseSvc: purchaseSvc}
}

// List handles GET /v1/purchases?status=open|closed
func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status := model.PurchaseStatus(r.URL.Query().Get("status"))
	purchases, err := h.purchaseSvc.List(r.Context(), user.ID, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"purchases": purchases})
}

// Get handles GET /v1/purchases/{publicId}
func (h *PurchaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	purchase, err := h.purchaseSvc.Get(r.Context(), mux.Vars(r)["publicId"], user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, purchase)
}
