package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/service"
)

// SurveyHandler handles staff survey endpoints
type SurveyHandler struct {
	surveySvc   *service.SurveyService
	purchaseSvc *service.PurchaseService
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc *service.SurveyService, purchaseSvc *service.PurchaseService) *SurveyHandler {
	return &SurveyHandler{
		surveySvc:   surveySvc,
		purchaseSvc: purchaseSvc,
	}
}

// CreateCodeRequest is the request body for adding a purchase code
type CreateCodeRequest struct {
	Code          string `json:"code"` // Generated when blank
	UsesRemaining int    `json:"usesRemaining"`
}

// Create handles POST /v1/surveys
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var survey model.Survey
	if !decodeJSON(w, r, &survey) {
		return
	}

	created, err := h.surveySvc.Create(r.Context(), &survey)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /v1/surveys
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.surveySvc.List(r.Context(), false)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"surveys": surveys})
}

// Get handles GET /v1/surveys/{surveyId}
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	survey, err := h.surveySvc.Get(r.Context(), mux.Vars(r)["surveyId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// Update handles PUT /v1/surveys/{surveyId}
func (h *SurveyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var survey model.Survey
	if !decodeJSON(w, r, &survey) {
		return
	}

	updated, err := h.surveySvc.Update(r.Context(), mux.Vars(r)["surveyId"], &survey)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /v1/surveys/{surveyId}
func (h *SurveyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.surveySvc.Delete(r.Context(), mux.Vars(r)["surveyId"]); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateCode handles POST /v1/surveys/{surveyId}/codes
func (h *SurveyHandler) CreateCode(w http.ResponseWriter, r *http.Request) {
	var req CreateCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	code, err := h.purchaseSvc.CreateCode(r.Context(), mux.Vars(r)["surveyId"], req.Code, req.UsesRemaining)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, code)
}

// ListCodes handles GET /v1/surveys/{surveyId}/codes
func (h *SurveyHandler) ListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.purchaseSvc.ListCodes(r.Context(), mux.Vars(r)["surveyId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"codes": codes})
}
