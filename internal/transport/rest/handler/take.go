package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/service"
)

// TakeHandler serves the public response form of a purchase
type TakeHandler struct {
	responseSvc *service.ResponseService
}

// NewTakeHandler creates a new take handler
func NewTakeHandler(responseSvc *service.ResponseService) *TakeHandler {
	return &TakeHandler{responseSvc: responseSvc}
}

// Form handles GET /v1/take/{publicId}
func (h *TakeHandler) Form(w http.ResponseWriter, r *http.Request) {
	form, err := h.responseSvc.Form(r.Context(), mux.Vars(r)["publicId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, form)
}

// Submit handles POST /v1/take/{publicId}. Accepts a JSON object or an
// urlencoded form keyed by field key.
func (h *TakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	values, ok := readValues(w, r)
	if !ok {
		return
	}

	sub, err := h.responseSvc.Submit(r.Context(), mux.Vars(r)["publicId"], values)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

// Complete handles GET /v1/take/{publicId}/complete
func (h *TakeHandler) Complete(w http.ResponseWriter, r *http.Request) {
	msg, err := h.responseSvc.Complete(r.Context(), mux.Vars(r)["publicId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func readValues(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	values := map[string]string{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form body")
			return nil, false
		}
		for key := range r.PostForm {
			values[key] = r.PostForm.Get(key)
		}
		return values, true
	}

	var raw map[string]interface{}
	if !decodeJSON(w, r, &raw) {
		return nil, false
	}
	for key, v := range raw {
		switch val := v.(type) {
		case string:
			values[key] = val
		case float64:
			values[key] = strconv.FormatFloat(val, 'f', -1, 64)
		case nil:
			values[key] = ""
		default:
			writeError(w, http.StatusBadRequest, "invalid value for "+key)
			return nil, false
		}
	}
	return values, true
}

