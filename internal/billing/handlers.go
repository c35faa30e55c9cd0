package billing

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes billing endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Create handles POST /api/v1/bills.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if err := h.Validate.Struct(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid bill payload", err.Error())
		return
	}
	b, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, b)
}

// List handles GET /api/v1/bills.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Kind:   strings.TrimSpace(r.URL.Query().Get("kind")),
		Cursor: common.ParseCursor(r),
	}
	result, err := h.Svc.List(r.Context(), params)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONList(w, http.StatusOK, result.Items, result.Meta)
}

// Get handles GET /api/v1/bills/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, b)
}
