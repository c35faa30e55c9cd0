package product

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes product endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   strings.TrimSpace(r.URL.Query().Get("q")),
		Cursor:   common.ParseCursor(r),
	}
	result, err := h.Svc.List(r.Context(), params)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONList(w, http.StatusOK, result.Items, result.Meta)
}

// Get handles GET /api/v1/products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, p)
}

// Lookup handles GET /api/v1/products/lookup?code=… for the scanner flow.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	p, err := h.Svc.Lookup(r.Context(), code)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, p)
}

// Create handles POST /api/v1/products (quick add).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if err := h.Validate.Struct(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid product payload", err.Error())
		return
	}
	p, err := h.Svc.QuickAdd(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, p)
}

// Patch handles PATCH /api/v1/products/{id}.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if err := h.Validate.Struct(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid product payload", err.Error())
		return
	}
	p, err := h.Svc.Edit(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, p)
}

type stockInput struct {
	Delta int `json:"delta" validate:"required"`
}

// Stock handles POST /api/v1/products/{id}/stock.
func (h *Handler) Stock(w http.ResponseWriter, r *http.Request) {
	var in stockInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if in.Delta == 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "delta must not be zero", nil)
		return
	}
	stock, err := h.Svc.AdjustStock(r.Context(), chi.URLParam(r, "id"), in.Delta)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]int{"stock": stock})
}
