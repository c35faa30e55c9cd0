package bulkupdate

import (
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes bulk-update endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return in, false
	}
	if err := h.Validate.Struct(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid bulk update payload", err.Error())
		return in, false
	}
	return in, true
}

// Preview handles POST /api/v1/bulk-updates/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	result, err := h.Svc.Preview(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

// Commit handles POST /api/v1/bulk-updates/commit.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	result, err := h.Svc.Commit(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if result.Mode == "queued" {
		status = http.StatusAccepted
	}
	common.JSONData(w, status, result)
}
