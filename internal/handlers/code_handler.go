package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/scanperks/backend/internal/services"
)

type CodeHandler struct {
	service   *services.CodeService
	validator *services.ValidationHelper
}

func NewCodeHandler(service *services.CodeService) *CodeHandler {
	return &CodeHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// Issue creates a batch of codes
// @Summary Issue codes
// @Description Issue a contiguous serial range of inactive codes
// @Tags codes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{startSerial=int64,count=int,pointValue=int64} true "Issue request"
// @Success 201 {object} object{issuedCount=int}
// @Failure 409 {object} services.ErrorResponse
// @Router /codes/issue [post]
func (h *CodeHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartSerial int64 `json:"startSerial" validate:"required,gt=0"`
		Count       int   `json:"count" validate:"required,gt=0"`
		PointValue  int64 `json:"pointValue" validate:"required,gt=0"`
	}
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	issued, err := h.service.IssueRange(r.Context(), req.StartSerial, req.Count, req.PointValue)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"issuedCount": issued})
}

// Activate enables a serial range
// @Summary Activate codes
// @Tags codes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{serialFrom=int64,serialTo=int64} true "Range"
// @Success 200 {object} object{modifiedCount=int64}
// @Router /codes/activate [post]
func (h *CodeHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setRange(w, r, true)
}

// Deactivate disables a serial range
// @Summary Deactivate codes
// @Tags codes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{serialFrom=int64,serialTo=int64} true "Range"
// @Success 200 {object} object{modifiedCount=int64}
// @Router /codes/deactivate [post]
func (h *CodeHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setRange(w, r, false)
}

func (h *CodeHandler) setRange(w http.ResponseWriter, r *http.Request, active bool) {
	var req struct {
		SerialFrom int64 `json:"serialFrom" validate:"required,gt=0"`
		SerialTo   int64 `json:"serialTo" validate:"required,gt=0"`
	}
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	modified, err := h.service.SetActive(r.Context(), req.SerialFrom, req.SerialTo, active)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"modifiedCount": modified})
}

// Get returns one code with its QR image
// @Summary Get code by serial
// @Tags codes
// @Produce json
// @Security BearerAuth
// @Param serial path int true "Serial"
// @Success 200 {object} object{code=models.Code,qrImage=string}
// @Failure 404 {object} services.ErrorResponse
// @Router /codes/{serial} [get]
func (h *CodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	serial, err := strconv.ParseInt(chi.URLParam(r, "serial"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid serial", http.StatusBadRequest, nil)
		return
	}

	code, qrImage, err := h.service.GetBySerial(r.Context(), serial)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"qrImage": qrImage,
	})
}

// Stats returns per-state code counts
// @Summary Code stats
// @Tags codes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.CodeStats
// @Router /codes/stats [get]
func (h *CodeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// Batches lists issuance history
// @Summary List issuance batches
// @Tags codes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{batches=[]models.CodeBatch}
// @Router /codes/batches [get]
func (h *CodeHandler) Batches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.service.Batches(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"batches": batches, "count": len(batches)})
}

// decodeJSON applies the shared body handling: size cap, unknown-field
// rejection, single-object check, struct validation. Returns false after
// writing the error response.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *services.ValidationHelper, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	if err := v.ValidateStruct(dst); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}
