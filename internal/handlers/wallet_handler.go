package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/scanperks/backend/internal/middleware"
	"github.com/scanperks/backend/internal/services"
)

type WalletHandler struct {
	codes     *services.CodeService
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewWalletHandler(codes *services.CodeService, ledger *services.LedgerService) *WalletHandler {
	return &WalletHandler{
		codes:     codes,
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

// Scan consumes a scratch code and credits the wallet
// @Summary Scan a code
// @Description Consume a single-use code and credit its points
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{secret=string} true "Scan request"
// @Success 200 {object} services.ConsumeResult
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /wallet/scan [post]
func (h *WalletHandler) Scan(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.UserID(r)
	if accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Secret string `json:"secret" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.codes.Consume(r.Context(), accountID, req.Secret)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"result":  result,
	})
}

// Balance returns the current wallet balance
// @Summary Get balance
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{balance=int64}
// @Router /wallet/balance [get]
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.UserID(r)
	if accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	balance, err := h.ledger.BalanceOf(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"balance": balance})
}

// History lists ledger entries, most recent first
// @Summary Get wallet history
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 100)"
// @Param before query int false "Keyset cursor: last entry ID of the previous page"
// @Success 200 {object} object{entries=[]models.LedgerEntry}
// @Router /wallet/history [get]
func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.UserID(r)
	if accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	before, _ := strconv.ParseInt(r.URL.Query().Get("before"), 10, 64)

	entries, err := h.ledger.History(r.Context(), accountID, limit, before)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	nextCursor := int64(0)
	if len(entries) > 0 {
		nextCursor = entries[len(entries)-1].ID
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries": entries,
		"count":   len(entries),
		"next":    nextCursor,
	})
}
