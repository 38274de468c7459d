package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/scanperks/backend/internal/middleware"
	"github.com/scanperks/backend/internal/models"
	"github.com/scanperks/backend/internal/services"
)

type RedemptionHandler struct {
	service   *services.RedemptionService
	validator *services.ValidationHelper
}

func NewRedemptionHandler(service *services.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// Create places a redemption order
// @Summary Redeem points for a catalog item
// @Tags redemptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{catalogItemId=string,shipping=models.ShippingSnapshot} true "Redemption request"
// @Success 201 {object} services.CreateResult
// @Failure 409 {object} services.ErrorResponse
// @Router /redemptions [post]
func (h *RedemptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.UserID(r)
	if accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		CatalogItemID string                  `json:"catalogItemId" validate:"required"`
		Shipping      models.ShippingSnapshot `json:"shipping" validate:"required"`
	}
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	result, err := h.service.Create(r.Context(), accountID, req.CatalogItemID, req.Shipping)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"orderId":    result.Order.ID,
		"newBalance": result.NewBalance,
		"stockLeft":  result.StockLeft,
		"order":      result.Order,
	})
}

// ListMine lists the caller's orders
// @Summary List own redemption orders
// @Tags redemptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{orders=[]models.RedemptionOrder}
// @Router /redemptions [get]
func (h *RedemptionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.UserID(r)
	if accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	orders, err := h.service.ListByAccount(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"orders": orders, "count": len(orders)})
}

// ListAll lists every order for the admin panel
// @Summary List all redemption orders
// @Tags redemptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{orders=[]models.RedemptionOrder}
// @Router /redemptions/all [get]
func (h *RedemptionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"orders": orders, "count": len(orders)})
}

// Transition advances an order through the fulfillment workflow
// @Summary Advance a redemption order
// @Description Apply one admin action (approve, request_kyc, reject_kyc, pack, dispatch, deliver, cancel)
// @Tags redemptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orderId path string true "Order ID"
// @Param request body object{action=string,courierName=string,trackingId=string,remark=string} true "Transition"
// @Success 200 {object} models.RedemptionOrder
// @Failure 409 {object} services.ErrorResponse
// @Router /redemptions/{orderId}/transition [post]
func (h *RedemptionHandler) Transition(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req struct {
		Action      string `json:"action" validate:"required,oneof=approve request_kyc reject_kyc pack dispatch deliver cancel"`
		CourierName string `json:"courierName,omitempty"`
		TrackingID  string `json:"trackingId,omitempty"`
		Remark      string `json:"remark,omitempty"`
	}
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	order, err := h.service.Advance(r.Context(), orderID, models.TransitionAction(req.Action), services.TransitionDetails{
		CourierName: req.CourierName,
		TrackingID:  req.TrackingID,
		Remark:      req.Remark,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "order": order})
}
