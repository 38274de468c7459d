package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/scanperks/backend/internal/services"
)

type CatalogHandler struct {
	catalog   *services.CatalogService
	stock     *services.StockService
	validator *services.ValidationHelper
}

func NewCatalogHandler(catalog *services.CatalogService, stock *services.StockService) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		stock:     stock,
		validator: services.NewValidationHelper(),
	}
}

// List returns all catalog items
// @Summary List catalog items
// @Tags catalog
// @Produce json
// @Success 200 {object} object{items=[]models.CatalogItem}
// @Router /catalog [get]
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"items": items, "count": len(items)})
}

// Create adds a catalog item
// @Summary Create catalog item
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,productName=string,points=int64,imageUrl=string} true "Item"
// @Success 201 {object} models.CatalogItem
// @Router /catalog [post]
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required"`
		ProductName string `json:"productName" validate:"required"`
		Points      int64  `json:"points" validate:"required,gt=0"`
		ImageURL    string `json:"imageUrl,omitempty"`
	}
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	item, err := h.catalog.Create(r.Context(), req.Name, req.ProductName, req.Points, req.ImageURL)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

// SetStatus toggles a catalog item between active and inactive
// @Summary Set catalog item status
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param request body object{status=string} true "Status"
// @Success 200 {object} object{success=bool}
// @Router /catalog/{id}/status [patch]
func (h *CatalogHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	var req struct {
		Status string `json:"status" validate:"required,oneof=active inactive"`
	}
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	if err := h.catalog.SetStatus(r.Context(), itemID, req.Status); err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// UpsertStock sets the stock level for an item
// @Summary Set stock level
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Catalog item ID"
// @Param request body object{quantity=int64,minQty=int64} true "Stock"
// @Success 200 {object} object{success=bool}
// @Router /stock/{itemId} [put]
func (h *CatalogHandler) UpsertStock(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	var req struct {
		Quantity int64 `json:"quantity" validate:"gte=0"`
		MinQty   int64 `json:"minQty" validate:"gte=0"`
	}
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	if err := h.stock.Upsert(r.Context(), itemID, req.Quantity, req.MinQty); err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// ListStock lists stock levels with low-stock flags
// @Summary List stock levels
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{stocks=[]models.StockLevel}
// @Router /stock [get]
func (h *CatalogHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.catalog.ListStock(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"stocks": levels, "count": len(levels)})
}
