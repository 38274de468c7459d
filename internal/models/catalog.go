package models

import "time"

// CatalogItem is a redeemable reward. Points is the price in wallet points.
type CatalogItem struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	ProductName string    `json:"productName" db:"product_name"`
	Points      int64     `json:"points" db:"points"`
	ImageURL    string    `json:"imageUrl,omitempty" db:"image_url"`
	Status      string    `json:"status" db:"status"` // active or inactive
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

const (
	CatalogActive   = "active"
	CatalogInactive = "inactive"
)

// StockLevel is the available unit count for one catalog item. Quantity only
// moves in lockstep with order creation and cancellation.
type StockLevel struct {
	CatalogItemID string    `json:"catalogItemId" db:"catalog_item_id"`
	ItemName      string    `json:"itemName" db:"item_name"`
	Quantity      int64     `json:"quantity" db:"quantity"`
	MinQty        int64     `json:"minQty" db:"min_qty"`
	LowStock      bool      `json:"lowStock"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}
