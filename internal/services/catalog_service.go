package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scanperks/backend/internal/models"
)

// CatalogService manages redeemable items and serves as the CatalogDirectory
// for the redemption workflow.
type CatalogService struct {
	db *sql.DB
}

func NewCatalogService(db *sql.DB) *CatalogService {
	return &CatalogService{db: db}
}

// PriceOf returns the point price of an active item.
func (s *CatalogService) PriceOf(ctx context.Context, itemID string) (int64, error) {
	var points int64
	err := s.db.QueryRowContext(ctx, `
		SELECT points FROM catalog_items WHERE id = $1 AND status = 'active'`,
		itemID).Scan(&points)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("item %s: %w", itemID, ErrUnknownCatalogItem)
	}
	if err != nil {
		return 0, err
	}
	return points, nil
}

func (s *CatalogService) Create(ctx context.Context, name, productName string, points int64, imageURL string) (*models.CatalogItem, error) {
	if points <= 0 {
		return nil, fmt.Errorf("points %d: %w", points, ErrInvalidAmount)
	}

	item := &models.CatalogItem{
		ID:          uuid.NewString(),
		Name:        name,
		ProductName: productName,
		Points:      points,
		ImageURL:    imageURL,
		Status:      models.CatalogInactive,
		CreatedAt:   time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_items (id, name, product_name, points, image_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		item.ID, item.Name, item.ProductName, item.Points, item.ImageURL, item.Status, item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CatalogService) SetStatus(ctx context.Context, itemID, status string) error {
	if status != models.CatalogActive && status != models.CatalogInactive {
		return fmt.Errorf("status %q: %w", status, ErrInvalidAmount)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE catalog_items SET status = $2 WHERE id = $1`, itemID, status)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("item %s: %w", itemID, ErrUnknownCatalogItem)
	}
	return nil
}

func (s *CatalogService) List(ctx context.Context) ([]models.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, product_name, points, image_url, status, created_at
		FROM catalog_items
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CatalogItem{}
	for rows.Next() {
		var item models.CatalogItem
		if err := rows.Scan(&item.ID, &item.Name, &item.ProductName, &item.Points, &item.ImageURL, &item.Status, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListStock joins stock rows with item names for the admin view.
func (s *CatalogService) ListStock(ctx context.Context) ([]models.StockLevel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sl.catalog_item_id, ci.name, sl.quantity, sl.min_qty, sl.updated_at
		FROM stock_levels sl
		JOIN catalog_items ci ON ci.id = sl.catalog_item_id
		ORDER BY ci.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := []models.StockLevel{}
	for rows.Next() {
		var sl models.StockLevel
		if err := rows.Scan(&sl.CatalogItemID, &sl.ItemName, &sl.Quantity, &sl.MinQty, &sl.UpdatedAt); err != nil {
			return nil, err
		}
		sl.LowStock = sl.Quantity <= sl.MinQty
		levels = append(levels, sl)
	}
	return levels, rows.Err()
}
