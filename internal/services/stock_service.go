package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// StockService tracks available units per catalog item. Quantity moves only
// through ReserveTx and ReleaseTx, called inside the redemption transaction.
type StockService struct {
	db *sql.DB
}

func NewStockService(db *sql.DB) *StockService {
	return &StockService{db: db}
}

// ReserveTx atomically takes qty units, guarded by the quantity >= qty
// condition in the update itself. Returns the remaining quantity, or
// ErrOutOfStock when the guard fails or no stock row exists.
func (s *StockService) ReserveTx(tx *sql.Tx, catalogItemID string, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("reserve qty %d: %w", qty, ErrInvalidAmount)
	}

	var remaining int64
	err := tx.QueryRow(`
		UPDATE stock_levels
		SET quantity = quantity - $2, updated_at = $3
		WHERE catalog_item_id = $1 AND quantity >= $2
		RETURNING quantity`,
		catalogItemID, qty, time.Now()).Scan(&remaining)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("item %s: %w", catalogItemID, ErrOutOfStock)
	}
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// ReleaseTx returns qty units. Only the cancellation path calls this, to
// compensate a reservation made when the order was created.
func (s *StockService) ReleaseTx(tx *sql.Tx, catalogItemID string, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("release qty %d: %w", qty, ErrInvalidAmount)
	}

	var remaining int64
	err := tx.QueryRow(`
		UPDATE stock_levels
		SET quantity = quantity + $2, updated_at = $3
		WHERE catalog_item_id = $1
		RETURNING quantity`,
		catalogItemID, qty, time.Now()).Scan(&remaining)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("item %s: %w", catalogItemID, ErrUnknownCatalogItem)
	}
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// Upsert sets the stock row for an item, creating it if absent.
func (s *StockService) Upsert(ctx context.Context, catalogItemID string, quantity, minQty int64) error {
	if quantity < 0 || minQty < 0 {
		return fmt.Errorf("quantity %d min %d: %w", quantity, minQty, ErrInvalidAmount)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_levels (catalog_item_id, quantity, min_qty, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (catalog_item_id)
		DO UPDATE SET quantity = $2, min_qty = $3, updated_at = $4`,
		catalogItemID, quantity, minQty, time.Now())
	return err
}
