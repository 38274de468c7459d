package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/scanperks/backend/internal/models"
)

// RedemptionService coordinates the points-for-item exchange. Order creation
// debits the ledger, reserves stock, and writes the order in one transaction;
// cancellation compensates both in one transaction. Everything in between is
// a status walk over the transition table in models.
type RedemptionService struct {
	db       *sql.DB
	ledger   *LedgerService
	stock    *StockService
	accounts AccountDirectory
	catalog  CatalogDirectory
}

func NewRedemptionService(db *sql.DB, ledger *LedgerService, stock *StockService, accounts AccountDirectory, catalog CatalogDirectory) *RedemptionService {
	return &RedemptionService{
		db:       db,
		ledger:   ledger,
		stock:    stock,
		accounts: accounts,
		catalog:  catalog,
	}
}

// CreateResult reports the balance and stock left after a successful order.
type CreateResult struct {
	Order      *models.RedemptionOrder `json:"order"`
	NewBalance int64                   `json:"newBalance"`
	StockLeft  int64                   `json:"stockLeft"`
}

// TransitionDetails carries the optional admin inputs for a transition.
type TransitionDetails struct {
	CourierName string `json:"courierName,omitempty"`
	TrackingID  string `json:"trackingId,omitempty"`
	Remark      string `json:"remark,omitempty"`
}

// Create places an order: verifies the account and item, then debits the
// price and reserves one unit atomically with the order insert. On any
// failure the whole unit rolls back, so a debit is never left without its
// matching stock decrement and order row.
func (s *RedemptionService) Create(ctx context.Context, accountID, itemID string, shipping models.ShippingSnapshot) (*CreateResult, error) {
	known, err := s.accounts.Exists(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrUnknownAccount)
	}

	price, err := s.catalog.PriceOf(ctx, itemID)
	if err != nil {
		return nil, err
	}

	order := &models.RedemptionOrder{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		CatalogItemID: itemID,
		PointsUsed:    price,
		Shipping:      shipping,
		Status:        models.OrderPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := s.ledger.AppendTx(tx, accountID, -price, "redeem:"+order.ID)
	if err != nil {
		return nil, err
	}

	stockLeft, err := s.stock.ReserveTx(tx, itemID, 1)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(`
		INSERT INTO redemption_orders
			(id, account_id, catalog_item_id, points_used,
			 shipping_name, shipping_address, shipping_city, shipping_state, shipping_pincode,
			 status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		order.ID, order.AccountID, order.CatalogItemID, order.PointsUsed,
		shipping.Name, shipping.AddressLine, shipping.City, shipping.State, shipping.Pincode,
		string(order.Status), order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[REDEEM] Order %s: %s redeemed %s for %d points", order.ID, accountID, itemID, price)
	return &CreateResult{
		Order:      order,
		NewBalance: entry.Balance,
		StockLeft:  stockLeft,
	}, nil
}

// Advance applies one admin action to an order. The order row is locked for
// the duration, the transition is checked against the table, and a cancel
// additionally credits the points back and releases the reserved unit in the
// same transaction.
func (s *RedemptionService) Advance(ctx context.Context, orderID string, action models.TransitionAction, details TransitionDetails) (*models.RedemptionOrder, error) {
	if action == models.ActionDispatch && details.CourierName == "" {
		return nil, ErrCourierRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := s.lockOrder(tx, orderID)
	if err != nil {
		return nil, err
	}

	next, ok := models.NextStatus(order.Status, action)
	if !ok {
		return nil, fmt.Errorf("order %s: %s from %s: %w", orderID, action, order.Status, ErrInvalidTransition)
	}

	if next == models.OrderCancelled {
		if _, err := s.ledger.AppendTx(tx, order.AccountID, order.PointsUsed, "redeem-cancel:"+order.ID); err != nil {
			return nil, err
		}
		if _, err := s.stock.ReleaseTx(tx, order.CatalogItemID, 1); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	order.Status = next
	order.UpdatedAt = now
	if details.CourierName != "" {
		order.CourierName = details.CourierName
	}
	if details.TrackingID != "" {
		order.TrackingID = details.TrackingID
	}
	if details.Remark != "" {
		order.AdminRemark = details.Remark
	}
	if next == models.OrderDispatched {
		order.DispatchedAt = &now
	}
	if next == models.OrderDelivered {
		order.DeliveredAt = &now
	}

	_, err = tx.Exec(`
		UPDATE redemption_orders
		SET status = $2, courier_name = $3, tracking_id = $4, admin_remark = $5,
		    dispatched_at = $6, delivered_at = $7, updated_at = $8
		WHERE id = $1`,
		order.ID, string(order.Status), order.CourierName, order.TrackingID, order.AdminRemark,
		order.DispatchedAt, order.DeliveredAt, order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[REDEEM] Order %s: %s -> %s", orderID, action, next)
	return order, nil
}

// ListByAccount returns an account's orders, newest first.
func (s *RedemptionService) ListByAccount(ctx context.Context, accountID string) ([]models.RedemptionOrder, error) {
	return s.list(ctx, `
		SELECT id, account_id, catalog_item_id, points_used,
		       shipping_name, shipping_address, shipping_city, shipping_state, shipping_pincode,
		       status, courier_name, tracking_id, admin_remark,
		       dispatched_at, delivered_at, created_at, updated_at
		FROM redemption_orders
		WHERE account_id = $1
		ORDER BY created_at DESC`, accountID)
}

// ListAll returns every order for the admin panel, newest first.
func (s *RedemptionService) ListAll(ctx context.Context) ([]models.RedemptionOrder, error) {
	return s.list(ctx, `
		SELECT id, account_id, catalog_item_id, points_used,
		       shipping_name, shipping_address, shipping_city, shipping_state, shipping_pincode,
		       status, courier_name, tracking_id, admin_remark,
		       dispatched_at, delivered_at, created_at, updated_at
		FROM redemption_orders
		ORDER BY created_at DESC`)
}

func (s *RedemptionService) list(ctx context.Context, query string, args ...any) ([]models.RedemptionOrder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.RedemptionOrder{}
	for rows.Next() {
		var o models.RedemptionOrder
		err := rows.Scan(&o.ID, &o.AccountID, &o.CatalogItemID, &o.PointsUsed,
			&o.Shipping.Name, &o.Shipping.AddressLine, &o.Shipping.City, &o.Shipping.State, &o.Shipping.Pincode,
			&o.Status, &o.CourierName, &o.TrackingID, &o.AdminRemark,
			&o.DispatchedAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *RedemptionService) lockOrder(tx *sql.Tx, orderID string) (*models.RedemptionOrder, error) {
	var o models.RedemptionOrder
	err := tx.QueryRow(`
		SELECT id, account_id, catalog_item_id, points_used,
		       shipping_name, shipping_address, shipping_city, shipping_state, shipping_pincode,
		       status, courier_name, tracking_id, admin_remark,
		       dispatched_at, delivered_at, created_at, updated_at
		FROM redemption_orders
		WHERE id = $1
		FOR UPDATE`, orderID).
		Scan(&o.ID, &o.AccountID, &o.CatalogItemID, &o.PointsUsed,
			&o.Shipping.Name, &o.Shipping.AddressLine, &o.Shipping.City, &o.Shipping.State, &o.Shipping.Pincode,
			&o.Status, &o.CourierName, &o.TrackingID, &o.AdminRemark,
			&o.DispatchedAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
