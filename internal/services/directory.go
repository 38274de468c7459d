package services

import (
	"context"
	"database/sql"
)

// AccountDirectory answers whether an account is known. The registered user
// base is managed elsewhere; the core only needs the existence check.
type AccountDirectory interface {
	Exists(ctx context.Context, accountID string) (bool, error)
}

// CatalogDirectory resolves the point price of a redeemable item. Returns
// ErrUnknownCatalogItem for unknown or inactive items.
type CatalogDirectory interface {
	PriceOf(ctx context.Context, itemID string) (int64, error)
}

// PGAccountDirectory backs AccountDirectory with the users table.
type PGAccountDirectory struct {
	db *sql.DB
}

func NewPGAccountDirectory(db *sql.DB) *PGAccountDirectory {
	return &PGAccountDirectory{db: db}
}

func (d *PGAccountDirectory) Exists(ctx context.Context, accountID string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, `
		SELECT 1 FROM users WHERE id = $1`, accountID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
