package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/scanperks/backend/internal/models"
)

// LedgerService owns the append-only point movement log. The cached balance
// on the accounts row is written in the same transaction as every entry, so
// it can never drift from the running sum stored on the entries.
type LedgerService struct {
	db *sql.DB
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{db: db}
}

// Append records one signed movement in its own transaction.
func (s *LedgerService) Append(ctx context.Context, accountID string, amount int64, causeRef string) (*models.LedgerEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := s.AppendTx(tx, accountID, amount, causeRef)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// AppendTx records one signed movement inside the caller's transaction. The
// account row is locked first, so concurrent appends for one account are
// serialized and each sees the previous resulting balance. A debit that would
// push the balance negative fails with ErrInsufficientBalance and writes
// nothing.
func (s *LedgerService) AppendTx(tx *sql.Tx, accountID string, amount int64, causeRef string) (*models.LedgerEntry, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}

	if _, err := tx.Exec(`
		INSERT INTO accounts (id, balance, version, updated_at)
		VALUES ($1, 0, 1, $2)
		ON CONFLICT (id) DO NOTHING`,
		accountID, time.Now()); err != nil {
		return nil, err
	}

	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		return nil, err
	}

	newBalance := account.Balance + amount
	if newBalance < 0 {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrInsufficientBalance)
	}

	entryType := models.EntryCredit
	if amount < 0 {
		entryType = models.EntryDebit
	}

	entry := &models.LedgerEntry{
		AccountID: accountID,
		Amount:    amount,
		EntryType: entryType,
		Balance:   newBalance,
		CauseRef:  causeRef,
		CreatedAt: time.Now(),
	}

	err = tx.QueryRow(`
		INSERT INTO ledger_entries (account_id, amount, entry_type, balance, cause_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		entry.AccountID, entry.Amount, entry.EntryType, entry.Balance, entry.CauseRef, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return nil, err
	}

	if err := s.updateAccountBalance(tx, accountID, newBalance, account.Version); err != nil {
		return nil, err
	}

	return entry, nil
}

// BalanceOf returns the cached balance, which equals the resulting balance of
// the latest ledger entry. Accounts with no entries report zero.
func (s *LedgerService) BalanceOf(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `
		SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// History returns up to limit entries, most recent first. beforeID is a
// keyset cursor: pass 0 for the first page and the last returned ID for the
// next one, so a restarted scan never skips or repeats entries.
func (s *LedgerService) History(ctx context.Context, accountID string, limit int, beforeID int64) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if beforeID <= 0 {
		beforeID = math.MaxInt64
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, amount, entry_type, balance, cause_ref, created_at
		FROM ledger_entries
		WHERE account_id = $1 AND id < $2
		ORDER BY id DESC
		LIMIT $3`,
		accountID, beforeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Amount, &e.EntryType, &e.Balance, &e.CauseRef, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *LedgerService) lockAccount(tx *sql.Tx, accountID string) (*models.Account, error) {
	var account models.Account
	err := tx.QueryRow(`
		SELECT id, balance, version, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE`, accountID).Scan(&account.ID, &account.Balance, &account.Version, &account.UpdatedAt)

	return &account, err
}

func (s *LedgerService) updateAccountBalance(tx *sql.Tx, accountID string, newBalance int64, version int) error {
	result, err := tx.Exec(`
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		newBalance, time.Now(), accountID, version)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrConcurrentUpdate)
	}

	return nil
}
