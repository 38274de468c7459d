package models

import (
	"time"
)

type LedgerEntry struct {
	ID        int64     `json:"id" db:"id"`
	AccountID string    `json:"accountId" db:"account_id"`
	Amount    int64     `json:"amount" db:"amount"` // signed points, positive = credit
	EntryType string    `json:"entryType" db:"entry_type"` // CREDIT or DEBIT
	Balance   int64     `json:"balance" db:"balance"` // running balance after this entry
	CauseRef  string    `json:"causeRef" db:"cause_ref"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

const (
	EntryCredit = "CREDIT"
	EntryDebit  = "DEBIT"
)

type Account struct {
	ID        string    `json:"id" db:"id"`
	Balance   int64     `json:"balance" db:"balance"`
	Version   int       `json:"version" db:"version"` // for optimistic locking
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
