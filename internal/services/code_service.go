package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"image/png"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/scanperks/backend/internal/config"
	"github.com/scanperks/backend/internal/models"
	"github.com/skip2/go-qrcode"
)

const maxIssueCount = 10000

// CodeService owns the scratch-code lifecycle: issuance of contiguous serial
// ranges, bulk activation, and the exactly-once consume that credits the
// holder's wallet.
type CodeService struct {
	db       *sql.DB
	redis    *redis.Client
	ledger   *LedgerService
	accounts AccountDirectory
	limits   *config.ScanLimitConfig
}

func NewCodeService(db *sql.DB, redisClient *redis.Client, ledger *LedgerService, accounts AccountDirectory) *CodeService {
	return &CodeService{
		db:       db,
		redis:    redisClient,
		ledger:   ledger,
		accounts: accounts,
		limits:   config.LoadScanLimitConfig(),
	}
}

// ConsumeResult is what a successful scan returns.
type ConsumeResult struct {
	Serial     int64 `json:"serial"`
	PointValue int64 `json:"pointValue"`
	NewBalance int64 `json:"newBalance"`
}

// IssueRange creates count codes with serials [startSerial, startSerial+count)
// in one transaction, each with a fresh secret, initially inactive. Fails
// ErrDuplicateSerial if any serial in the range already exists.
func (s *CodeService) IssueRange(ctx context.Context, startSerial int64, count int, pointValue int64) (int, error) {
	if startSerial <= 0 || count <= 0 || count > maxIssueCount || pointValue <= 0 {
		return 0, fmt.Errorf("issue range [%d,+%d) value %d: %w", startSerial, count, pointValue, ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	endSerial := startSerial + int64(count) - 1

	var existing int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM codes WHERE serial BETWEEN $1 AND $2`,
		startSerial, endSerial).Scan(&existing)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, fmt.Errorf("range [%d,%d]: %w", startSerial, endSerial, ErrDuplicateSerial)
	}

	now := time.Now()
	for serial := startSerial; serial <= endSerial; serial++ {
		_, err := tx.Exec(`
			INSERT INTO codes (serial, secret, point_value, state, created_at)
			VALUES ($1, $2, $3, 'INACTIVE', $4)`,
			serial, uuid.NewString(), pointValue, now)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return 0, fmt.Errorf("serial %d: %w", serial, ErrDuplicateSerial)
			}
			return 0, err
		}
	}

	_, err = tx.Exec(`
		INSERT INTO code_batches (start_serial, end_serial, point_value, created_at)
		VALUES ($1, $2, $3, $4)`,
		startSerial, endSerial, pointValue, now)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	log.Printf("[CODES] Issued %d codes [%d,%d] worth %d points each", count, startSerial, endSerial, pointValue)
	return count, nil
}

// SetActive flips every non-consumed code in [serialFrom, serialTo] to the
// requested state and returns how many rows actually changed. Reapplying the
// same call is safe and leaves the range unchanged.
func (s *CodeService) SetActive(ctx context.Context, serialFrom, serialTo int64, active bool) (int64, error) {
	if serialFrom <= 0 || serialTo < serialFrom {
		return 0, fmt.Errorf("range [%d,%d]: %w", serialFrom, serialTo, ErrInvalidAmount)
	}

	state := models.CodeInactive
	if active {
		state = models.CodeActive
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE codes
		SET state = $3
		WHERE serial BETWEEN $1 AND $2 AND state <> 'CONSUMED' AND state <> $3`,
		serialFrom, serialTo, string(state))
	if err != nil {
		return 0, err
	}

	modified, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	log.Printf("[CODES] Set range [%d,%d] to %s, %d modified", serialFrom, serialTo, state, modified)
	return modified, nil
}

// Consume transitions a code to CONSUMED and credits the holder in one
// transaction. The state change is a single conditional update keyed by
// secret, so under concurrent scans of the same code at most one caller
// passes; the rest see AlreadyConsumed.
func (s *CodeService) Consume(ctx context.Context, accountID, secret string) (*ConsumeResult, error) {
	if err := s.checkRateLimit(ctx, accountID); err != nil {
		return nil, err
	}

	known, err := s.accounts.Exists(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrUnknownAccount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var serial, pointValue int64
	err = tx.QueryRow(`
		UPDATE codes
		SET state = 'CONSUMED', consumed_at = $2, consumed_by = $3
		WHERE secret = $1 AND state = 'ACTIVE'
		RETURNING serial, point_value`,
		secret, time.Now(), accountID).Scan(&serial, &pointValue)

	if err == sql.ErrNoRows {
		return nil, s.classifyConsumeFailure(tx, secret)
	}
	if err != nil {
		return nil, err
	}

	entry, err := s.ledger.AppendTx(tx, accountID, pointValue, fmt.Sprintf("code:%d", serial))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.incrementRateLimit(ctx, accountID)

	log.Printf("[CODES] Code %d consumed by %s for %d points", serial, accountID, pointValue)
	return &ConsumeResult{
		Serial:     serial,
		PointValue: pointValue,
		NewBalance: entry.Balance,
	}, nil
}

// classifyConsumeFailure distinguishes why the conditional update matched
// nothing. Read within the same transaction, after the failed write.
func (s *CodeService) classifyConsumeFailure(tx *sql.Tx, secret string) error {
	var state models.CodeState
	err := tx.QueryRow(`
		SELECT state FROM codes WHERE secret = $1`, secret).Scan(&state)
	if err == sql.ErrNoRows {
		return ErrCodeNotFound
	}
	if err != nil {
		return err
	}

	switch state {
	case models.CodeConsumed:
		return ErrCodeAlreadyConsumed
	case models.CodeInactive:
		return ErrCodeInactive
	default:
		// Active but the update missed: another scan consumed it between the
		// two statements. Report it the same way.
		return ErrCodeAlreadyConsumed
	}
}

// GetBySerial returns one code with its rendered QR image.
func (s *CodeService) GetBySerial(ctx context.Context, serial int64) (*models.Code, string, error) {
	var code models.Code
	err := s.db.QueryRowContext(ctx, `
		SELECT serial, secret, point_value, state, created_at, consumed_at, consumed_by
		FROM codes WHERE serial = $1`, serial).
		Scan(&code.Serial, &code.Secret, &code.PointValue, &code.State, &code.CreatedAt, &code.ConsumedAt, &code.ConsumedBy)
	if err == sql.ErrNoRows {
		return nil, "", ErrCodeNotFound
	}
	if err != nil {
		return nil, "", err
	}

	image, err := renderQR(code.QRText())
	if err != nil {
		return nil, "", err
	}
	return &code, image, nil
}

// Stats returns the per-state code counts.
func (s *CodeService) Stats(ctx context.Context) (*models.CodeStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, COUNT(*) FROM codes GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats models.CodeStats
	for rows.Next() {
		var state models.CodeState
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		switch state {
		case models.CodeInactive:
			stats.Inactive = count
		case models.CodeActive:
			stats.Active = count
		case models.CodeConsumed:
			stats.Consumed = count
		}
	}
	return &stats, rows.Err()
}

// Batches lists issuance runs, newest first.
func (s *CodeService) Batches(ctx context.Context) ([]models.CodeBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_serial, end_serial, point_value, created_at
		FROM code_batches
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := []models.CodeBatch{}
	for rows.Next() {
		var b models.CodeBatch
		if err := rows.Scan(&b.ID, &b.StartSerial, &b.EndSerial, &b.PointValue, &b.CreatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (s *CodeService) checkRateLimit(ctx context.Context, accountID string) error {
	if s.redis == nil {
		return nil
	}
	key := fmt.Sprintf("scan:ratelimit:%s", accountID)
	count, err := s.redis.Get(ctx, key).Int()
	if err != nil && err != redis.Nil {
		// Rate limiting is advisory; never fail a scan on a Redis outage.
		log.Printf("[CODES] Rate limit check failed: %v", err)
		return nil
	}
	if count >= s.limits.MaxScansPerWindow {
		return ErrRateLimited
	}
	return nil
}

func (s *CodeService) incrementRateLimit(ctx context.Context, accountID string) {
	if s.redis == nil {
		return
	}
	key := fmt.Sprintf("scan:ratelimit:%s", accountID)
	pipe := s.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.limits.Window)
	pipe.Exec(ctx)
}

func renderQR(text string) (string, error) {
	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
