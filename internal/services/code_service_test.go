package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/scanperks/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCodeServiceForTest(t *testing.T) (*CodeService, sqlmock.Sqlmock, *MockAccountDirectory, func()) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)

	accounts := new(MockAccountDirectory)
	service := NewCodeService(db, nil, NewLedgerService(db), accounts)
	return service, dbMock, accounts, func() { db.Close() }
}

func TestCodeService_IssueRange(t *testing.T) {
	service, dbMock, _, closeDB := newCodeServiceForTest(t)
	defer closeDB()

	t.Run("issues contiguous serials with fresh secrets", func(t *testing.T) {
		dbMock.ExpectBegin()

		dbMock.ExpectQuery("SELECT COUNT").
			WithArgs(int64(1000), int64(1002)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		for serial := int64(1000); serial <= 1002; serial++ {
			dbMock.ExpectExec("INSERT INTO codes").
				WithArgs(serial, sqlmock.AnyArg(), int64(50), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(1, 1))
		}

		dbMock.ExpectExec("INSERT INTO code_batches").
			WithArgs(int64(1000), int64(1002), int64(50), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		dbMock.ExpectCommit()

		issued, err := service.IssueRange(context.Background(), 1000, 3, 50)
		assert.NoError(t, err)
		assert.Equal(t, 3, issued)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("existing serial in range fails DuplicateSerial", func(t *testing.T) {
		dbMock.ExpectBegin()

		dbMock.ExpectQuery("SELECT COUNT").
			WithArgs(int64(1000), int64(1002)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		dbMock.ExpectRollback()

		_, err := service.IssueRange(context.Background(), 1000, 3, 50)
		assert.ErrorIs(t, err, ErrDuplicateSerial)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("rejects malformed ranges", func(t *testing.T) {
		_, err := service.IssueRange(context.Background(), 0, 3, 50)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = service.IssueRange(context.Background(), 1000, -1, 50)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = service.IssueRange(context.Background(), 1000, 3, 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestCodeService_SetActive(t *testing.T) {
	service, dbMock, _, closeDB := newCodeServiceForTest(t)
	defer closeDB()

	t.Run("activates non-consumed codes in range", func(t *testing.T) {
		dbMock.ExpectExec("UPDATE codes").
			WithArgs(int64(1000), int64(1002), string(models.CodeActive)).
			WillReturnResult(sqlmock.NewResult(0, 3))

		modified, err := service.SetActive(context.Background(), 1000, 1002, true)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), modified)
	})

	t.Run("reapplying is a no-op", func(t *testing.T) {
		dbMock.ExpectExec("UPDATE codes").
			WithArgs(int64(1000), int64(1002), string(models.CodeActive)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		modified, err := service.SetActive(context.Background(), 1000, 1002, true)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), modified)
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		_, err := service.SetActive(context.Background(), 1002, 1000, true)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestCodeService_Consume(t *testing.T) {
	account := "acct-1"
	secret := "d6f1a7e2-ffde-4d85-9f3e-2b9f0a1c8d44"

	t.Run("active code is consumed and wallet credited once", func(t *testing.T) {
		service, dbMock, accounts, closeDB := newCodeServiceForTest(t)
		defer closeDB()
		accounts.On("Exists", mock.Anything, account).Return(true, nil)

		dbMock.ExpectBegin()

		dbMock.ExpectQuery("SET state = 'CONSUMED'").
			WithArgs(secret, sqlmock.AnyArg(), account).
			WillReturnRows(sqlmock.NewRows([]string{"serial", "point_value"}).AddRow(1000, 50))

		// Ledger credit inside the same transaction.
		dbMock.ExpectExec("INSERT INTO accounts").
			WithArgs(account, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		dbMock.ExpectQuery("SELECT id, balance, version, updated_at").
			WithArgs(account).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "version", "updated_at"}).
				AddRow(account, 0, 1, time.Now()))

		dbMock.ExpectQuery("INSERT INTO ledger_entries").
			WithArgs(account, int64(50), models.EntryCredit, int64(50), "code:1000", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		dbMock.ExpectExec("UPDATE accounts").
			WithArgs(int64(50), sqlmock.AnyArg(), account, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		dbMock.ExpectCommit()

		result, err := service.Consume(context.Background(), account, secret)
		assert.NoError(t, err)
		assert.Equal(t, int64(1000), result.Serial)
		assert.Equal(t, int64(50), result.PointValue)
		assert.Equal(t, int64(50), result.NewBalance)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("consumed code fails AlreadyConsumed", func(t *testing.T) {
		service, dbMock, accounts, closeDB := newCodeServiceForTest(t)
		defer closeDB()
		accounts.On("Exists", mock.Anything, account).Return(true, nil)

		dbMock.ExpectBegin()

		dbMock.ExpectQuery("SET state = 'CONSUMED'").
			WithArgs(secret, sqlmock.AnyArg(), account).
			WillReturnError(sql.ErrNoRows)

		dbMock.ExpectQuery("SELECT state FROM codes").
			WithArgs(secret).
			WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("CONSUMED"))

		dbMock.ExpectRollback()

		_, err := service.Consume(context.Background(), account, secret)
		assert.ErrorIs(t, err, ErrCodeAlreadyConsumed)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("inactive code fails Inactive", func(t *testing.T) {
		service, dbMock, accounts, closeDB := newCodeServiceForTest(t)
		defer closeDB()
		accounts.On("Exists", mock.Anything, account).Return(true, nil)

		dbMock.ExpectBegin()

		dbMock.ExpectQuery("SET state = 'CONSUMED'").
			WithArgs(secret, sqlmock.AnyArg(), account).
			WillReturnError(sql.ErrNoRows)

		dbMock.ExpectQuery("SELECT state FROM codes").
			WithArgs(secret).
			WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("INACTIVE"))

		dbMock.ExpectRollback()

		_, err := service.Consume(context.Background(), account, secret)
		assert.ErrorIs(t, err, ErrCodeInactive)
	})

	t.Run("unknown secret fails NotFound", func(t *testing.T) {
		service, dbMock, accounts, closeDB := newCodeServiceForTest(t)
		defer closeDB()
		accounts.On("Exists", mock.Anything, account).Return(true, nil)

		dbMock.ExpectBegin()

		dbMock.ExpectQuery("SET state = 'CONSUMED'").
			WithArgs(secret, sqlmock.AnyArg(), account).
			WillReturnError(sql.ErrNoRows)

		dbMock.ExpectQuery("SELECT state FROM codes").
			WithArgs(secret).
			WillReturnError(sql.ErrNoRows)

		dbMock.ExpectRollback()

		_, err := service.Consume(context.Background(), account, secret)
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("unknown account never touches the code", func(t *testing.T) {
		service, _, accounts, closeDB := newCodeServiceForTest(t)
		defer closeDB()
		accounts.On("Exists", mock.Anything, "ghost").Return(false, nil)

		_, err := service.Consume(context.Background(), "ghost", secret)
		assert.ErrorIs(t, err, ErrUnknownAccount)
	})
}

func TestCodeService_Stats(t *testing.T) {
	service, dbMock, _, closeDB := newCodeServiceForTest(t)
	defer closeDB()

	dbMock.ExpectQuery("SELECT state, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"state", "count"}).
			AddRow("INACTIVE", 10).
			AddRow("ACTIVE", 5).
			AddRow("CONSUMED", 3))

	stats, err := service.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(10), stats.Inactive)
	assert.Equal(t, int64(5), stats.Active)
	assert.Equal(t, int64(3), stats.Consumed)
}
