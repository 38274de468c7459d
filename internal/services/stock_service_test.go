package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestStockService_ReserveTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewStockService(db)

	t.Run("reserves one unit when available", func(t *testing.T) {
		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectQuery("SET quantity = quantity -").
			WithArgs("item-1", int64(1), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(4))

		remaining, err := service.ReserveTx(tx, "item-1", 1)
		assert.NoError(t, err)
		assert.Equal(t, int64(4), remaining)
	})

	t.Run("empty stock fails OutOfStock", func(t *testing.T) {
		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectQuery("SET quantity = quantity -").
			WithArgs("item-1", int64(1), sqlmock.AnyArg()).
			WillReturnError(sql.ErrNoRows)

		_, err := service.ReserveTx(tx, "item-1", 1)
		assert.ErrorIs(t, err, ErrOutOfStock)
	})

	t.Run("non-positive quantity is rejected", func(t *testing.T) {
		mock.ExpectBegin()
		tx, _ := db.Begin()

		_, err := service.ReserveTx(tx, "item-1", 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestStockService_ReleaseTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewStockService(db)

	t.Run("returns the reserved unit", func(t *testing.T) {
		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectQuery("SET quantity = quantity \\+").
			WithArgs("item-1", int64(1), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(1))

		remaining, err := service.ReleaseTx(tx, "item-1", 1)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), remaining)
	})

	t.Run("missing stock row is an error", func(t *testing.T) {
		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectQuery("SET quantity = quantity \\+").
			WithArgs("item-x", int64(1), sqlmock.AnyArg()).
			WillReturnError(sql.ErrNoRows)

		_, err := service.ReleaseTx(tx, "item-x", 1)
		assert.ErrorIs(t, err, ErrUnknownCatalogItem)
	})
}

func TestStockService_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewStockService(db)

	t.Run("sets quantity and threshold", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO stock_levels").
			WithArgs("item-1", int64(20), int64(5), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := service.Upsert(context.Background(), "item-1", 20, 5)
		assert.NoError(t, err)
	})

	t.Run("negative quantity is rejected", func(t *testing.T) {
		err := service.Upsert(context.Background(), "item-1", -1, 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}
