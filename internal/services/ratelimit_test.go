package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCodeService_ScanRateLimit(t *testing.T) {
	account := "acct-1"
	key := "scan:ratelimit:" + account

	newService := func(t *testing.T) (*CodeService, redismock.ClientMock, func()) {
		t.Helper()
		db, _, err := sqlmock.New()
		assert.NoError(t, err)

		redisClient, redisMock := redismock.NewClientMock()
		accounts := new(MockAccountDirectory)
		accounts.On("Exists", mock.Anything, mock.Anything).Return(true, nil)
		service := NewCodeService(db, redisClient, NewLedgerService(db), accounts)
		return service, redisMock, func() { db.Close() }
	}

	t.Run("under the window limit", func(t *testing.T) {
		service, redisMock, closeDB := newService(t)
		defer closeDB()

		redisMock.ExpectGet(key).SetVal("3")
		assert.NoError(t, service.checkRateLimit(context.Background(), account))
	})

	t.Run("first scan of the window", func(t *testing.T) {
		service, redisMock, closeDB := newService(t)
		defer closeDB()

		redisMock.ExpectGet(key).RedisNil()
		assert.NoError(t, service.checkRateLimit(context.Background(), account))
	})

	t.Run("at the limit scans are refused", func(t *testing.T) {
		service, redisMock, closeDB := newService(t)
		defer closeDB()

		redisMock.ExpectGet(key).SetVal("30")
		err := service.checkRateLimit(context.Background(), account)
		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("redis outage does not block scans", func(t *testing.T) {
		service, redisMock, closeDB := newService(t)
		defer closeDB()

		redisMock.ExpectGet(key).SetErr(errors.New("connection refused"))
		assert.NoError(t, service.checkRateLimit(context.Background(), account))
	})

	t.Run("nil client disables limiting", func(t *testing.T) {
		db, _, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewCodeService(db, nil, NewLedgerService(db), new(MockAccountDirectory))
		assert.NoError(t, service.checkRateLimit(context.Background(), account))
	})
}
