package services

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockAccountDirectory struct {
	mock.Mock
}

func (m *MockAccountDirectory) Exists(ctx context.Context, accountID string) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

type MockCatalogDirectory struct {
	mock.Mock
}

func (m *MockCatalogDirectory) PriceOf(ctx context.Context, itemID string) (int64, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(int64), args.Error(1)
}
