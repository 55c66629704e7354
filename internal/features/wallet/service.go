// Package wallet — service.go содержит логику доступа к кошелькам.
package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store — операции хранилища кошельков.
type Store interface {
	Ensure(ctx context.Context, userID, currencySpaceID int64) error
	GetBalance(ctx context.Context, userID, currencySpaceID int64) (decimal.Decimal, error)
	Get(ctx context.Context, userID, currencySpaceID int64) (*Wallet, error)
}

// Service управляет кошельками пользователей.
type Service struct {
	store Store
}

// NewService создаёт сервис кошельков.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetBalance возвращает баланс пользователя в валюте пространства.
// У пользователя без кошелька баланс нулевой.
func (s *Service) GetBalance(ctx context.Context, userID, currencySpaceID int64) (decimal.Decimal, error) {
	return s.store.GetBalance(ctx, userID, currencySpaceID)
}

// Ensure создаёт кошелёк с нулевым балансом, если его ещё нет.
// Вызывается при регистрации участника.
func (s *Service) Ensure(ctx context.Context, userID, currencySpaceID int64) error {
	return s.store.Ensure(ctx, userID, currencySpaceID)
}
