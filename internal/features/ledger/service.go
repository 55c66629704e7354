// Package ledger — service.go содержит калькулятор балансов.
// Баланс любой цели всегда выводится из журнала, никаких
// хранимых счётчиков в пути чтения нет.
package ledger

import (
	"context"

	"meritspace.ru/merit-bot/internal/features/publication"
)

// Store — операции журнала, нужные калькулятору балансов.
type Store interface {
	GetByID(ctx context.Context, id int64) (*Transaction, error)
	AggregatePublication(ctx context.Context, pubID int64) (*Balance, error)
	AggregateTransaction(ctx context.Context, txID int64) (*Balance, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Transaction, error)
}

// PublicationStore — проверка существования публикации.
type PublicationStore interface {
	GetByID(ctx context.Context, id int64) (*publication.Publication, error)
}

// Service — калькулятор балансов поверх журнала транзакций.
type Service struct {
	store Store
	pubs  PublicationStore
}

// NewService создаёт калькулятор балансов.
func NewService(store Store, pubs PublicationStore) *Service {
	return &Service{store: store, pubs: pubs}
}

// BalanceOfPublication возвращает производный баланс публикации.
// Несуществующая публикация — ошибка, а не нулевой баланс.
func (s *Service) BalanceOfPublication(ctx context.Context, pubID int64) (*Balance, error) {
	if _, err := s.pubs.GetByID(ctx, pubID); err != nil {
		return nil, err
	}
	return s.store.AggregatePublication(ctx, pubID)
}

// BalanceOfTransaction возвращает производный баланс транзакции —
// голоса, на который отвечали вложенными голосами и выводами.
func (s *Service) BalanceOfTransaction(ctx context.Context, txID int64) (*Balance, error) {
	if _, err := s.store.GetByID(ctx, txID); err != nil {
		return nil, err
	}
	return s.store.AggregateTransaction(ctx, txID)
}

// GetTransaction возвращает запись журнала по ID.
func (s *Service) GetTransaction(ctx context.Context, id int64) (*Transaction, error) {
	return s.store.GetByID(ctx, id)
}

// History возвращает последние записи журнала пользователя.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	return s.store.ListByUser(ctx, userID, limit)
}
