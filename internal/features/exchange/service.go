// Package exchange — service.go содержит расчёт курса и обмен
// валюты пространства на мериты.
//
// Курс = баланс системного счёта пространства в меритах (обеспечение)
// делённый на капитализацию пространства. Вся арифметика — decimal,
// чтобы повторные обмены не накапливали ошибок округления.
package exchange

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/ledger"
	"meritspace.ru/merit-bot/internal/features/space"
	"meritspace.ru/merit-bot/internal/features/wallet"
)

// Store — хранилище операций обмена.
type Store interface {
	Capitalization(ctx context.Context, spaceID int64) (decimal.Decimal, error)
	ExecuteExchange(ctx context.Context, out, in *ledger.Transaction, expectedVersion int64) (decimal.Decimal, error)
}

// WalletStore — чтение кошельков.
type WalletStore interface {
	Get(ctx context.Context, userID, currencySpaceID int64) (*wallet.Wallet, error)
	GetBalance(ctx context.Context, userID, currencySpaceID int64) (decimal.Decimal, error)
}

// SpaceStore — чтение пространств.
type SpaceStore interface {
	GetByID(ctx context.Context, id int64) (*space.Space, error)
	GetGlobal(ctx context.Context) (*space.Space, error)
}

// Service считает курс и проводит обмены.
type Service struct {
	store   Store
	wallets WalletStore
	spaces  SpaceStore
	// Сколько раз повторяем обмен при конфликте версий кошелька
	retries int
}

// NewService создаёт сервис обмена.
func NewService(store Store, wallets WalletStore, spaces SpaceStore, retries int) *Service {
	if retries <= 0 {
		retries = 3
	}
	return &Service{store: store, wallets: wallets, spaces: spaces, retries: retries}
}

// Capitalization возвращает внутренний экономический объём пространства.
func (s *Service) Capitalization(ctx context.Context, spaceID int64) (decimal.Decimal, error) {
	if _, err := s.spaces.GetByID(ctx, spaceID); err != nil {
		return decimal.Zero, err
	}
	return s.store.Capitalization(ctx, spaceID)
}

// Rate возвращает курс обмена валюты пространства на мериты:
// обеспечение в меритах на единицу внутренней валюты.
func (s *Service) Rate(ctx context.Context, spaceID int64) (decimal.Decimal, error) {
	sp, err := s.spaces.GetByID(ctx, spaceID)
	if err != nil {
		return decimal.Zero, err
	}
	if sp.IsGlobal {
		return decimal.Zero, common.ErrInvalidTarget
	}

	global, err := s.spaces.GetGlobal(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	capitalization, err := s.store.Capitalization(ctx, sp.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if !capitalization.IsPositive() {
		return decimal.Zero, common.ErrExchangeUnavailable
	}

	backing, err := s.wallets.GetBalance(ctx, sp.TreasuryUserID, global.ID)
	if err != nil {
		return decimal.Zero, err
	}
	// Без обеспечения в меритах обменивать не на что
	if !backing.IsPositive() {
		return decimal.Zero, common.ErrExchangeUnavailable
	}

	return backing.Div(capitalization), nil
}

// ToMerits обменивает amountFrom из кошелька пользователя в валюте
// пространства на мериты по текущему курсу. Возвращает новый баланс
// кошелька меритов.
//
// Обе ноги обмена записываются в журнал с общим op_id, поэтому
// история каждого кошелька восстановима.
func (s *Service) ToMerits(ctx context.Context, userID, fromSpaceID int64, amountFrom decimal.Decimal) (decimal.Decimal, error) {
	if !amountFrom.IsPositive() {
		return decimal.Zero, common.ErrInvalidAmount
	}

	global, err := s.spaces.GetGlobal(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	rate, err := s.Rate(ctx, fromSpaceID)
	if err != nil {
		return decimal.Zero, err
	}
	amountTo := amountFrom.Mul(rate)

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		w, err := s.wallets.Get(ctx, userID, fromSpaceID)
		if err != nil {
			if errors.Is(err, common.ErrTargetNotFound) {
				return decimal.Zero, common.ErrInsufficientBalance
			}
			return decimal.Zero, err
		}
		if w.Balance.LessThan(amountFrom) {
			return decimal.Zero, common.ErrInsufficientBalance
		}

		opID := uuid.New()
		out := &ledger.Transaction{
			OpID:            &opID,
			TxType:          ledger.TxTypeExchangeOut,
			FromUserID:      userID,
			DirectionPlus:   false,
			Amount:          amountFrom,
			CurrencySpaceID: fromSpaceID,
		}
		in := &ledger.Transaction{
			OpID:            &opID,
			TxType:          ledger.TxTypeExchangeIn,
			FromUserID:      userID,
			DirectionPlus:   true,
			Amount:          amountTo,
			CurrencySpaceID: global.ID,
		}

		newBalance, err := s.store.ExecuteExchange(ctx, out, in, w.Version)
		if err == nil {
			log.WithFields(log.Fields{
				"user_id":     userID,
				"from_space":  fromSpaceID,
				"amount_from": amountFrom.String(),
				"amount_to":   amountTo.String(),
				"op_id":       opID.String(),
			}).Info("Обмен выполнен")
			return newBalance, nil
		}
		if !errors.Is(err, common.ErrConcurrencyConflict) {
			return decimal.Zero, err
		}
		// Версия кошелька изменилась — перечитываем и пробуем снова
		lastErr = err
	}
	return decimal.Zero, lastErr
}
