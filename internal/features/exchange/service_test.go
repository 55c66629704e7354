package exchange

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/ledger"
	"meritspace.ru/merit-bot/internal/features/space"
	"meritspace.ru/merit-bot/internal/features/wallet"
)

const (
	userID       = int64(200)
	filmsSpaceID = int64(7)
	globalID     = int64(1)
	treasuryID   = int64(900)
)

type fakeStore struct {
	capitalization decimal.Decimal

	// Сколько первых попыток обмена завершаются конфликтом
	conflicts int
	calls     int
	lastOut   *ledger.Transaction
	lastIn    *ledger.Transaction
	newBal    decimal.Decimal
}

func (f *fakeStore) Capitalization(ctx context.Context, spaceID int64) (decimal.Decimal, error) {
	return f.capitalization, nil
}

func (f *fakeStore) ExecuteExchange(ctx context.Context, out, in *ledger.Transaction, expectedVersion int64) (decimal.Decimal, error) {
	f.calls++
	if f.calls <= f.conflicts {
		return decimal.Zero, common.ErrConcurrencyConflict
	}
	f.lastOut = out
	f.lastIn = in
	return f.newBal, nil
}

type fakeWallets struct {
	balances map[int64]decimal.Decimal // по currency_space_id для userID
	treasury decimal.Decimal
	version  int64
}

func (f *fakeWallets) Get(ctx context.Context, uid, currencySpaceID int64) (*wallet.Wallet, error) {
	b, ok := f.balances[currencySpaceID]
	if !ok {
		return nil, common.ErrTargetNotFound
	}
	return &wallet.Wallet{UserID: uid, CurrencySpaceID: currencySpaceID, Balance: b, Version: f.version}, nil
}

func (f *fakeWallets) GetBalance(ctx context.Context, uid, currencySpaceID int64) (decimal.Decimal, error) {
	if uid == treasuryID {
		return f.treasury, nil
	}
	b, ok := f.balances[currencySpaceID]
	if !ok {
		return decimal.Zero, nil
	}
	return b, nil
}

type fakeSpaces struct{}

func (f *fakeSpaces) GetByID(ctx context.Context, id int64) (*space.Space, error) {
	switch id {
	case filmsSpaceID:
		return &space.Space{ID: filmsSpaceID, Slug: "films", CurrencyName: "пленки", TreasuryUserID: treasuryID}, nil
	case globalID:
		return &space.Space{ID: globalID, Slug: "merits", IsGlobal: true}, nil
	}
	return nil, common.ErrTargetNotFound
}

func (f *fakeSpaces) GetGlobal(ctx context.Context) (*space.Space, error) {
	return &space.Space{ID: globalID, Slug: "merits", IsGlobal: true}, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRate(t *testing.T) {
	t.Run("обеспечение делится на капитализацию", func(t *testing.T) {
		// 15 меритов обеспечения на 10 единиц капитализации = 1.5
		store := &fakeStore{capitalization: decimal.NewFromInt(10)}
		wallets := &fakeWallets{treasury: decimal.NewFromInt(15)}
		svc := NewService(store, wallets, &fakeSpaces{}, 3)

		rate, err := svc.Rate(context.Background(), filmsSpaceID)
		require.NoError(t, err)
		assert.True(t, rate.Equal(dec("1.5")), "got %s", rate)
	})

	t.Run("нулевая капитализация — обмен недоступен", func(t *testing.T) {
		store := &fakeStore{capitalization: decimal.Zero}
		svc := NewService(store, &fakeWallets{}, &fakeSpaces{}, 3)

		_, err := svc.Rate(context.Background(), filmsSpaceID)
		assert.ErrorIs(t, err, common.ErrExchangeUnavailable)
	})

	t.Run("нет обеспечения в меритах — обмен недоступен", func(t *testing.T) {
		store := &fakeStore{capitalization: decimal.NewFromInt(10)}
		wallets := &fakeWallets{treasury: decimal.Zero}
		svc := NewService(store, wallets, &fakeSpaces{}, 3)

		_, err := svc.Rate(context.Background(), filmsSpaceID)
		assert.ErrorIs(t, err, common.ErrExchangeUnavailable)
	})

	t.Run("глобальное пространство не обменивается", func(t *testing.T) {
		store := &fakeStore{capitalization: decimal.NewFromInt(10)}
		svc := NewService(store, &fakeWallets{}, &fakeSpaces{}, 3)

		_, err := svc.Rate(context.Background(), globalID)
		assert.ErrorIs(t, err, common.ErrInvalidTarget)
	})
}

func TestToMerits(t *testing.T) {
	newSvc := func(conflicts int) (*Service, *fakeStore, *fakeWallets) {
		store := &fakeStore{
			capitalization: decimal.NewFromInt(10),
			conflicts:      conflicts,
			newBal:         dec("7.5"),
		}
		wallets := &fakeWallets{
			balances: map[int64]decimal.Decimal{filmsSpaceID: decimal.NewFromInt(20)},
			treasury: decimal.NewFromInt(15),
			version:  4,
		}
		return NewService(store, wallets, &fakeSpaces{}, 3), store, wallets
	}

	t.Run("успешный обмен по курсу", func(t *testing.T) {
		svc, store, _ := newSvc(0)

		// 5 пленок по курсу 1.5 = 7.5 мерита
		newBal, err := svc.ToMerits(context.Background(), userID, filmsSpaceID, decimal.NewFromInt(5))
		require.NoError(t, err)
		assert.True(t, newBal.Equal(dec("7.5")))

		require.NotNil(t, store.lastOut)
		require.NotNil(t, store.lastIn)

		// Нога списания в валюте пространства
		assert.Equal(t, ledger.TxTypeExchangeOut, store.lastOut.TxType)
		assert.False(t, store.lastOut.DirectionPlus)
		assert.Equal(t, filmsSpaceID, store.lastOut.CurrencySpaceID)
		assert.True(t, store.lastOut.Amount.Equal(decimal.NewFromInt(5)))

		// Нога зачисления в меритах
		assert.Equal(t, ledger.TxTypeExchangeIn, store.lastIn.TxType)
		assert.True(t, store.lastIn.DirectionPlus)
		assert.Equal(t, globalID, store.lastIn.CurrencySpaceID)
		assert.True(t, store.lastIn.Amount.Equal(dec("7.5")), "got %s", store.lastIn.Amount)

		// Обе ноги несут один op_id
		require.NotNil(t, store.lastOut.OpID)
		require.NotNil(t, store.lastIn.OpID)
		assert.Equal(t, *store.lastOut.OpID, *store.lastIn.OpID)
	})

	t.Run("конфликт версий повторяется до успеха", func(t *testing.T) {
		svc, store, _ := newSvc(2)

		newBal, err := svc.ToMerits(context.Background(), userID, filmsSpaceID, decimal.NewFromInt(5))
		require.NoError(t, err)
		assert.True(t, newBal.Equal(dec("7.5")))
		assert.Equal(t, 3, store.calls)
	})

	t.Run("постоянный конфликт исчерпывает попытки", func(t *testing.T) {
		svc, store, _ := newSvc(100)

		_, err := svc.ToMerits(context.Background(), userID, filmsSpaceID, decimal.NewFromInt(5))
		assert.ErrorIs(t, err, common.ErrConcurrencyConflict)
		assert.Equal(t, 3, store.calls)
	})

	t.Run("недостаточный баланс", func(t *testing.T) {
		svc, _, _ := newSvc(0)

		_, err := svc.ToMerits(context.Background(), userID, filmsSpaceID, decimal.NewFromInt(100))
		assert.ErrorIs(t, err, common.ErrInsufficientBalance)
	})

	t.Run("кошелька нет — недостаточный баланс", func(t *testing.T) {
		svc, _, wallets := newSvc(0)
		delete(wallets.balances, filmsSpaceID)

		_, err := svc.ToMerits(context.Background(), userID, filmsSpaceID, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, common.ErrInsufficientBalance)
	})

	t.Run("нулевая сумма", func(t *testing.T) {
		svc, _, _ := newSvc(0)

		_, err := svc.ToMerits(context.Background(), userID, filmsSpaceID, decimal.Zero)
		assert.ErrorIs(t, err, common.ErrInvalidAmount)
	})
}
