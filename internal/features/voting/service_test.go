package voting

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/ledger"
	"meritspace.ru/merit-bot/internal/features/publication"
	"meritspace.ru/merit-bot/internal/features/space"
)

type fakeLedger struct {
	byID map[int64]*ledger.Transaction

	nextID      int64
	lastTx      *ledger.Transaction
	lastDebit   decimal.Decimal
	appendError error
}

func (f *fakeLedger) GetByID(ctx context.Context, id int64) (*ledger.Transaction, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, common.ErrTargetNotFound
	}
	return t, nil
}

func (f *fakeLedger) AppendVote(ctx context.Context, t *ledger.Transaction, walletDebit decimal.Decimal) (int64, error) {
	if f.appendError != nil {
		return 0, f.appendError
	}
	f.nextID++
	f.lastTx = t
	f.lastDebit = walletDebit
	return f.nextID, nil
}

type fakePubs struct {
	byID map[int64]*publication.Publication
}

func (f *fakePubs) GetByID(ctx context.Context, id int64) (*publication.Publication, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, common.ErrTargetNotFound
	}
	return p, nil
}

type fakeSpaces struct {
	byID map[int64]*space.Space
}

func (f *fakeSpaces) GetByID(ctx context.Context, id int64) (*space.Space, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, common.ErrTargetNotFound
	}
	return s, nil
}

type fakeQuota struct {
	remaining int64
}

func (f *fakeQuota) Remaining(ctx context.Context, userID int64, sp *space.Space) (int64, error) {
	return f.remaining, nil
}

const (
	authorID = int64(100)
	voterID  = int64(200)
	spaceID  = int64(7)
)

func approvedPub() *publication.Publication {
	return &publication.Publication{
		ID:       1,
		Slug:     "statya",
		AuthorID: authorID,
		SpaceID:  spaceID,
		Status:   publication.StatusApproved,
	}
}

func newVotingService(l *fakeLedger, pubs map[int64]*publication.Publication, remaining int64) *Service {
	return NewService(
		l,
		&fakePubs{byID: pubs},
		&fakeSpaces{byID: map[int64]*space.Space{spaceID: {ID: spaceID, DailyQuota: 10}}},
		&fakeQuota{remaining: remaining},
	)
}

func TestForPublicationValidation(t *testing.T) {
	l := &fakeLedger{}
	svc := newVotingService(l, map[int64]*publication.Publication{1: approvedPub()}, 10)

	t.Run("нулевая сумма", func(t *testing.T) {
		_, err := svc.ForPublication(context.Background(), voterID, 1, 0, true, "")
		assert.ErrorIs(t, err, common.ErrInvalidAmount)
	})

	t.Run("отрицательная сумма", func(t *testing.T) {
		_, err := svc.ForPublication(context.Background(), voterID, 1, -5, true, "")
		assert.ErrorIs(t, err, common.ErrInvalidAmount)
	})

	t.Run("голос за собственную публикацию", func(t *testing.T) {
		_, err := svc.ForPublication(context.Background(), authorID, 1, 5, true, "")
		assert.ErrorIs(t, err, common.ErrSelfVote)
	})

	t.Run("несуществующая публикация", func(t *testing.T) {
		_, err := svc.ForPublication(context.Background(), voterID, 999, 5, true, "")
		assert.ErrorIs(t, err, common.ErrTargetNotFound)
	})
}

func TestForPublicationPending(t *testing.T) {
	pending := approvedPub()
	pending.Status = publication.StatusPending

	svc := newVotingService(&fakeLedger{}, map[int64]*publication.Publication{1: pending}, 10)

	_, err := svc.ForPublication(context.Background(), voterID, 1, 5, true, "")
	assert.ErrorIs(t, err, common.ErrPublicationPending)
}

func TestForPublicationFundingSplit(t *testing.T) {
	tests := []struct {
		name       string
		amount     int64
		remaining  int64
		plus       bool
		wantFree   int64
		wantDebit  int64
	}{
		{name: "весь голос из лимита", amount: 5, remaining: 10, plus: true, wantFree: 5, wantDebit: 0},
		{name: "лимит плюс кошелёк", amount: 10, remaining: 7, plus: true, wantFree: 7, wantDebit: 3},
		{name: "лимит исчерпан, всё из кошелька", amount: 4, remaining: 0, plus: true, wantFree: 0, wantDebit: 4},
		{name: "минус-голос только из кошелька", amount: 6, remaining: 10, plus: false, wantFree: 0, wantDebit: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLedger{}
			svc := newVotingService(l, map[int64]*publication.Publication{1: approvedPub()}, tt.remaining)

			id, err := svc.ForPublication(context.Background(), voterID, 1, tt.amount, tt.plus, "за дело")
			require.NoError(t, err)
			assert.Equal(t, int64(1), id)

			require.NotNil(t, l.lastTx)
			assert.Equal(t, ledger.TxTypeVote, l.lastTx.TxType)
			assert.Equal(t, voterID, l.lastTx.FromUserID)
			require.NotNil(t, l.lastTx.ToUserID)
			assert.Equal(t, authorID, *l.lastTx.ToUserID)
			assert.Equal(t, tt.plus, l.lastTx.DirectionPlus)
			assert.Equal(t, spaceID, l.lastTx.CurrencySpaceID)
			assert.Equal(t, tt.wantFree, l.lastTx.AmountFree)
			assert.True(t, l.lastTx.Amount.Equal(decimal.NewFromInt(tt.amount)))
			assert.True(t, l.lastDebit.Equal(decimal.NewFromInt(tt.wantDebit)),
				"debit: got %s, want %d", l.lastDebit, tt.wantDebit)
		})
	}
}

func TestForTransaction(t *testing.T) {
	pubID := int64(1)
	voteOnPub := &ledger.Transaction{
		ID:               50,
		TxType:           ledger.TxTypeVote,
		FromUserID:       voterID,
		ForPublicationID: &pubID,
		CurrencySpaceID:  spaceID,
	}
	txID := int64(50)
	voteOnVote := &ledger.Transaction{
		ID:               51,
		TxType:           ledger.TxTypeVote,
		FromUserID:       300,
		ForTransactionID: &txID,
		CurrencySpaceID:  spaceID,
	}
	withdrawTx := &ledger.Transaction{
		ID:               52,
		TxType:           ledger.TxTypeWithdraw,
		FromUserID:       voterID,
		ForPublicationID: &pubID,
		CurrencySpaceID:  spaceID,
	}

	l := &fakeLedger{byID: map[int64]*ledger.Transaction{50: voteOnPub, 51: voteOnVote, 52: withdrawTx}}
	svc := newVotingService(l, map[int64]*publication.Publication{1: approvedPub()}, 10)

	t.Run("голос за голос по публикации", func(t *testing.T) {
		id, err := svc.ForTransaction(context.Background(), 300, 50, 2, true, "")
		require.NoError(t, err)
		assert.NotZero(t, id)

		require.NotNil(t, l.lastTx)
		require.NotNil(t, l.lastTx.ToUserID)
		// Получатель — автор исходного голоса
		assert.Equal(t, voterID, *l.lastTx.ToUserID)
		require.NotNil(t, l.lastTx.ForTransactionID)
		assert.Equal(t, int64(50), *l.lastTx.ForTransactionID)
		assert.Equal(t, spaceID, l.lastTx.CurrencySpaceID)
	})

	t.Run("второй уровень вложенности запрещён", func(t *testing.T) {
		_, err := svc.ForTransaction(context.Background(), voterID, 51, 2, true, "")
		assert.ErrorIs(t, err, common.ErrNestedTooDeep)
	})

	t.Run("голос за вывод запрещён", func(t *testing.T) {
		_, err := svc.ForTransaction(context.Background(), 300, 52, 2, true, "")
		assert.ErrorIs(t, err, common.ErrNestedTooDeep)
	})

	t.Run("голос за собственный голос", func(t *testing.T) {
		_, err := svc.ForTransaction(context.Background(), voterID, 50, 2, true, "")
		assert.ErrorIs(t, err, common.ErrSelfVote)
	})
}

func TestForPublicationInsufficientFunds(t *testing.T) {
	l := &fakeLedger{appendError: common.ErrInsufficientFunds}
	svc := newVotingService(l, map[int64]*publication.Publication{1: approvedPub()}, 0)

	_, err := svc.ForPublication(context.Background(), voterID, 1, 5, true, "")
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)
}
