// Package voting — приём голосов: валидация, разделение оплаты между
// дневным лимитом и кошельком, атомарная запись в журнал.
package voting

import (
	"context"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/ledger"
	"meritspace.ru/merit-bot/internal/features/publication"
	"meritspace.ru/merit-bot/internal/features/space"
)

// LedgerStore — операции журнала, нужные голосованию.
type LedgerStore interface {
	GetByID(ctx context.Context, id int64) (*ledger.Transaction, error)
	AppendVote(ctx context.Context, t *ledger.Transaction, walletDebit decimal.Decimal) (int64, error)
}

// PublicationStore — чтение публикаций.
type PublicationStore interface {
	GetByID(ctx context.Context, id int64) (*publication.Publication, error)
}

// SpaceStore — чтение настроек пространств.
type SpaceStore interface {
	GetByID(ctx context.Context, id int64) (*space.Space, error)
}

// QuotaProvider — остаток дневного бесплатного лимита.
type QuotaProvider interface {
	Remaining(ctx context.Context, userID int64, sp *space.Space) (int64, error)
}

// Service принимает голоса за публикации и за другие голоса.
type Service struct {
	ledger LedgerStore
	pubs   PublicationStore
	spaces SpaceStore
	quota  QuotaProvider
}

// NewService создаёт сервис голосования.
func NewService(ledgerStore LedgerStore, pubs PublicationStore, spaces SpaceStore, quota QuotaProvider) *Service {
	return &Service{ledger: ledgerStore, pubs: pubs, spaces: spaces, quota: quota}
}

// ForPublication записывает голос за публикацию.
// Возвращает ID новой транзакции — по нему принимаются вложенные голоса.
func (s *Service) ForPublication(ctx context.Context, fromUserID, pubID, amount int64, plus bool, comment string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}

	pub, err := s.pubs.GetByID(ctx, pubID)
	if err != nil {
		return 0, err
	}
	if pub.Status != publication.StatusApproved {
		return 0, common.ErrPublicationPending
	}
	// Голосовать за собственный контент запрещено
	if pub.AuthorID == fromUserID {
		return 0, common.ErrSelfVote
	}

	recipient := pub.AuthorID
	return s.appendVote(ctx, &ledger.Transaction{
		TxType:           ledger.TxTypeVote,
		FromUserID:       fromUserID,
		ToUserID:         &recipient,
		ForPublicationID: &pubID,
		DirectionPlus:    plus,
		CurrencySpaceID:  pub.SpaceID,
		Comment:          comment,
	}, amount, plus)
}

// ForTransaction записывает голос за более ранний голос.
// Цепочка допускается глубиной ровно один уровень: голосовать можно
// только за голос, который сам нацелен на публикацию.
func (s *Service) ForTransaction(ctx context.Context, fromUserID, txID, amount int64, plus bool, comment string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}

	target, err := s.ledger.GetByID(ctx, txID)
	if err != nil {
		return 0, err
	}
	if target.TxType != ledger.TxTypeVote || !target.TargetsPublication() {
		return 0, common.ErrNestedTooDeep
	}
	// Получатель вложенного голоса — автор исходного голоса
	if target.FromUserID == fromUserID {
		return 0, common.ErrSelfVote
	}

	recipient := target.FromUserID
	return s.appendVote(ctx, &ledger.Transaction{
		TxType:           ledger.TxTypeVote,
		FromUserID:       fromUserID,
		ToUserID:         &recipient,
		ForTransactionID: &txID,
		DirectionPlus:    plus,
		CurrencySpaceID:  target.CurrencySpaceID,
		Comment:          comment,
	}, amount, plus)
}

// appendVote делит оплату голоса и атомарно записывает его.
func (s *Service) appendVote(ctx context.Context, t *ledger.Transaction, amount int64, plus bool) (int64, error) {
	amountFree, err := s.splitFunding(ctx, t.FromUserID, t.CurrencySpaceID, amount, plus)
	if err != nil {
		return 0, err
	}

	t.Amount = decimal.NewFromInt(amount)
	t.AmountFree = amountFree
	walletDebit := decimal.NewFromInt(amount - amountFree)

	id, err := s.ledger.AppendVote(ctx, t, walletDebit)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"transaction_id": id,
		"from":           t.FromUserID,
		"amount":         amount,
		"amount_free":    amountFree,
		"plus":           plus,
	}).Info("Голос записан")

	return id, nil
}

// splitFunding определяет, какая часть голоса оплачивается лимитом.
// Минус-голоса оплачиваются только из кошелька: бесплатный лимит
// на отрицательные голоса не распространяется.
func (s *Service) splitFunding(ctx context.Context, userID, currencySpaceID, amount int64, plus bool) (int64, error) {
	if !plus {
		return 0, nil
	}

	sp, err := s.spaces.GetByID(ctx, currencySpaceID)
	if err != nil {
		return 0, err
	}
	remaining, err := s.quota.Remaining(ctx, userID, sp)
	if err != nil {
		return 0, err
	}

	if amount <= remaining {
		return amount, nil
	}
	return remaining, nil
}
