// Package withdraw — service.go содержит бизнес-логику вывода средств:
// авторизацию и подготовку записей журнала. Сама атомарная проверка
// баланса живёт в репозитории.
package withdraw

import (
	"context"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/ledger"
	"meritspace.ru/merit-bot/internal/features/publication"
)

// Store — атомарные операции вывода и пополнения.
type Store interface {
	WithdrawFromPublication(ctx context.Context, t *ledger.Transaction) error
	WithdrawFromTransaction(ctx context.Context, t *ledger.Transaction) error
	TopUpPublication(ctx context.Context, t *ledger.Transaction) error
	TopUpTransaction(ctx context.Context, t *ledger.Transaction) error
}

// PublicationStore — чтение публикаций для авторизации.
type PublicationStore interface {
	GetByID(ctx context.Context, id int64) (*publication.Publication, error)
}

// LedgerReader — чтение транзакций-целей.
type LedgerReader interface {
	GetByID(ctx context.Context, id int64) (*ledger.Transaction, error)
}

// Service выполняет вывод накопленных голосов в кошелёк и обратное
// пополнение контента из кошелька.
type Service struct {
	store  Store
	pubs   PublicationStore
	ledger LedgerReader
}

// NewService создаёт сервис выводов.
func NewService(store Store, pubs PublicationStore, ledgerReader LedgerReader) *Service {
	return &Service{store: store, pubs: pubs, ledger: ledgerReader}
}

// FromPublication выводит amount из накопленного баланса публикации
// в кошелёк пользователя. directionAdd = true — обратная операция:
// пополнение публикации из кошелька.
// Разрешено автору публикации или назначенному бенефициару.
func (s *Service) FromPublication(ctx context.Context, userID, pubID, amount int64, directionAdd bool, comment string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	pub, err := s.pubs.GetByID(ctx, pubID)
	if err != nil {
		return err
	}
	if !pub.CanWithdraw(userID) {
		return common.ErrNotAuthorized
	}

	t := &ledger.Transaction{
		FromUserID:       userID,
		ForPublicationID: &pubID,
		Amount:           decimal.NewFromInt(amount),
		CurrencySpaceID:  pub.SpaceID,
		Comment:          comment,
	}

	if directionAdd {
		t.TxType = ledger.TxTypeTopUp
		t.DirectionPlus = true
		err = s.store.TopUpPublication(ctx, t)
	} else {
		t.TxType = ledger.TxTypeWithdraw
		t.DirectionPlus = false
		err = s.store.WithdrawFromPublication(ctx, t)
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id":        userID,
		"publication_id": pubID,
		"amount":         amount,
		"top_up":         directionAdd,
	}).Info("Вывод по публикации выполнен")

	return nil
}

// FromTransaction — вывод или пополнение для голоса-цели.
// Разрешено только автору голоса: баланс голоса складывается из
// вложенных голосов, а их получатель — автор цели.
func (s *Service) FromTransaction(ctx context.Context, userID, txID, amount int64, directionAdd bool, comment string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	target, err := s.ledger.GetByID(ctx, txID)
	if err != nil {
		return err
	}
	if target.FromUserID != userID {
		return common.ErrNotAuthorized
	}

	t := &ledger.Transaction{
		FromUserID:       userID,
		ForTransactionID: &txID,
		Amount:           decimal.NewFromInt(amount),
		CurrencySpaceID:  target.CurrencySpaceID,
		Comment:          comment,
	}

	if directionAdd {
		t.TxType = ledger.TxTypeTopUp
		t.DirectionPlus = true
		err = s.store.TopUpTransaction(ctx, t)
	} else {
		t.TxType = ledger.TxTypeWithdraw
		t.DirectionPlus = false
		err = s.store.WithdrawFromTransaction(ctx, t)
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id":        userID,
		"transaction_id": txID,
		"amount":         amount,
		"top_up":         directionAdd,
	}).Info("Вывод по транзакции выполнен")

	return nil
}
