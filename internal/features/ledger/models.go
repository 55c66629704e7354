// Package ledger — журнал транзакций, единственный источник истины экономики.
// models.go описывает запись журнала и производный баланс.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Типы транзакций — допустимые виды движения средств.
const (
	TxTypeVote        = "vote"         // Голос за публикацию или за другой голос
	TxTypeWithdraw    = "withdraw"     // Вывод накопленного баланса в кошелёк
	TxTypeTopUp       = "topup"        // Возврат средств из кошелька на публикацию
	TxTypeExchangeOut = "exchange_out" // Списание при обмене валюты пространства
	TxTypeExchangeIn  = "exchange_in"  // Зачисление меритов при обмене
)

// Transaction — неизменяемая запись журнала.
// Запись никогда не удаляется и не редактируется: вывод и обмен
// отражаются последующими записями с отрицательным направлением.
type Transaction struct {
	ID int64 `db:"id"`
	// Общий идентификатор операции для связанных записей:
	// обе ноги обмена несут один op_id
	OpID       *uuid.UUID `db:"op_id"`
	TxType     string     `db:"tx_type"`
	FromUserID int64      `db:"from_user_id"` // Действующий пользователь
	ToUserID   *int64     `db:"to_user_id"`   // Получатель (автор публикации или автор голоса)
	// Цель — ровно одно из двух: публикация или более ранняя транзакция.
	// Голос за голос допускается лишь на один уровень вглубь.
	ForPublicationID *int64 `db:"for_publication_id"`
	ForTransactionID *int64 `db:"for_transaction_id"`
	DirectionPlus    bool   `db:"direction_plus"`
	// Сумма всегда положительная; знак задаёт direction_plus
	Amount decimal.Decimal `db:"amount"`
	// Часть суммы, оплаченная из дневного лимита (только голоса);
	// остаток неявно оплачен из кошелька
	AmountFree      int64     `db:"amount_free"`
	CurrencySpaceID int64     `db:"currency_space_id"`
	Comment         string    `db:"comment"`
	CreatedAt       time.Time `db:"created_at"`
}

// TargetsPublication сообщает, указывает ли запись на публикацию.
func (t *Transaction) TargetsPublication() bool {
	return t.ForPublicationID != nil
}

// Balance — производный баланс цели: суммы по направлениям.
// Не хранится нигде, всегда выводится из журнала.
type Balance struct {
	Plus  decimal.Decimal
	Minus decimal.Decimal
}

// Sum возвращает итог: плюсы минус минусы.
func (b Balance) Sum() decimal.Decimal {
	return b.Plus.Sub(b.Minus)
}
