// Package wallet управляет кошельками — рассчитанными балансами
// пользователей по валютам. models.go описывает структуру кошелька.
package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet — одна запись на пару (пользователь, валюта пространства).
// Баланс меняется только выводом, пополнением публикации и обменом;
// голосование само по себе кошелёк не трогает (кроме платной части голоса).
// После обмена баланс может быть дробным.
type Wallet struct {
	ID              int64           `db:"id"`
	UserID          int64           `db:"user_id"`
	CurrencySpaceID int64           `db:"currency_space_id"`
	Balance         decimal.Decimal `db:"balance"`
	// Версия для оптимистичного контроля параллельных обновлений.
	// Каждое изменение баланса увеличивает её на 1.
	Version   int64     `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
