// Package publication управляет публикациями — контентом, на который
// начисляются голоса. models.go описывает структуру публикации.
package publication

import "time"

// Статусы публикации. Публикация создаётся один раз при приёме
// и дальше движком экономики не изменяется: меняется только её
// производный баланс по мере накопления транзакций.
const (
	StatusPending  = "pending"  // Ожидает одобрения модератором
	StatusApproved = "approved" // Доступна для голосования
)

// Publication — публикация участника внутри пространства.
// Плюсы/минусы/сумма НЕ хранятся здесь: они всегда выводятся
// из журнала транзакций.
type Publication struct {
	ID       int64  `db:"id"`
	Slug     string `db:"slug"`      // Короткое имя для команд бота
	AuthorID int64  `db:"author_id"` // Автор публикации
	// Бенефициар, если вывод средств разрешён не автору,
	// а другому участнику (nil — только автору)
	BeneficiaryID *int64    `db:"beneficiary_id"`
	SpaceID       int64     `db:"space_id"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
}

// CanWithdraw сообщает, разрешён ли пользователю вывод с этой публикации.
// Разрешено автору и, если назначен, бенефициару.
func (p *Publication) CanWithdraw(userID int64) bool {
	if p.AuthorID == userID {
		return true
	}
	return p.BeneficiaryID != nil && *p.BeneficiaryID == userID
}
