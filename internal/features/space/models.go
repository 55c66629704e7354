// Package space описывает пространства (сообщества) и их экономические правила.
// models.go содержит структуру пространства и проверку ролей.
package space

import "time"

// Space — пространство сообщества со своей внутренней валютой.
// Правила (дневной лимит, роли, премодерация) читаются движком
// экономики, но никогда им не изменяются.
type Space struct {
	ID           int64     `db:"id"`            // ID пространства, он же ID валюты
	Slug         string    `db:"slug"`          // Короткое имя для команд бота
	Title        string    `db:"title"`         // Отображаемое название
	CurrencyName string    `db:"currency_name"` // Название внутренней валюты
	// Дневной лимит бесплатного голосования на участника
	DailyQuota int64 `db:"daily_quota"`
	// Роли, которым доступен бесплатный лимит. Пустой список = всем.
	EligibleRoles []string `db:"eligible_roles"`
	// Публикации попадают в ленту только после одобрения модератором
	Premoderation bool `db:"premoderation"`
	// Глобальное пространство платформы — валюта «мериты»
	IsGlobal bool `db:"is_global"`
	// Системный счёт пространства: его кошелёк в меритах —
	// обеспечение внутренней валюты при расчёте курса
	TreasuryUserID int64     `db:"treasury_user_id"`
	CreatedAt      time.Time `db:"created_at"`
}

// RoleEligible сообщает, доступен ли роли бесплатный дневной лимит.
func (s *Space) RoleEligible(role string) bool {
	if len(s.EligibleRoles) == 0 {
		return true
	}
	for _, r := range s.EligibleRoles {
		if r == role {
			return true
		}
	}
	return false
}
