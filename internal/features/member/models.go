// Package member управляет участниками сообщества: регистрацией и ролями.
// models.go описывает структуры данных для работы с таблицей members.
package member

import "time"

// Member представляет участника сообщества в базе данных.
// Каждый пользователь, написавший боту, автоматически создаётся здесь.
type Member struct {
	ID        int64     `db:"id"`         // Автоинкрементный ID записи в БД
	UserID    int64     `db:"user_id"`    // Telegram user ID (уникальный)
	Username  string    `db:"username"`   // @username (может быть пустым)
	FirstName string    `db:"first_name"` // Имя
	LastName  string    `db:"last_name"`  // Фамилия (может быть пустой)
	// Роль участника; пространство решает по ней,
	// доступен ли бесплатный дневной лимит
	Role      string    `db:"role"`
	IsBanned  bool      `db:"is_banned"`
	JoinedAt  time.Time `db:"joined_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DisplayName возвращает имя для сообщений бота: @username,
// если он есть, иначе имя и фамилию.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	if m.LastName != "" {
		return m.FirstName + " " + m.LastName
	}
	return m.FirstName
}

// UpdateInfo — данные для обновления профиля участника.
type UpdateInfo struct {
	Username  string
	FirstName string
	LastName  string
}
