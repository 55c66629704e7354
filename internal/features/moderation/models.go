// Package moderation реализует модераторский доступ с парольной
// аутентификацией: одобрение публикаций на премодерации и назначение
// ролей участникам.
// models.go описывает структуры сессий и попыток входа.
package moderation

import "time"

// Session — активная сессия модератора.
type Session struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// LoginAttempt — попытка входа (для защиты от brute-force).
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// DialogState — состояние диалога с модератором (конечный автомат).
// Модераторские действия идут по шагам: команда → пароль → действие.
type DialogState struct {
	State     string      // Текущее состояние ("", "awaiting_password", ...)
	Data      interface{} // Данные контекста (выбранная публикация, участник)
	ExpiresAt time.Time   // Когда состояние истекает (5 минут)
}

// Возможные состояния диалога модератора
const (
	StateNone             = ""                   // Нет активного состояния
	StateAwaitingPassword = "awaiting_password"  // Ждём пароль
	StateAssignRoleSelect = "assign_role_select" // Ждём выбор участника
	StateAssignRoleText   = "assign_role_text"   // Ждём текст роли
)
