// Package member — service.go содержит бизнес-логику управления участниками.
package member

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Service управляет участниками сообщества.
type Service struct {
	repo *Repository
}

// NewService создаёт новый сервис участников.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// EnsureMember гарантирует, что участник есть в базе.
// Вызывается на каждое входящее сообщение: новые создаются,
// у существующих обновляется профиль.
func (s *Service) EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	existing, _ := s.repo.GetByUserID(ctx, userID)
	if existing != nil {
		return s.repo.UpdateInfo(ctx, userID, UpdateInfo{
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
		})
	}

	m := &Member{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Role:      "участник",
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return fmt.Errorf("ошибка регистрации участника: %w", err)
	}

	log.WithField("user_id", userID).Info("Новый участник зарегистрирован")
	return nil
}

// GetByUserID возвращает участника по Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByUsername возвращает участника по @username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*Member, error) {
	return s.repo.GetByUsername(ctx, username)
}

// IsMember проверяет членство пользователя.
func (s *Service) IsMember(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// SetRole назначает участнику роль (используется модераторами).
func (s *Service) SetRole(ctx context.Context, userID int64, role string) error {
	return s.repo.SetRole(ctx, userID, role)
}
