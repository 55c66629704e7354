// Package moderation — service.go содержит логику аутентификации,
// управления сессиями и state-машину пошаговых модераторских действий.
package moderation

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/config"
	"meritspace.ru/merit-bot/internal/features/member"
	"meritspace.ru/merit-bot/internal/features/publication"
)

// PublicationService — операции модерации публикаций.
type PublicationService interface {
	ListPending(ctx context.Context, spaceID int64) ([]*publication.Publication, error)
	Approve(ctx context.Context, id int64) error
}

// MemberService — операции управления участниками.
type MemberService interface {
	GetByUserID(ctx context.Context, userID int64) (*member.Member, error)
	SetRole(ctx context.Context, userID int64, role string) error
}

// Service управляет модераторским доступом.
type Service struct {
	repo     *Repository
	pubs     PublicationService
	members  MemberService
	cfg      *config.Config
	states   map[int64]*DialogState // Состояния диалогов (in-memory)
	statesMu sync.RWMutex
}

// NewService создаёт сервис модерации.
func NewService(repo *Repository, pubs PublicationService, members MemberService, cfg *config.Config) *Service {
	return &Service{
		repo:    repo,
		pubs:    pubs,
		members: members,
		cfg:     cfg,
		states:  make(map[int64]*DialogState),
	}
}

// VerifyPassword проверяет пароль модератора с использованием Argon2id.
// Включает защиту от brute-force: 3 неудачные попытки = блокировка на 1 час.
func (s *Service) VerifyPassword(ctx context.Context, userID int64, password string) error {
	// Проверяем лимит попыток
	attempts, err := s.repo.GetRecentAttempts(ctx, userID, 1*time.Hour)
	if err != nil {
		return err
	}
	if attempts >= 3 {
		return common.ErrTooManyAttempts
	}

	// Проверяем пароль
	match := verifyArgon2id(password, s.cfg.ModeratorPasswordHash)

	// Логируем попытку
	s.repo.LogAttempt(ctx, userID, match)

	if !match {
		return common.ErrWrongPassword
	}

	// Создаём сессию (24 часа)
	token := generateSecureToken()
	session := &Session{
		UserID:       userID,
		SessionToken: token,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	}

	return s.repo.CreateSession(ctx, session)
}

// HasActiveSession проверяет, есть ли у пользователя активная сессия.
func (s *Service) HasActiveSession(ctx context.Context, userID int64) bool {
	session, err := s.repo.GetActiveSession(ctx, userID)
	return err == nil && session != nil
}

// Logout деактивирует сессию модератора.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.DeactivateSession(ctx, userID)
}

// PendingQueue возвращает очередь публикаций на модерации.
// Требует активной сессии.
func (s *Service) PendingQueue(ctx context.Context, userID, spaceID int64) ([]*publication.Publication, error) {
	if !s.HasActiveSession(ctx, userID) {
		return nil, common.ErrSessionExpired
	}
	return s.pubs.ListPending(ctx, spaceID)
}

// ApprovePublication одобряет публикацию из очереди модерации.
func (s *Service) ApprovePublication(ctx context.Context, userID, pubID int64) error {
	if !s.HasActiveSession(ctx, userID) {
		return common.ErrSessionExpired
	}
	if err := s.pubs.Approve(ctx, pubID); err != nil {
		return err
	}
	s.repo.UpdateActivity(ctx, userID)

	log.WithFields(log.Fields{
		"moderator_id":   userID,
		"publication_id": pubID,
	}).Info("Публикация одобрена")
	return nil
}

// AssignRole назначает роль участнику.
func (s *Service) AssignRole(ctx context.Context, moderatorID, userID int64, role string) error {
	if !s.HasActiveSession(ctx, moderatorID) {
		return common.ErrSessionExpired
	}
	if len([]rune(role)) > 64 {
		return fmt.Errorf("роль слишком длинная (максимум 64 символа)")
	}
	if _, err := s.members.GetByUserID(ctx, userID); err != nil {
		return err
	}
	return s.members.SetRole(ctx, userID, role)
}

// GetState возвращает текущее состояние диалога.
func (s *Service) GetState(userID int64) *DialogState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return nil
	}
	// Проверяем истечение
	if time.Now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState устанавливает состояние диалога с 5-минутным таймаутом.
func (s *Service) SetState(userID int64, stateName string, data interface{}) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	s.states[userID] = &DialogState{
		State:     stateName,
		Data:      data,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
}

// ClearState сбрасывает состояние диалога.
func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}

// --- Криптографические утилиты ---

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравнение в постоянном времени (защита от timing attack)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// generateSecureToken генерирует криптографически безопасный токен сессии.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
