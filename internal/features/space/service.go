// Package space — service.go содержит логику доступа к настройкам пространств.
package space

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/common"
)

// Store — хранилище пространств.
type Store interface {
	GetByID(ctx context.Context, id int64) (*Space, error)
	GetBySlug(ctx context.Context, slug string) (*Space, error)
	GetGlobal(ctx context.Context) (*Space, error)
	Create(ctx context.Context, s *Space) error
}

// Service предоставляет настройки пространств остальным модулям.
// Движок экономики читает их и никогда не меняет; заводят пространства
// операционно через Create.
type Service struct {
	store Store
	// Дневной лимит бесплатного голосования, если пространство не задало свой
	defaultDailyQuota int64
}

// NewService создаёт сервис пространств.
func NewService(store Store, defaultDailyQuota int64) *Service {
	return &Service{store: store, defaultDailyQuota: defaultDailyQuota}
}

// GetByID возвращает пространство по ID.
func (s *Service) GetByID(ctx context.Context, id int64) (*Space, error) {
	return s.store.GetByID(ctx, id)
}

// GetBySlug возвращает пространство по короткому имени.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Space, error) {
	return s.store.GetBySlug(ctx, slug)
}

// GetGlobal возвращает глобальное пространство (валюта «мериты»).
func (s *Service) GetGlobal(ctx context.Context) (*Space, error) {
	return s.store.GetGlobal(ctx)
}

// Create регистрирует пространство сообщества. Пространство без своего
// дневного лимита получает лимит по умолчанию; у глобального пространства
// лимита нет — его заводит миграция, а не Create.
func (s *Service) Create(ctx context.Context, sp *Space) error {
	if strings.TrimSpace(sp.Slug) == "" || strings.TrimSpace(sp.CurrencyName) == "" {
		return common.ErrInvalidTarget
	}
	if sp.IsGlobal {
		return common.ErrInvalidTarget
	}
	if sp.DailyQuota <= 0 {
		sp.DailyQuota = s.defaultDailyQuota
	}

	if err := s.store.Create(ctx, sp); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"slug":        sp.Slug,
		"daily_quota": sp.DailyQuota,
	}).Info("Пространство зарегистрировано")
	return nil
}
