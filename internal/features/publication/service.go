// Package publication — service.go содержит бизнес-логику публикаций:
// приём, премодерацию и одобрение.
package publication

import (
	"context"

	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/space"
)

// SpaceStore — нужные сервису настройки пространств.
type SpaceStore interface {
	GetByID(ctx context.Context, id int64) (*space.Space, error)
}

// Service управляет жизненным циклом публикаций.
type Service struct {
	repo   *Repository
	spaces SpaceStore
}

// NewService создаёт сервис публикаций.
func NewService(repo *Repository, spaces SpaceStore) *Service {
	return &Service{repo: repo, spaces: spaces}
}

// Create принимает новую публикацию.
// В пространствах с премодерацией публикация попадает в статус pending;
// isAdmin передаётся явно и позволяет модератору публиковать сразу.
func (s *Service) Create(ctx context.Context, slug string, authorID, spaceID int64, beneficiaryID *int64, isAdmin bool) (int64, error) {
	sp, err := s.spaces.GetByID(ctx, spaceID)
	if err != nil {
		return 0, err
	}

	status := StatusApproved
	if sp.Premoderation && !isAdmin {
		status = StatusPending
	}

	id, err := s.repo.Create(ctx, &Publication{
		Slug:          slug,
		AuthorID:      authorID,
		BeneficiaryID: beneficiaryID,
		SpaceID:       spaceID,
		Status:        status,
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"publication_id": id,
		"space_id":       spaceID,
		"status":         status,
	}).Info("Публикация принята")

	return id, nil
}

// GetByID возвращает публикацию по ID.
func (s *Service) GetByID(ctx context.Context, id int64) (*Publication, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySlug возвращает публикацию по короткому имени внутри пространства.
func (s *Service) GetBySlug(ctx context.Context, spaceID int64, slug string) (*Publication, error) {
	return s.repo.GetBySlug(ctx, spaceID, slug)
}

// ListPending возвращает очередь модерации пространства.
func (s *Service) ListPending(ctx context.Context, spaceID int64) ([]*Publication, error) {
	return s.repo.ListPending(ctx, spaceID)
}

// Approve одобряет публикацию, ожидающую модерации.
func (s *Service) Approve(ctx context.Context, id int64) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != StatusPending {
		return common.ErrInvalidTarget
	}
	return s.repo.SetStatus(ctx, id, StatusApproved)
}
