// Package space — repository.go выполняет операции с таблицей spaces.
package space

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"meritspace.ru/merit-bot/internal/common"
)

// Repository работает с таблицей spaces.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий пространств.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const spaceColumns = `id, slug, title, currency_name, daily_quota, eligible_roles,
	premoderation, is_global, treasury_user_id, created_at`

func scanSpace(row pgx.Row) (*Space, error) {
	var s Space
	err := row.Scan(
		&s.ID, &s.Slug, &s.Title, &s.CurrencyName, &s.DailyQuota,
		&s.EligibleRoles, &s.Premoderation, &s.IsGlobal,
		&s.TreasuryUserID, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrTargetNotFound
		}
		return nil, fmt.Errorf("ошибка чтения пространства: %w", err)
	}
	return &s, nil
}

// GetByID возвращает пространство по ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces WHERE id = $1`
	return scanSpace(r.db.QueryRow(ctx, query, id))
}

// GetBySlug возвращает пространство по короткому имени.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces WHERE slug = $1`
	return scanSpace(r.db.QueryRow(ctx, query, slug))
}

// GetGlobal возвращает глобальное пространство платформы (валюта «мериты»).
func (r *Repository) GetGlobal(ctx context.Context) (*Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces WHERE is_global = TRUE LIMIT 1`
	return scanSpace(r.db.QueryRow(ctx, query))
}

// Create регистрирует новое пространство. Повторная регистрация slug игнорируется.
func (r *Repository) Create(ctx context.Context, s *Space) error {
	query := `
		INSERT INTO spaces (slug, title, currency_name, daily_quota, eligible_roles,
		                    premoderation, is_global, treasury_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (slug) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		s.Slug, s.Title, s.CurrencyName, s.DailyQuota, s.EligibleRoles,
		s.Premoderation, s.IsGlobal, s.TreasuryUserID,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания пространства: %w", err)
	}
	return nil
}
