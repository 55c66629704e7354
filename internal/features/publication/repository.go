// Package publication — repository.go выполняет операции с таблицей publications.
package publication

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"meritspace.ru/merit-bot/internal/common"
)

// Repository работает с таблицей publications.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий публикаций.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const pubColumns = `id, slug, author_id, beneficiary_id, space_id, status, created_at`

func scanPublication(row pgx.Row) (*Publication, error) {
	var p Publication
	err := row.Scan(&p.ID, &p.Slug, &p.AuthorID, &p.BeneficiaryID, &p.SpaceID, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrTargetNotFound
		}
		return nil, fmt.Errorf("ошибка чтения публикации: %w", err)
	}
	return &p, nil
}

// Create сохраняет новую публикацию и возвращает её ID.
func (r *Repository) Create(ctx context.Context, p *Publication) (int64, error) {
	query := `
		INSERT INTO publications (slug, author_id, beneficiary_id, space_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query, p.Slug, p.AuthorID, p.BeneficiaryID, p.SpaceID, p.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания публикации: %w", err)
	}
	return id, nil
}

// GetByID возвращает публикацию по ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Publication, error) {
	query := `SELECT ` + pubColumns + ` FROM publications WHERE id = $1`
	return scanPublication(r.db.QueryRow(ctx, query, id))
}

// GetBySlug возвращает публикацию по короткому имени внутри пространства.
func (r *Repository) GetBySlug(ctx context.Context, spaceID int64, slug string) (*Publication, error) {
	query := `SELECT ` + pubColumns + ` FROM publications WHERE space_id = $1 AND slug = $2`
	return scanPublication(r.db.QueryRow(ctx, query, spaceID, slug))
}

// ListPending возвращает публикации, ожидающие модерации.
func (r *Repository) ListPending(ctx context.Context, spaceID int64) ([]*Publication, error) {
	query := `SELECT ` + pubColumns + ` FROM publications
		WHERE space_id = $1 AND status = $2 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, spaceID, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения публикаций: %w", err)
	}
	defer rows.Close()

	var pubs []*Publication
	for rows.Next() {
		var p Publication
		if err := rows.Scan(&p.ID, &p.Slug, &p.AuthorID, &p.BeneficiaryID, &p.SpaceID, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования публикации: %w", err)
		}
		pubs = append(pubs, &p)
	}
	return pubs, rows.Err()
}

// SetStatus переводит публикацию в новый статус.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE publications SET status = $2 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("ошибка смены статуса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrTargetNotFound
	}
	return nil
}
