// Package wallet — repository.go выполняет операции с таблицей wallets.
// Денежные мутации кошельков выполняются внутри транзакций БД
// соответствующих операций (голос, вывод, обмен) в их репозиториях;
// здесь — чтение и создание записей.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"meritspace.ru/merit-bot/internal/common"
)

// Repository предоставляет методы для работы с таблицей wallets.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий кошельков.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Ensure гарантирует, что у пользователя есть кошелёк в валюте.
// Создаёт запись с нулевым балансом, если её нет.
func (r *Repository) Ensure(ctx context.Context, userID, currencySpaceID int64) error {
	query := `
		INSERT INTO wallets (user_id, currency_space_id, balance, version)
		VALUES ($1, $2, 0, 0)
		ON CONFLICT (user_id, currency_space_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, userID, currencySpaceID)
	if err != nil {
		return fmt.Errorf("ошибка создания кошелька: %w", err)
	}
	return nil
}

// GetBalance возвращает баланс кошелька.
// Отсутствие записи — нулевой баланс, не ошибка.
func (r *Repository) GetBalance(ctx context.Context, userID, currencySpaceID int64) (decimal.Decimal, error) {
	query := `SELECT balance FROM wallets WHERE user_id = $1 AND currency_space_id = $2`
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, query, userID, currencySpaceID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// Get возвращает кошелёк с версией для оптимистичного обновления.
func (r *Repository) Get(ctx context.Context, userID, currencySpaceID int64) (*Wallet, error) {
	query := `
		SELECT id, user_id, currency_space_id, balance, version, created_at, updated_at
		FROM wallets WHERE user_id = $1 AND currency_space_id = $2
	`
	var w Wallet
	err := r.db.QueryRow(ctx, query, userID, currencySpaceID).Scan(
		&w.ID, &w.UserID, &w.CurrencySpaceID, &w.Balance, &w.Version,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrTargetNotFound
		}
		return nil, fmt.Errorf("ошибка чтения кошелька: %w", err)
	}
	return &w, nil
}
