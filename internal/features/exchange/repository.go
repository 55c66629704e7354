// Package exchange — repository.go выполняет расчёт капитализации
// и атомарное проведение обмена валюты пространства на мериты.
package exchange

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/ledger"
)

// Repository выполняет операции обмена.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий обмена.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Capitalization возвращает внутренний экономический объём пространства:
// сумму (плюсы − минусы) по всем его публикациям. Выводы уже отражены
// в кэше минус-записями, поэтому итог нетто от выведенного.
// Кэш сверяется с журналом ночным пересчётом (ledger.Reconcile).
func (r *Repository) Capitalization(ctx context.Context, spaceID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(pb.plus - pb.minus), 0)
		FROM publication_balances pb
		JOIN publications p ON p.id = pb.publication_id
		WHERE p.space_id = $1
	`
	var cap decimal.Decimal
	if err := r.db.QueryRow(ctx, query, spaceID).Scan(&cap); err != nil {
		return decimal.Zero, fmt.Errorf("ошибка расчёта капитализации: %w", err)
	}
	return cap, nil
}

// ExecuteExchange атомарно проводит обмен: оптимистично списывает
// исходный кошелёк (по ожидаемой версии), зачисляет мериты и
// добавляет обе ноги операции в журнал. Возвращает новый баланс
// кошелька меритов.
//
// Если версия кошелька изменилась между чтением и списанием —
// возвращает ErrConcurrencyConflict, вызывающий повторяет операцию.
func (r *Repository) ExecuteExchange(ctx context.Context, out, in *ledger.Transaction, expectedVersion int64) (decimal.Decimal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE wallets
		SET balance = balance - $3, version = version + 1, updated_at = NOW()
		WHERE user_id = $1 AND currency_space_id = $2
		  AND version = $4 AND balance >= $3
	`, out.FromUserID, out.CurrencySpaceID, out.Amount, expectedVersion)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка списания при обмене: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return decimal.Zero, common.ErrConcurrencyConflict
	}

	var newBalance decimal.Decimal
	err = tx.QueryRow(ctx, `
		INSERT INTO wallets (user_id, currency_space_id, balance, version)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (user_id, currency_space_id) DO UPDATE
		SET balance = wallets.balance + EXCLUDED.balance,
		    version = wallets.version + 1,
		    updated_at = NOW()
		RETURNING balance
	`, in.FromUserID, in.CurrencySpaceID, in.Amount).Scan(&newBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка зачисления меритов: %w", err)
	}

	if _, err := ledger.Insert(ctx, tx, out); err != nil {
		return decimal.Zero, err
	}
	if _, err := ledger.Insert(ctx, tx, in); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("ошибка фиксации обмена: %w", err)
	}
	return newBalance, nil
}
