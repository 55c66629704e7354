// Package withdraw — repository.go выполняет атомарный вывод и пополнение.
// Проверка баланса, запись журнала и изменение кошелька составляют
// одну транзакцию БД; цель блокируется FOR UPDATE, чтобы два
// параллельных вывода не прошли проверку одновременно.
package withdraw

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/ledger"
)

// Repository выполняет операции вывода и пополнения.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий выводов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// WithdrawFromPublication переносит часть накопленного балансa публикации
// в кошелёк пользователя. t — минус-запись журнала (tx_type withdraw),
// кошелёк пополняется на ту же сумму.
func (r *Repository) WithdrawFromPublication(ctx context.Context, t *ledger.Transaction) error {
	return r.withdraw(ctx, t, true)
}

// WithdrawFromTransaction — то же для голоса-цели.
func (r *Repository) WithdrawFromTransaction(ctx context.Context, t *ledger.Transaction) error {
	return r.withdraw(ctx, t, false)
}

func (r *Repository) withdraw(ctx context.Context, t *ledger.Transaction, pubTarget bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	sum, err := lockAndSum(ctx, tx, t, pubTarget)
	if err != nil {
		return err
	}
	// Снять можно не больше накопленного итога:
	// плюсы минус минусы минус прежние выводы
	if sum.LessThan(t.Amount) {
		return common.ErrInsufficientBalance
	}

	if _, err := ledger.Insert(ctx, tx, t); err != nil {
		return err
	}

	if pubTarget {
		if err := ledger.BumpPublicationCache(ctx, tx, *t.ForPublicationID, false, t.Amount); err != nil {
			return err
		}
	}

	// Зачисляем ровно ту же сумму в кошелёк выводящего
	if err := creditWallet(ctx, tx, t.FromUserID, t.CurrencySpaceID, t.Amount); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации вывода: %w", err)
	}
	return nil
}

// TopUpPublication возвращает средства из кошелька на публикацию:
// условное списание кошелька и плюс-запись журнала на цель.
func (r *Repository) TopUpPublication(ctx context.Context, t *ledger.Transaction) error {
	return r.topUp(ctx, t, true)
}

// TopUpTransaction — то же для голоса-цели.
func (r *Repository) TopUpTransaction(ctx context.Context, t *ledger.Transaction) error {
	return r.topUp(ctx, t, false)
}

func (r *Repository) topUp(ctx context.Context, t *ledger.Transaction, pubTarget bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE wallets
		SET balance = balance - $3, version = version + 1, updated_at = NOW()
		WHERE user_id = $1 AND currency_space_id = $2 AND balance >= $3
	`, t.FromUserID, t.CurrencySpaceID, t.Amount)
	if err != nil {
		return fmt.Errorf("ошибка списания кошелька: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrInsufficientBalance
	}

	if _, err := ledger.Insert(ctx, tx, t); err != nil {
		return err
	}

	if pubTarget {
		if err := ledger.BumpPublicationCache(ctx, tx, *t.ForPublicationID, true, t.Amount); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации пополнения: %w", err)
	}
	return nil
}

// lockAndSum блокирует строку цели и пересчитывает её итог
// внутри открытой транзакции БД.
func lockAndSum(ctx context.Context, tx pgx.Tx, t *ledger.Transaction, pubTarget bool) (decimal.Decimal, error) {
	var lockQuery, sumQuery string
	var targetID int64
	if pubTarget {
		lockQuery = `SELECT id FROM publications WHERE id = $1 FOR UPDATE`
		sumQuery = `
			SELECT COALESCE(SUM(CASE WHEN direction_plus THEN amount ELSE -amount END), 0)
			FROM transactions WHERE for_publication_id = $1`
		targetID = *t.ForPublicationID
	} else {
		lockQuery = `SELECT id FROM transactions WHERE id = $1 FOR UPDATE`
		sumQuery = `
			SELECT COALESCE(SUM(CASE WHEN direction_plus THEN amount ELSE -amount END), 0)
			FROM transactions WHERE for_transaction_id = $1`
		targetID = *t.ForTransactionID
	}

	var id int64
	if err := tx.QueryRow(ctx, lockQuery, targetID).Scan(&id); err != nil {
		return decimal.Zero, fmt.Errorf("цель вывода не найдена: %w", err)
	}

	var sum decimal.Decimal
	if err := tx.QueryRow(ctx, sumQuery, targetID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("ошибка пересчёта баланса цели: %w", err)
	}
	return sum, nil
}

// creditWallet пополняет кошелёк внутри открытой транзакции БД,
// создавая запись при необходимости.
func creditWallet(ctx context.Context, tx pgx.Tx, userID, currencySpaceID int64, amount decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO wallets (user_id, currency_space_id, balance, version)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (user_id, currency_space_id) DO UPDATE
		SET balance = wallets.balance + EXCLUDED.balance,
		    version = wallets.version + 1,
		    updated_at = NOW()
	`, userID, currencySpaceID, amount)
	if err != nil {
		return fmt.Errorf("ошибка пополнения кошелька: %w", err)
	}
	return nil
}
