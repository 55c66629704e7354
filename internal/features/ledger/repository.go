// Package ledger — repository.go выполняет операции с таблицей transactions
// и кэшем publication_balances. Запись голоса и списание кошелька
// выполняются в одной транзакции БД для целостности данных.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"meritspace.ru/merit-bot/internal/common"
)

// Repository предоставляет методы для работы с журналом транзакций.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий журнала.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const txColumns = `id, op_id, tx_type, from_user_id, to_user_id,
	for_publication_id, for_transaction_id, direction_plus,
	amount, amount_free, currency_space_id, comment, created_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID, &t.OpID, &t.TxType, &t.FromUserID, &t.ToUserID,
		&t.ForPublicationID, &t.ForTransactionID, &t.DirectionPlus,
		&t.Amount, &t.AmountFree, &t.CurrencySpaceID, &t.Comment, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrTargetNotFound
		}
		return nil, fmt.Errorf("ошибка чтения транзакции: %w", err)
	}
	return &t, nil
}

// GetByID возвращает транзакцию по ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.db.QueryRow(ctx, query, id))
}

// AggregatePublication считает производный баланс публикации:
// суммы всех записей журнала, нацеленных на неё, по направлениям.
func (r *Repository) AggregatePublication(ctx context.Context, pubID int64) (*Balance, error) {
	query := `
		SELECT COALESCE(SUM(amount) FILTER (WHERE direction_plus), 0),
		       COALESCE(SUM(amount) FILTER (WHERE NOT direction_plus), 0)
		FROM transactions
		WHERE for_publication_id = $1
	`
	var b Balance
	if err := r.db.QueryRow(ctx, query, pubID).Scan(&b.Plus, &b.Minus); err != nil {
		return nil, fmt.Errorf("ошибка агрегации баланса публикации: %w", err)
	}
	return &b, nil
}

// AggregateTransaction считает производный баланс транзакции
// (голоса, на который голосовали в ответ).
func (r *Repository) AggregateTransaction(ctx context.Context, txID int64) (*Balance, error) {
	query := `
		SELECT COALESCE(SUM(amount) FILTER (WHERE direction_plus), 0),
		       COALESCE(SUM(amount) FILTER (WHERE NOT direction_plus), 0)
		FROM transactions
		WHERE for_transaction_id = $1
	`
	var b Balance
	if err := r.db.QueryRow(ctx, query, txID).Scan(&b.Plus, &b.Minus); err != nil {
		return nil, fmt.Errorf("ошибка агрегации баланса транзакции: %w", err)
	}
	return &b, nil
}

// SumFreeToday возвращает, сколько бесплатного лимита пользователь
// потратил в валюте пространства с начала суток.
func (r *Repository) SumFreeToday(ctx context.Context, userID, currencySpaceID int64, since time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_free), 0)
		FROM transactions
		WHERE from_user_id = $1 AND currency_space_id = $2
		  AND tx_type = $3 AND created_at >= $4
	`
	var spent int64
	err := r.db.QueryRow(ctx, query, userID, currencySpaceID, TxTypeVote, since).Scan(&spent)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта дневного лимита: %w", err)
	}
	return spent, nil
}

// AppendVote атомарно записывает голос: списывает часть из кошелька
// (если walletDebit > 0), добавляет запись журнала и обновляет кэш
// баланса публикации. Либо всё произойдёт, либо ничего.
func (r *Repository) AppendVote(ctx context.Context, t *Transaction, walletDebit decimal.Decimal) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if walletDebit.IsPositive() {
		// Условное списание: проверка и уменьшение баланса одним запросом,
		// иначе два параллельных голоса могут списать больше, чем есть
		tag, err := tx.Exec(ctx, `
			UPDATE wallets
			SET balance = balance - $3, version = version + 1, updated_at = NOW()
			WHERE user_id = $1 AND currency_space_id = $2 AND balance >= $3
		`, t.FromUserID, t.CurrencySpaceID, walletDebit)
		if err != nil {
			return 0, fmt.Errorf("ошибка списания кошелька: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return 0, common.ErrInsufficientFunds
		}
	}

	id, err := Insert(ctx, tx, t)
	if err != nil {
		return 0, err
	}

	if t.TargetsPublication() {
		if err := BumpPublicationCache(ctx, tx, *t.ForPublicationID, t.DirectionPlus, t.Amount); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка фиксации голоса: %w", err)
	}
	return id, nil
}

// ListByUser возвращает последние N транзакций пользователя,
// входящие и исходящие.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	query := `SELECT ` + txColumns + `
		FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var txs []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(
			&t.ID, &t.OpID, &t.TxType, &t.FromUserID, &t.ToUserID,
			&t.ForPublicationID, &t.ForTransactionID, &t.DirectionPlus,
			&t.Amount, &t.AmountFree, &t.CurrencySpaceID, &t.Comment, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}

// Insert добавляет запись журнала внутри открытой транзакции БД.
// Используется всеми денежными операциями (голос, вывод, обмен).
func Insert(ctx context.Context, tx pgx.Tx, t *Transaction) (int64, error) {
	query := `
		INSERT INTO transactions (op_id, tx_type, from_user_id, to_user_id,
		                          for_publication_id, for_transaction_id,
		                          direction_plus, amount, amount_free,
		                          currency_space_id, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var id int64
	err := tx.QueryRow(ctx, query,
		t.OpID, t.TxType, t.FromUserID, t.ToUserID,
		t.ForPublicationID, t.ForTransactionID,
		t.DirectionPlus, t.Amount, t.AmountFree,
		t.CurrencySpaceID, t.Comment,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	return id, nil
}

// BumpPublicationCache обновляет материализованный кэш баланса публикации.
// Кэш обслуживает только быстрые сканы (капитализация); все чтения
// баланса агрегируют журнал напрямую. Ночной пересчёт сверяет кэш
// с журналом (см. Reconcile).
func BumpPublicationCache(ctx context.Context, tx pgx.Tx, pubID int64, plus bool, amount decimal.Decimal) error {
	deltaPlus := amount
	deltaMinus := decimal.Zero
	if !plus {
		deltaPlus, deltaMinus = decimal.Zero, amount
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO publication_balances (publication_id, plus, minus, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (publication_id) DO UPDATE
		SET plus = publication_balances.plus + EXCLUDED.plus,
		    minus = publication_balances.minus + EXCLUDED.minus,
		    updated_at = NOW()
	`, pubID, deltaPlus, deltaMinus)
	if err != nil {
		return fmt.Errorf("ошибка обновления кэша баланса: %w", err)
	}
	return nil
}

// Reconcile пересчитывает кэш publication_balances точно по журналу.
// Возвращает число исправленных строк. Запускается кроном ночью.
func (r *Repository) Reconcile(ctx context.Context) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO publication_balances (publication_id, plus, minus, updated_at)
		SELECT for_publication_id,
		       COALESCE(SUM(amount) FILTER (WHERE direction_plus), 0),
		       COALESCE(SUM(amount) FILTER (WHERE NOT direction_plus), 0),
		       NOW()
		FROM transactions
		WHERE for_publication_id IS NOT NULL
		GROUP BY for_publication_id
		ON CONFLICT (publication_id) DO UPDATE
		SET plus = EXCLUDED.plus, minus = EXCLUDED.minus, updated_at = NOW()
		WHERE publication_balances.plus <> EXCLUDED.plus
		   OR publication_balances.minus <> EXCLUDED.minus
	`)
	if err != nil {
		return 0, fmt.Errorf("ошибка пересчёта кэша: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка фиксации пересчёта: %w", err)
	}
	return tag.RowsAffected(), nil
}
