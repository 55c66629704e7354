// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/bot"
	"meritspace.ru/merit-bot/internal/bot/filters"
	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/config"
	"meritspace.ru/merit-bot/internal/db/postgres"
	"meritspace.ru/merit-bot/internal/features/exchange"
	"meritspace.ru/merit-bot/internal/features/ledger"
	"meritspace.ru/merit-bot/internal/features/member"
	"meritspace.ru/merit-bot/internal/features/moderation"
	"meritspace.ru/merit-bot/internal/features/publication"
	"meritspace.ru/merit-bot/internal/features/quota"
	"meritspace.ru/merit-bot/internal/features/space"
	"meritspace.ru/merit-bot/internal/features/voting"
	"meritspace.ru/merit-bot/internal/features/wallet"
	"meritspace.ru/merit-bot/internal/features/withdraw"
	"meritspace.ru/merit-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	API       *telego.Bot
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	api, err := telego.NewBot(cfg.TelegramBotToken,
		telego.WithDefaultLogger(cfg.AppEnv == "development", true))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := api.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка авторизации бота: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	loc := common.DefaultLocation(cfg.AppTimezone)

	// === 3. Репозитории ===
	memberRepo := member.NewRepository(pool)
	spaceRepo := space.NewRepository(pool)
	pubRepo := publication.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)
	walletRepo := wallet.NewRepository(pool)
	withdrawRepo := withdraw.NewRepository(pool)
	exchangeRepo := exchange.NewRepository(pool)
	moderationRepo := moderation.NewRepository(pool)

	// === 4. Сервисы ===
	memberService := member.NewService(memberRepo)
	spaceService := space.NewService(spaceRepo, cfg.LedgerDefaultDailyQuota)
	pubService := publication.NewService(pubRepo, spaceService)
	walletService := wallet.NewService(walletRepo)
	quotaService := quota.NewService(ledgerRepo, memberRepo, loc)
	ledgerService := ledger.NewService(ledgerRepo, pubRepo)
	votingService := voting.NewService(ledgerRepo, pubRepo, spaceService, quotaService)
	withdrawService := withdraw.NewService(withdrawRepo, pubRepo, ledgerRepo)
	exchangeService := exchange.NewService(exchangeRepo, walletRepo, spaceService, cfg.LedgerExchangeRetries)
	moderationService := moderation.NewService(moderationRepo, pubService, memberService, cfg)

	// === 5. Обработчики ===
	walletHandler := wallet.NewHandler(walletService, spaceService, api)
	quotaHandler := quota.NewHandler(quotaService, spaceService, api)
	votingHandler := voting.NewHandler(votingService, spaceService, pubService, api)
	ledgerHandler := ledger.NewHandler(ledgerService, spaceService, pubService, api, loc)
	withdrawHandler := withdraw.NewHandler(withdrawService, spaceService, pubService, api)
	exchangeHandler := exchange.NewHandler(exchangeService, spaceService, api)
	pubHandler := publication.NewHandler(pubService, spaceService, memberService, api)
	moderationHandler := moderation.NewHandler(moderationService, spaceService, memberService, api, cfg.AdminIDs)

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.CommunityChatID, memberService, api)

	// === 7. Собираем бота ===
	b := bot.New(
		api, cfg,
		memberService,
		walletHandler,
		quotaHandler,
		votingHandler,
		ledgerHandler,
		withdrawHandler,
		exchangeHandler,
		pubHandler,
		moderationHandler,
		chatFilter,
	)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(ledgerRepo, loc)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		API:       api,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Members},
		{2, migration002Spaces},
		{3, migration003Publications},
		{4, migration004Transactions},
		{5, migration005Wallets},
		{6, migration006Moderation},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Members = `
CREATE TABLE IF NOT EXISTS members (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255),
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255),
    role VARCHAR(64) NOT NULL DEFAULT 'участник',
    is_banned BOOLEAN DEFAULT FALSE,
    joined_at TIMESTAMP DEFAULT NOW(),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_members_user_id ON members(user_id);
CREATE INDEX IF NOT EXISTS idx_members_username ON members(username);
`

var migration002Spaces = `
CREATE TABLE IF NOT EXISTS spaces (
    id BIGSERIAL PRIMARY KEY,
    slug VARCHAR(64) UNIQUE NOT NULL,
    title VARCHAR(255) NOT NULL,
    currency_name VARCHAR(64) NOT NULL,
    daily_quota BIGINT NOT NULL DEFAULT 10,
    eligible_roles TEXT[] NOT NULL DEFAULT '{}',
    premoderation BOOLEAN NOT NULL DEFAULT FALSE,
    is_global BOOLEAN NOT NULL DEFAULT FALSE,
    treasury_user_id BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_spaces_global ON spaces(is_global) WHERE is_global = TRUE;

-- Глобальное пространство платформы: валюта «мериты».
-- В глобальном пространстве нет дневного лимита и обмена.
INSERT INTO spaces (slug, title, currency_name, daily_quota, is_global)
VALUES ('merits', 'Мериты', 'меритов', 0, TRUE)
ON CONFLICT (slug) DO NOTHING;
`

var migration003Publications = `
CREATE TABLE IF NOT EXISTS publications (
    id BIGSERIAL PRIMARY KEY,
    slug VARCHAR(255) NOT NULL,
    author_id BIGINT NOT NULL REFERENCES members(user_id),
    beneficiary_id BIGINT REFERENCES members(user_id),
    space_id BIGINT NOT NULL REFERENCES spaces(id),
    status VARCHAR(20) NOT NULL DEFAULT 'approved',
    created_at TIMESTAMP DEFAULT NOW(),
    UNIQUE (space_id, slug)
);
CREATE INDEX IF NOT EXISTS idx_publications_space_status ON publications(space_id, status);
CREATE INDEX IF NOT EXISTS idx_publications_author ON publications(author_id);
`

var migration004Transactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    op_id UUID,
    tx_type VARCHAR(20) NOT NULL,
    from_user_id BIGINT NOT NULL REFERENCES members(user_id),
    to_user_id BIGINT REFERENCES members(user_id),
    for_publication_id BIGINT REFERENCES publications(id),
    for_transaction_id BIGINT REFERENCES transactions(id),
    direction_plus BOOLEAN NOT NULL,
    amount NUMERIC(30, 10) NOT NULL CHECK (amount > 0),
    amount_free BIGINT NOT NULL DEFAULT 0 CHECK (amount_free >= 0),
    currency_space_id BIGINT NOT NULL REFERENCES spaces(id),
    comment TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT NOW(),
    -- Цель — не больше одной: публикация или транзакция
    CHECK (for_publication_id IS NULL OR for_transaction_id IS NULL)
);
CREATE INDEX IF NOT EXISTS idx_transactions_for_publication ON transactions(for_publication_id)
    WHERE for_publication_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_transactions_for_transaction ON transactions(for_transaction_id)
    WHERE for_transaction_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_transactions_daily_quota
    ON transactions(from_user_id, currency_space_id, tx_type, created_at);
CREATE INDEX IF NOT EXISTS idx_transactions_to_user ON transactions(to_user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_op_id ON transactions(op_id) WHERE op_id IS NOT NULL;
`

var migration005Wallets = `
CREATE TABLE IF NOT EXISTS wallets (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    currency_space_id BIGINT NOT NULL REFERENCES spaces(id),
    balance NUMERIC(30, 10) NOT NULL DEFAULT 0 CHECK (balance >= 0),
    version BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    UNIQUE (user_id, currency_space_id)
);

-- Материализованный кэш балансов публикаций. Обслуживает только
-- быстрые сканы капитализации; чтения балансов агрегируют журнал.
CREATE TABLE IF NOT EXISTS publication_balances (
    publication_id BIGINT PRIMARY KEY REFERENCES publications(id),
    plus NUMERIC(30, 10) NOT NULL DEFAULT 0,
    minus NUMERIC(30, 10) NOT NULL DEFAULT 0,
    updated_at TIMESTAMP DEFAULT NOW()
);
`

var migration006Moderation = `
CREATE TABLE IF NOT EXISTS moderator_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT REFERENCES members(user_id),
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_moderator_sessions_user_id ON moderator_sessions(user_id);
CREATE TABLE IF NOT EXISTS moderator_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
`
