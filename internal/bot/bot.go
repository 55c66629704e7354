// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go подключает обработчики и запускает long polling.
package bot

import (
	"context"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/bot/filters"
	"meritspace.ru/merit-bot/internal/bot/middleware"
	"meritspace.ru/merit-bot/internal/config"
	"meritspace.ru/merit-bot/internal/features/exchange"
	"meritspace.ru/merit-bot/internal/features/ledger"
	"meritspace.ru/merit-bot/internal/features/member"
	"meritspace.ru/merit-bot/internal/features/moderation"
	"meritspace.ru/merit-bot/internal/features/publication"
	"meritspace.ru/merit-bot/internal/features/quota"
	"meritspace.ru/merit-bot/internal/features/voting"
	"meritspace.ru/merit-bot/internal/features/wallet"
	"meritspace.ru/merit-bot/internal/features/withdraw"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *telego.Bot
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	memberService *member.Service

	walletHandler      *wallet.Handler
	quotaHandler       *quota.Handler
	votingHandler      *voting.Handler
	ledgerHandler      *ledger.Handler
	withdrawHandler    *withdraw.Handler
	exchangeHandler    *exchange.Handler
	publicationHandler *publication.Handler
	moderationHandler  *moderation.Handler

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	memberService *member.Service,
	walletHandler *wallet.Handler,
	quotaHandler *quota.Handler,
	votingHandler *voting.Handler,
	ledgerHandler *ledger.Handler,
	withdrawHandler *withdraw.Handler,
	exchangeHandler *exchange.Handler,
	publicationHandler *publication.Handler,
	moderationHandler *moderation.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:                api,
		cfg:                cfg,
		chatFilter:         chatFilter,
		rateLimiter:        middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		memberService:      memberService,
		walletHandler:      walletHandler,
		quotaHandler:       quotaHandler,
		votingHandler:      votingHandler,
		ledgerHandler:      ledgerHandler,
		withdrawHandler:    withdrawHandler,
		exchangeHandler:    exchangeHandler,
		publicationHandler: publicationHandler,
		moderationHandler:  moderationHandler,
		parser:             NewCommandParser(),
		inflight:           make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
// Блокируется до отмены контекста.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.cfg.BotUpdateTimeoutSeconds,
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.rateLimiter.Close()
			return nil

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.rateLimiter.Close()
				return nil
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd telego.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil || update.Message.Text == "" {
		return
	}

	message := update.Message

	// Логируем входящее
	middleware.LogMessage(message)

	// Проверяем доступ (чат сообщества или DM участника)
	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	// Rate limiting
	if message.From != nil && !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	// EnsureMember — ошибки нельзя игнорировать, иначе потом будет "оно не работает"
	if err := b.memberService.EnsureMember(ctx, userID,
		message.From.Username, message.From.FirstName, message.From.LastName,
	); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureMember failed")
	}

	// В DM проверяем модераторские команды
	if b.cfg.FeatureModerationEnabled && message.Chat.Type == telego.ChatTypePrivate {
		if b.moderationHandler.HandleModerationMessage(ctx, chatID, userID, message.Text) {
			return
		}
	}

	// Парсим команду
	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}

	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	b.routeCommand(ctx, chatID, userID, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	switch cmd {
	case "start", "help", "помощь":
		b.sendMessage(ctx, chatID, helpText(b.cfg.FeatureExchangeEnabled))

	case "кошелек", "кошелёк":
		b.walletHandler.HandleWallet(ctx, chatID, userID, args)

	case "лимит":
		b.quotaHandler.HandleLimit(ctx, chatID, userID, args)

	case "голос":
		b.votingHandler.HandleVotePublication(ctx, chatID, userID, args, true)

	case "минус":
		b.votingHandler.HandleVotePublication(ctx, chatID, userID, args, false)

	case "поддержать":
		b.votingHandler.HandleVoteTransaction(ctx, chatID, userID, args, true)

	case "осудить":
		b.votingHandler.HandleVoteTransaction(ctx, chatID, userID, args, false)

	case "баланс":
		b.ledgerHandler.HandleBalancePublication(ctx, chatID, args)

	case "балансголоса":
		b.ledgerHandler.HandleBalanceTransaction(ctx, chatID, args)

	case "транзакции":
		b.ledgerHandler.HandleHistory(ctx, chatID, userID)

	case "вывод":
		b.withdrawHandler.HandleWithdrawPublication(ctx, chatID, userID, args, false)

	case "пополнить":
		b.withdrawHandler.HandleWithdrawPublication(ctx, chatID, userID, args, true)

	case "выводголоса":
		b.withdrawHandler.HandleWithdrawTransaction(ctx, chatID, userID, args, false)

	case "пополнитьголос":
		b.withdrawHandler.HandleWithdrawTransaction(ctx, chatID, userID, args, true)

	case "публикация":
		b.publicationHandler.HandlePublish(ctx, chatID, userID, args, b.isAdmin(userID))

	case "курс":
		if b.cfg.FeatureExchangeEnabled {
			b.exchangeHandler.HandleRate(ctx, chatID, args)
		} else {
			b.sendMessage(ctx, chatID, "💱 Обмен временно отключён")
		}

	case "обмен":
		if b.cfg.FeatureExchangeEnabled {
			b.exchangeHandler.HandleExchange(ctx, chatID, userID, args)
		} else {
			b.sendMessage(ctx, chatID, "💱 Обмен временно отключён")
		}

	case "капитализация":
		if b.cfg.FeatureExchangeEnabled {
			b.exchangeHandler.HandleCapitalization(ctx, chatID, args)
		}
	}
}

// isAdmin проверяет, входит ли пользователь в список модераторов.
func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.cfg.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// helpText собирает справку по командам.
func helpText(exchangeEnabled bool) string {
	text := `Команды:
!кошелек [пространство] — баланс кошелька
!лимит <пространство> — остаток дневного лимита
!голос / !минус <пространство> <публикация> <сумма> — голос за публикацию
!поддержать / !осудить <номер> <сумма> — голос за голос
!баланс <пространство> <публикация> — баланс публикации
!балансголоса <номер> — баланс голоса
!транзакции — история операций
!вывод / !пополнить <пространство> <публикация> <сумма>
!выводголоса / !пополнитьголос <номер> <сумма>
!публикация <пространство> <имя> [@бенефициар]`

	if exchangeEnabled {
		text += `
!курс <пространство> — курс обмена на мериты
!обмен <пространство> <сумма> — обмен на мериты
!капитализация <пространство>`
	}
	return text
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет сообщение пользователю (для уведомлений).
func (b *Bot) SendMessageToUser(ctx context.Context, userID int64, text string) {
	if _, err := b.api.SendMessage(ctx, tu.Message(tu.ID(userID), text)); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
	}
}

// CommandParser парсит русские команды с префиксами !, . и /
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	text = strings.TrimSpace(text)
	parts := strings.Fields(text)

	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
