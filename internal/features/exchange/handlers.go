// Package exchange — handlers.go обрабатывает команды обмена:
// !курс, !обмен, !капитализация.
package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/space"
)

// SpaceResolver — поиск пространства по короткому имени.
type SpaceResolver interface {
	GetBySlug(ctx context.Context, slug string) (*space.Space, error)
}

// Handler обрабатывает команды обмена.
type Handler struct {
	service *Service
	spaces  SpaceResolver
	bot     *telego.Bot
}

// NewHandler создаёт обработчик команд обмена.
func NewHandler(service *Service, spaces SpaceResolver, bot *telego.Bot) *Handler {
	return &Handler{service: service, spaces: spaces, bot: bot}
}

// HandleRate обрабатывает команду !курс <пространство>.
//
// Формат ответа:
//
//	💱 Курс: 1 пленка = 1.5 мерита
func (h *Handler) HandleRate(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(ctx, chatID, "❌ Формат: !курс пространство")
		return
	}

	sp, err := h.spaces.GetBySlug(ctx, args[0])
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Пространство не найдено")
		return
	}

	rate, err := h.service.Rate(ctx, sp.ID)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("💱 Курс: 1 %s = %s мерита",
		sp.CurrencyName, common.FormatAmount(rate)))
}

// HandleExchange обрабатывает команду !обмен <пространство> <сумма> —
// обмен валюты пространства на мериты по текущему курсу.
func (h *Handler) HandleExchange(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(ctx, chatID, "❌ Формат: !обмен пространство сумма")
		return
	}

	sp, err := h.spaces.GetBySlug(ctx, args[0])
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Пространство не найдено")
		return
	}

	amount, err := decimal.NewFromString(args[1])
	if err != nil || !amount.IsPositive() {
		h.sendMessage(ctx, chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	newBalance, err := h.service.ToMerits(ctx, userID, sp.ID, amount)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Обменяно %s\nБаланс меритов: %s",
		common.FormatCurrency(amount, sp.CurrencyName), common.FormatAmount(newBalance)))
}

// HandleCapitalization обрабатывает команду !капитализация <пространство>.
func (h *Handler) HandleCapitalization(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(ctx, chatID, "❌ Формат: !капитализация пространство")
		return
	}

	sp, err := h.spaces.GetBySlug(ctx, args[0])
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Пространство не найдено")
		return
	}

	capitalization, err := h.service.Capitalization(ctx, sp.ID)
	if err != nil {
		log.WithError(err).Error("Ошибка расчёта капитализации")
		h.sendMessage(ctx, chatID, "❌ Ошибка расчёта капитализации")
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("🏛 Капитализация: %s",
		common.FormatCurrency(capitalization, sp.CurrencyName)))
}

// replyError переводит ошибки движка в понятные сообщения.
func (h *Handler) replyError(ctx context.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrExchangeUnavailable):
		h.sendMessage(ctx, chatID, "❌ Обмен для этого пространства сейчас недоступен")
	case errors.Is(err, common.ErrInsufficientBalance):
		h.sendMessage(ctx, chatID, "❌ Недостаточно средств в кошельке")
	case errors.Is(err, common.ErrConcurrencyConflict):
		h.sendMessage(ctx, chatID, "❌ Кошелёк занят другой операцией, попробуйте ещё раз")
	case errors.Is(err, common.ErrInvalidAmount):
		h.sendMessage(ctx, chatID, "❌ Сумма должна быть положительной")
	default:
		log.WithError(err).Error("Ошибка обмена")
		h.sendMessage(ctx, chatID, "❌ Ошибка выполнения обмена")
	}
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
