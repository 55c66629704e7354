// Package wallet — handlers.go обрабатывает команду !кошелек:
// показывает баланс пользователя в валюте пространства.
package wallet

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/space"
)

// SpaceResolver — поиск пространства по короткому имени.
type SpaceResolver interface {
	GetBySlug(ctx context.Context, slug string) (*space.Space, error)
	GetGlobal(ctx context.Context) (*space.Space, error)
}

// Handler обрабатывает команды кошелька.
type Handler struct {
	service *Service
	spaces  SpaceResolver
	bot     *telego.Bot
}

// NewHandler создаёт обработчик команд кошелька.
func NewHandler(service *Service, spaces SpaceResolver, bot *telego.Bot) *Handler {
	return &Handler{service: service, spaces: spaces, bot: bot}
}

// HandleWallet обрабатывает команду !кошелек [пространство].
// Без аргумента показывает баланс меритов.
//
// Формат ответа:
//
//	💰 Баланс: 150 меритов
func (h *Handler) HandleWallet(ctx context.Context, chatID, userID int64, args []string) {
	var sp *space.Space
	var err error
	if len(args) == 0 {
		sp, err = h.spaces.GetGlobal(ctx)
	} else {
		sp, err = h.spaces.GetBySlug(ctx, args[0])
	}
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Пространство не найдено")
		return
	}

	balance, err := h.service.GetBalance(ctx, userID, sp.ID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса кошелька")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения баланса")
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("💰 Баланс: %s", common.FormatCurrency(balance, sp.CurrencyName)))
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
