// Package quota — handlers.go обрабатывает команду !лимит:
// показывает остаток бесплатного дневного лимита голосования.
package quota

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
}

// Handler обрабатывает команды лимита.
type Handler struct {
	service *Service
	spaces  SpaceResolver
	bot     *telego.Bot
}

// NewHandler создаёт обработчик команд лимита.
func NewHandler(service *Service, spaces SpaceResolver, bot *telego.Bot) *Handler {
	return &Handler{service: service, spaces: spaces, bot: bot}
}

// HandleLimit обрабатывает команду !лимит <пространство>.
//
// Формат ответа:
//
//	🗳 Осталось 7 из 10 голосов на сегодня
func (h *Handler) HandleLimit(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(ctx, chatID, "❌ Формат: !лимит пространство")
		return
	}

	sp, err := h.spaces.GetBySlug(ctx, args[0])
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Пространство не найдено")
		return
	}

	remaining, err := h.service.Remaining(ctx, userID, sp)
	if err != nil {
		log.WithError(err).Error("Ошибка расчёта лимита")
		h.sendMessage(ctx, chatID, "❌ Ошибка расчёта лимита")
		return
	}

	text := fmt.Sprintf("🗳 Осталось %d из %d %s на сегодня",
		remaining, sp.DailyQuota, common.PluralizeVotes(sp.DailyQuota))
	h.sendMessage(ctx, chatID, text)
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
