// Package voting — handlers.go обрабатывает команды голосования:
// !голос и !минус (за публикацию), !поддержать и !осудить (за голос).
package voting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/publication"
	"meritspace.ru/merit-bot/internal/features/space"
)

// SpaceResolver — поиск пространства по короткому имени.
type SpaceResolver interface {
	GetBySlug(ctx context.Context, slug string) (*space.Space, error)
}

// PublicationResolver — поиск публикации по имени внутри пространства.
type PublicationResolver interface {
	GetBySlug(ctx context.Context, spaceID int64, slug string) (*publication.Publication, error)
}

// Handler обрабатывает команды голосования.
type Handler struct {
	service *Service
	spaces  SpaceResolver
	pubs    PublicationResolver
	bot     *telego.Bot
}

// NewHandler создаёт обработчик команд голосования.
func NewHandler(service *Service, spaces SpaceResolver, pubs PublicationResolver, bot *telego.Bot) *Handler {
	return &Handler{service: service, spaces: spaces, pubs: pubs, bot: bot}
}

// HandleVotePublication обрабатывает команды !голос и !минус.
//
// Формат: !голос пространство публикация сумма [комментарий]
//
// Ответ при успехе:
//
//	✅ Голос принят (+10), номер голоса: 42
func (h *Handler) HandleVotePublication(ctx context.Context, chatID, userID int64, args []string, plus bool) {
	if len(args) < 3 {
		h.sendMessage(ctx, chatID, "❌ Формат: !голос пространство публикация сумма [комментарий]")
		return
	}

	sp, err := h.spaces.GetBySlug(ctx, args[0])
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Пространство не найдено")
		return
	}

	pub, err := h.pubs.GetBySlug(ctx, sp.ID, args[1])
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Публикация не найдена")
		return
	}

	amount, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || amount <= 0 {
		h.sendMessage(ctx, chatID, "❌ Сумма должна быть положительным целым числом")
		return
	}

	comment := strings.Join(args[3:], " ")

	id, err := h.service.ForPublication(ctx, userID, pub.ID, amount, plus, comment)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	sign := "+"
	if !plus {
		sign = "-"
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Голос принят (%s%d), номер голоса: %d", sign, amount, id))
}

// HandleVoteTransaction обрабатывает команды !поддержать и !осудить —
// голос за более ранний голос по его номеру.
//
// Формат: !поддержать номер сумма [комментарий]
func (h *Handler) HandleVoteTransaction(ctx context.Context, chatID, userID int64, args []string, plus bool) {
	if len(args) < 2 {
		h.sendMessage(ctx, chatID, "❌ Формат: !поддержать номер-голоса сумма [комментарий]")
		return
	}

	txID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || txID <= 0 {
		h.sendMessage(ctx, chatID, "❌ Укажите номер голоса")
		return
	}

	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		h.sendMessage(ctx, chatID, "❌ Сумма должна быть положительным целым числом")
		return
	}

	comment := strings.Join(args[2:], " ")

	id, err := h.service.ForTransaction(ctx, userID, txID, amount, plus, comment)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	sign := "+"
	if !plus {
		sign = "-"
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Голос принят (%s%d), номер голоса: %d", sign, amount, id))
}

// replyError переводит ошибки движка в понятные сообщения.
func (h *Handler) replyError(ctx context.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrSelfVote):
		h.sendMessage(ctx, chatID, "❌ Нельзя голосовать за собственный контент")
	case errors.Is(err, common.ErrInsufficientFunds):
		h.sendMessage(ctx, chatID, "❌ Не хватает лимита и средств в кошельке")
	case errors.Is(err, common.ErrPublicationPending):
		h.sendMessage(ctx, chatID, "❌ Публикация ещё не прошла модерацию")
	case errors.Is(err, common.ErrNestedTooDeep):
		h.sendMessage(ctx, chatID, "❌ Голосовать можно за публикацию или за голос по ней, глубже нельзя")
	case errors.Is(err, common.ErrTargetNotFound):
		h.sendMessage(ctx, chatID, "❌ Цель голоса не найдена")
	case errors.Is(err, common.ErrInvalidAmount):
		h.sendMessage(ctx, chatID, "❌ Сумма должна быть положительной")
	default:
		log.WithError(err).Error("Ошибка записи голоса")
		h.sendMessage(ctx, chatID, "❌ Ошибка записи голоса")
	}
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
