// Package withdraw — handlers.go обрабатывает команды вывода и пополнения:
// !вывод, !пополнить (публикации), !выводголоса, !пополнитьголос.
package withdraw

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

// Handler обрабатывает команды вывода.
type Handler struct {
	service *Service
	spaces  SpaceResolver
	pubs    PublicationResolver
	bot     *telego.Bot
}

// NewHandler создаёт обработчик команд вывода.
func NewHandler(service *Service, spaces SpaceResolver, pubs PublicationResolver, bot *telego.Bot) *Handler {
	return &Handler{service: service, spaces: spaces, pubs: pubs, bot: bot}
}

// HandleWithdrawPublication обрабатывает !вывод и !пополнить.
//
// Формат: !вывод пространство публикация сумма [комментарий]
//
// topUp = true — обратная операция: средства из кошелька
// возвращаются на публикацию.
func (h *Handler) HandleWithdrawPublication(ctx context.Context, chatID, userID int64, args []string, topUp bool) {
	if len(args) < 3 {
		h.sendMessage(ctx, chatID, "❌ Формат: !вывод пространство публикация сумма [комментарий]")
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

	if err := h.service.FromPublication(ctx, userID, pub.ID, amount, topUp, comment); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	if topUp {
		h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Публикация пополнена на %d", amount))
	} else {
		h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Выведено %d в кошелёк", amount))
	}
}

// HandleWithdrawTransaction обрабатывает !выводголоса и !пополнитьголос —
// те же операции для голоса-цели по его номеру.
//
// Формат: !выводголоса номер сумма [комментарий]
func (h *Handler) HandleWithdrawTransaction(ctx context.Context, chatID, userID int64, args []string, topUp bool) {
	if len(args) < 2 {
		h.sendMessage(ctx, chatID, "❌ Формат: !выводголоса номер сумма [комментарий]")
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

	if err := h.service.FromTransaction(ctx, userID, txID, amount, topUp, comment); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	if topUp {
		h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Голос №%d пополнен на %d", txID, amount))
	} else {
		h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Выведено %d в кошелёк", amount))
	}
}

// replyError переводит ошибки движка в понятные сообщения.
func (h *Handler) replyError(ctx context.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrNotAuthorized):
		h.sendMessage(ctx, chatID, "❌ Операция доступна только получателю средств")
	case errors.Is(err, common.ErrInsufficientBalance):
		h.sendMessage(ctx, chatID, "❌ Недостаточный баланс")
	case errors.Is(err, common.ErrTargetNotFound):
		h.sendMessage(ctx, chatID, "❌ Цель операции не найдена")
	case errors.Is(err, common.ErrInvalidAmount):
		h.sendMessage(ctx, chatID, "❌ Сумма должна быть положительной")
	default:
		log.WithError(err).Error("Ошибка вывода")
		h.sendMessage(ctx, chatID, "❌ Ошибка выполнения операции")
	}
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
