// Package ledger — handlers.go обрабатывает команды чтения журнала:
// !баланс (публикации), !балансголоса и !транзакции (история).
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/publication"
	"meritspace.ru/merit-bot/internal/features/space"
)

const historyLimit = 15

// SpaceResolver — поиск пространства по короткому имени.
type SpaceResolver interface {
	GetBySlug(ctx context.Context, slug string) (*space.Space, error)
}

// PublicationResolver — поиск публикации по имени внутри пространства.
type PublicationResolver interface {
	GetBySlug(ctx context.Context, spaceID int64, slug string) (*publication.Publication, error)
}

// Handler обрабатывает команды чтения журнала.
type Handler struct {
	service *Service
	spaces  SpaceResolver
	pubs    PublicationResolver
	bot     *telego.Bot
	loc     *time.Location
}

// NewHandler создаёт обработчик команд журнала.
func NewHandler(service *Service, spaces SpaceResolver, pubs PublicationResolver, bot *telego.Bot, loc *time.Location) *Handler {
	return &Handler{service: service, spaces: spaces, pubs: pubs, bot: bot, loc: loc}
}

// HandleBalancePublication обрабатывает команду !баланс.
//
// Формат: !баланс пространство публикация
//
// Формат ответа:
//
//	📊 Баланс публикации: 25 (+30 / -5)
func (h *Handler) HandleBalancePublication(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(ctx, chatID, "❌ Формат: !баланс пространство публикация")
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

	b, err := h.service.BalanceOfPublication(ctx, pub.ID)
	if err != nil {
		log.WithError(err).Error("Ошибка расчёта баланса публикации")
		h.sendMessage(ctx, chatID, "❌ Ошибка расчёта баланса")
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("📊 Баланс публикации: %s (+%s / -%s)",
		common.FormatAmount(b.Sum()), common.FormatAmount(b.Plus), common.FormatAmount(b.Minus)))
}

// HandleBalanceTransaction обрабатывает команду !балансголоса —
// баланс голоса, на который голосовали в ответ.
func (h *Handler) HandleBalanceTransaction(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(ctx, chatID, "❌ Формат: !балансголоса номер")
		return
	}

	txID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || txID <= 0 {
		h.sendMessage(ctx, chatID, "❌ Укажите номер голоса")
		return
	}

	b, err := h.service.BalanceOfTransaction(ctx, txID)
	if err != nil {
		if errors.Is(err, common.ErrTargetNotFound) {
			h.sendMessage(ctx, chatID, "❌ Голос не найден")
			return
		}
		log.WithError(err).Error("Ошибка расчёта баланса голоса")
		h.sendMessage(ctx, chatID, "❌ Ошибка расчёта баланса")
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("📊 Баланс голоса №%d: %s (+%s / -%s)",
		txID, common.FormatAmount(b.Sum()), common.FormatAmount(b.Plus), common.FormatAmount(b.Minus)))
}

// HandleHistory обрабатывает команду !транзакции — последние записи
// журнала пользователя, входящие и исходящие.
func (h *Handler) HandleHistory(ctx context.Context, chatID, userID int64) {
	txs, err := h.service.History(ctx, userID, historyLimit)
	if err != nil {
		log.WithError(err).Error("Ошибка получения истории")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения истории транзакций")
		return
	}
	if len(txs) == 0 {
		h.sendMessage(ctx, chatID, "📭 Транзакций пока нет")
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 Последние транзакции:\n\n")
	for _, t := range txs {
		sb.WriteString(fmt.Sprintf("№%d %s %s · %s · %s\n",
			t.ID, typeLabel(t.TxType),
			common.FormatSigned(t.Amount, t.DirectionPlus),
			describeTarget(t),
			common.FormatDateTime(t.CreatedAt, h.loc)))
	}
	h.sendMessage(ctx, chatID, sb.String())
}

// typeLabel переводит тип записи журнала для сообщений.
func typeLabel(txType string) string {
	switch txType {
	case TxTypeVote:
		return "голос"
	case TxTypeWithdraw:
		return "вывод"
	case TxTypeTopUp:
		return "пополнение"
	case TxTypeExchangeOut, TxTypeExchangeIn:
		return "обмен"
	default:
		return txType
	}
}

// describeTarget печатает цель записи.
func describeTarget(t *Transaction) string {
	if t.ForPublicationID != nil {
		return fmt.Sprintf("публикация %d", *t.ForPublicationID)
	}
	if t.ForTransactionID != nil {
		return fmt.Sprintf("голос №%d", *t.ForTransactionID)
	}
	return "кошелёк"
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
