// Package publication — handlers.go обрабатывает команду !публикация:
// регистрацию контента в пространстве.
package publication

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/features/member"
	"meritspace.ru/merit-bot/internal/features/space"
)

// SpaceResolver — поиск пространства по короткому имени.
type SpaceResolver interface {
	GetBySlug(ctx context.Context, slug string) (*space.Space, error)
}

// MemberResolver — поиск участника-бенефициара по username.
type MemberResolver interface {
	GetByUsername(ctx context.Context, username string) (*member.Member, error)
}

// Handler обрабатывает команды публикаций.
type Handler struct {
	service *Service
	spaces  SpaceResolver
	members MemberResolver
	bot     *telego.Bot
}

// NewHandler создаёт обработчик команд публикаций.
func NewHandler(service *Service, spaces SpaceResolver, members MemberResolver, bot *telego.Bot) *Handler {
	return &Handler{service: service, spaces: spaces, members: members, bot: bot}
}

// HandlePublish обрабатывает команду !публикация.
//
// Формат: !публикация пространство имя [@бенефициар]
//
// Бенефициар — участник, которому разрешён вывод средств с публикации
// наравне с автором (например, переводчик или соавтор).
func (h *Handler) HandlePublish(ctx context.Context, chatID, userID int64, args []string, isModerator bool) {
	if len(args) < 2 {
		h.sendMessage(ctx, chatID, "❌ Формат: !публикация пространство имя [@бенефициар]")
		return
	}

	sp, err := h.spaces.GetBySlug(ctx, args[0])
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Пространство не найдено")
		return
	}

	slug := args[1]

	var beneficiaryID *int64
	if len(args) >= 3 {
		username := strings.TrimPrefix(args[2], "@")
		beneficiary, err := h.members.GetByUsername(ctx, username)
		if err != nil {
			h.sendMessage(ctx, chatID, "❌ Бенефициар не найден среди участников")
			return
		}
		beneficiaryID = &beneficiary.UserID
	}

	id, err := h.service.Create(ctx, slug, userID, sp.ID, beneficiaryID, isModerator)
	if err != nil {
		log.WithError(err).Error("Ошибка регистрации публикации")
		h.sendMessage(ctx, chatID, "❌ Ошибка регистрации публикации")
		return
	}

	pub, err := h.service.GetByID(ctx, id)
	if err == nil && pub.Status == StatusPending {
		h.sendMessage(ctx, chatID, fmt.Sprintf("📝 Публикация «%s» принята и ожидает модерации (№%d)", slug, id))
		return
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Публикация «%s» зарегистрирована (№%d)", slug, id))
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
