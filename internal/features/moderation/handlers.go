// Package moderation — handlers.go обрабатывает модераторский диалог
// в личных сообщениях. Поток: аутентификация → команды модерации.
package moderation

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
	"meritspace.ru/merit-bot/internal/features/member"
	"meritspace.ru/merit-bot/internal/features/space"
)

// SpaceResolver — поиск пространства по короткому имени.
type SpaceResolver interface {
	GetBySlug(ctx context.Context, slug string) (*space.Space, error)
}

// MemberResolver — поиск участника по username.
type MemberResolver interface {
	GetByUsername(ctx context.Context, username string) (*member.Member, error)
}

// Handler обрабатывает модераторские команды.
type Handler struct {
	service  *Service
	spaces   SpaceResolver
	members  MemberResolver
	bot      *telego.Bot
	adminIDs []int64
}

// NewHandler создаёт обработчик модераторских команд.
func NewHandler(service *Service, spaces SpaceResolver, members MemberResolver, bot *telego.Bot, adminIDs []int64) *Handler {
	return &Handler{
		service:  service,
		spaces:   spaces,
		members:  members,
		bot:      bot,
		adminIDs: adminIDs,
	}
}

// HandleModerationMessage обрабатывает сообщение модератора в DM.
// Возвращает true, если сообщение было обработано.
func (h *Handler) HandleModerationMessage(ctx context.Context, chatID, userID int64, text string) bool {
	if !h.isModerator(userID) {
		return false
	}

	text = strings.TrimSpace(text)

	// Обрабатываем состояние ожидания пароля
	state := h.service.GetState(userID)
	if state != nil && state.State == StateAwaitingPassword {
		h.handlePasswordInput(ctx, chatID, userID, text)
		return true
	}

	fields := strings.Fields(strings.TrimPrefix(strings.TrimPrefix(text, "!"), "/"))
	if len(fields) == 0 {
		return false
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "login", "вход":
		if len(args) > 0 {
			h.handlePasswordInput(ctx, chatID, userID, strings.Join(args, " "))
		} else {
			h.sendMessage(ctx, chatID, "🔐 Введите пароль модератора:")
			h.service.SetState(userID, StateAwaitingPassword, nil)
		}
		return true

	case "выход", "logout":
		if err := h.service.Logout(ctx, userID); err != nil {
			log.WithError(err).Error("Ошибка выхода модератора")
		}
		h.sendMessage(ctx, chatID, "👋 Сессия завершена")
		return true

	case "очередь":
		h.handleQueue(ctx, chatID, userID, args)
		return true

	case "одобрить":
		h.handleApprove(ctx, chatID, userID, args)
		return true

	case "роль":
		h.handleAssignRole(ctx, chatID, userID, args)
		return true
	}

	return false
}

// handlePasswordInput обрабатывает ввод пароля.
func (h *Handler) handlePasswordInput(ctx context.Context, chatID, userID int64, password string) {
	h.service.ClearState(userID)

	err := h.service.VerifyPassword(ctx, userID, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrWrongPassword), errors.Is(err, common.ErrTooManyAttempts):
			h.sendMessage(ctx, chatID, fmt.Sprintf("❌ %s", err.Error()))
		default:
			log.WithError(err).Error("Ошибка проверки пароля")
			h.sendMessage(ctx, chatID, "❌ Ошибка аутентификации")
		}
		return
	}

	h.sendMessage(ctx, chatID, "✅ Аутентификация успешна!\nКоманды: очередь <пространство>, одобрить <номер>, роль @user <роль>, выход")
}

// handleQueue показывает очередь модерации пространства.
func (h *Handler) handleQueue(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(ctx, chatID, "❌ Формат: очередь пространство")
		return
	}

	sp, err := h.spaces.GetBySlug(ctx, args[0])
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Пространство не найдено")
		return
	}

	pending, err := h.service.PendingQueue(ctx, userID, sp.ID)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	if len(pending) == 0 {
		h.sendMessage(ctx, chatID, "📭 Очередь модерации пуста")
		return
	}

	var sb strings.Builder
	sb.WriteString("📝 Ожидают модерации:\n\n")
	for _, p := range pending {
		sb.WriteString(fmt.Sprintf("№%d «%s» от %d\n", p.ID, p.Slug, p.AuthorID))
	}
	sb.WriteString("\nОдобрить: одобрить <номер>")
	h.sendMessage(ctx, chatID, sb.String())
}

// handleApprove одобряет публикацию из очереди.
func (h *Handler) handleApprove(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(ctx, chatID, "❌ Формат: одобрить номер")
		return
	}

	pubID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || pubID <= 0 {
		h.sendMessage(ctx, chatID, "❌ Укажите номер публикации")
		return
	}

	if err := h.service.ApprovePublication(ctx, userID, pubID); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Публикация №%d одобрена", pubID))
}

// handleAssignRole назначает роль участнику.
func (h *Handler) handleAssignRole(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(ctx, chatID, "❌ Формат: роль @username роль")
		return
	}

	username := strings.TrimPrefix(args[0], "@")
	target, err := h.members.GetByUsername(ctx, username)
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Участник не найден")
		return
	}

	role := strings.Join(args[1:], " ")
	if err := h.service.AssignRole(ctx, userID, target.UserID, role); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Роль назначена: %s → %s", target.DisplayName(), role))
}

// replyError переводит ошибки модерации в понятные сообщения.
func (h *Handler) replyError(ctx context.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrSessionExpired):
		h.sendMessage(ctx, chatID, "🔐 Сессия истекла, отправьте: вход <пароль>")
	case errors.Is(err, common.ErrInvalidTarget):
		h.sendMessage(ctx, chatID, "❌ Публикация не ожидает модерации")
	case errors.Is(err, common.ErrTargetNotFound):
		h.sendMessage(ctx, chatID, "❌ Цель не найдена")
	case errors.Is(err, common.ErrUserNotFound):
		h.sendMessage(ctx, chatID, "❌ Участник не найден")
	default:
		log.WithError(err).Error("Ошибка модерации")
		h.sendMessage(ctx, chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
	}
}

// isModerator проверяет, входит ли пользователь в список модераторов.
func (h *Handler) isModerator(userID int64) bool {
	for _, id := range h.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
