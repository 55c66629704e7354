package filters

import (
	"context"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"meritspace.ru/merit-bot/internal/features/member"
)

type ChatFilter struct {
	communityChatID int64
	memberService   *member.Service
	bot             *telego.Bot
}

func NewChatFilter(communityChatID int64, memberService *member.Service, bot *telego.Bot) *ChatFilter {
	return &ChatFilter{
		communityChatID: communityChatID,
		memberService:   memberService,
		bot:             bot,
	}
}

func (f *ChatFilter) CheckAccess(ctx context.Context, message *telego.Message) bool {
	if message == nil {
		log.WithField("component", "ChatFilter").Warn("nil message")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}
	if f.memberService == nil {
		log.WithField("component", "ChatFilter").Error("memberService is nil")
		return false
	}
	if f.bot == nil {
		log.WithField("component", "ChatFilter").Error("bot is nil")
		return false
	}
	if f.communityChatID == 0 {
		log.WithField("component", "ChatFilter").Error("communityChatID is 0 (config bug)")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component":         "ChatFilter",
		"chat_id":           chatID,
		"chat_type":         message.Chat.Type,
		"user_id":           userID,
		"community_chat_id": f.communityChatID,
	})

	// 1) Разрешённый чат
	if chatID == f.communityChatID {
		logger.Debug("allow: community chat")
		return true
	}

	// 2) Личка: сначала быстро по БД
	if message.Chat.Type == telego.ChatTypePrivate {
		isMember, err := f.memberService.IsMember(ctx, userID)
		if err != nil {
			logger.WithError(err).Error("member check failed (db)")
			return false
		}
		if isMember {
			logger.Debug("allow: private (db member)")
			return true
		}

		// 2.1) БД не знает пользователя: проверяем членство через Telegram API
		cm, err := f.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
			ChatID: tu.ID(f.communityChatID),
			UserID: userID,
		})
		if err != nil {
			logger.WithError(err).Error("member check failed (telegram GetChatMember)")
			return false
		}

		switch cm.MemberStatus() {
		case telego.MemberStatusCreator, telego.MemberStatusAdministrator,
			telego.MemberStatusMember, telego.MemberStatusRestricted:
			if err := f.memberService.EnsureMember(
				ctx, userID,
				message.From.Username,
				message.From.FirstName,
				message.From.LastName,
			); err != nil {
				logger.WithError(err).Warn("failed to backfill member to DB (allowing anyway)")
			}
			logger.WithField("tg_status", cm.MemberStatus()).Info("allow: private (telegram member, backfilled)")
			return true

		default:
			logger.WithField("tg_status", cm.MemberStatus()).Info("deny: private (not a chat member)")
			msg := tu.Message(tu.ID(chatID), "❌ Бот работает только для участников основного чата")
			if _, sendErr := f.bot.SendMessage(ctx, msg); sendErr != nil {
				logger.WithError(sendErr).Warn("failed to send deny message")
			}
			return false
		}
	}

	// 3) Остальные чаты игнорируем
	logger.Info("deny: not community chat and not private")
	return false
}
