// Package quota считает дневной бесплатный лимит голосования.
// Отдельной таблицы нет: остаток всегда выводится из журнала
// транзакций — сумма amount_free голосов пользователя за сутки.
package quota

import (
	"context"
	"errors"
	"time"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/member"
	"meritspace.ru/merit-bot/internal/features/space"
)

// FreeSpendStore — подсчёт потраченного лимита по журналу.
type FreeSpendStore interface {
	SumFreeToday(ctx context.Context, userID, currencySpaceID int64, since time.Time) (int64, error)
}

// MemberStore — роль участника для проверки права на лимит.
type MemberStore interface {
	GetByUserID(ctx context.Context, userID int64) (*member.Member, error)
}

// Service считает остаток дневного лимита.
type Service struct {
	ledger  FreeSpendStore
	members MemberStore
	// Сутки сбрасываются в полночь этого пояса.
	// Неиспользованный лимит сгорает и не переносится.
	loc *time.Location
}

// NewService создаёт сервис лимитов.
func NewService(ledger FreeSpendStore, members MemberStore, loc *time.Location) *Service {
	return &Service{ledger: ledger, members: members, loc: loc}
}

// Remaining возвращает остаток бесплатного лимита пользователя
// в пространстве на текущие сутки.
//
// Остаток = дневной лимит пространства − потраченное сегодня,
// ограничен диапазоном [0, дневной лимит]. Участник без подходящей
// роли (или забаненный, или незарегистрированный) лимита не имеет
// и платит за голоса только из кошелька.
func (s *Service) Remaining(ctx context.Context, userID int64, sp *space.Space) (int64, error) {
	m, err := s.members.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if m.IsBanned || !sp.RoleEligible(m.Role) {
		return 0, nil
	}

	spent, err := s.ledger.SumFreeToday(ctx, userID, sp.ID, common.DayStart(s.loc))
	if err != nil {
		return 0, err
	}

	remaining := sp.DailyQuota - spent
	if remaining < 0 {
		remaining = 0
	}
	if remaining > sp.DailyQuota {
		remaining = sp.DailyQuota
	}
	return remaining, nil
}
