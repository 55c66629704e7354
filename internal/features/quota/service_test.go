package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/member"
	"meritspace.ru/merit-bot/internal/features/space"
)

type fakeFreeSpend struct {
	spent int64
	err   error
}

func (f *fakeFreeSpend) SumFreeToday(ctx context.Context, userID, currencySpaceID int64, since time.Time) (int64, error) {
	return f.spent, f.err
}

type fakeMembers struct {
	members map[int64]*member.Member
}

func (f *fakeMembers) GetByUserID(ctx context.Context, userID int64) (*member.Member, error) {
	m, ok := f.members[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return m, nil
}

func testSpace(quota int64, roles []string) *space.Space {
	return &space.Space{ID: 7, Slug: "films", DailyQuota: quota, EligibleRoles: roles}
}

func TestRemaining(t *testing.T) {
	loc := common.DefaultLocation("Europe/Moscow")
	sp := testSpace(10, nil)

	tests := []struct {
		name   string
		member *member.Member
		spent  int64
		sp     *space.Space
		want   int64
	}{
		{
			name:   "полный лимит утром",
			member: &member.Member{UserID: 1, Role: "участник"},
			spent:  0,
			sp:     sp,
			want:   10,
		},
		{
			name:   "часть потрачена",
			member: &member.Member{UserID: 1, Role: "участник"},
			spent:  3,
			sp:     sp,
			want:   7,
		},
		{
			name:   "потрачено всё",
			member: &member.Member{UserID: 1, Role: "участник"},
			spent:  10,
			sp:     sp,
			want:   0,
		},
		{
			name:   "перерасход не уводит в минус",
			member: &member.Member{UserID: 1, Role: "участник"},
			spent:  15,
			sp:     sp,
			want:   0,
		},
		{
			name:   "забаненный без лимита",
			member: &member.Member{UserID: 1, Role: "участник", IsBanned: true},
			spent:  0,
			sp:     sp,
			want:   0,
		},
		{
			name:   "роль вне списка пространства",
			member: &member.Member{UserID: 1, Role: "гость"},
			spent:  0,
			sp:     testSpace(10, []string{"участник", "ветеран"}),
			want:   0,
		},
		{
			name:   "роль из списка пространства",
			member: &member.Member{UserID: 1, Role: "ветеран"},
			spent:  4,
			sp:     testSpace(10, []string{"участник", "ветеран"}),
			want:   6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(
				&fakeFreeSpend{spent: tt.spent},
				&fakeMembers{members: map[int64]*member.Member{tt.member.UserID: tt.member}},
				loc,
			)

			got, err := svc.Remaining(context.Background(), tt.member.UserID, tt.sp)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemainingUnknownUser(t *testing.T) {
	loc := common.DefaultLocation("Europe/Moscow")
	svc := NewService(&fakeFreeSpend{}, &fakeMembers{members: map[int64]*member.Member{}}, loc)

	// Незарегистрированный пользователь лимита не имеет, но это не ошибка
	got, err := svc.Remaining(context.Background(), 99, testSpace(10, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}
