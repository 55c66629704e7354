package space

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meritspace.ru/merit-bot/internal/common"
)

type fakeStore struct {
	created *Space
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*Space, error) {
	return nil, common.ErrTargetNotFound
}

func (f *fakeStore) GetBySlug(ctx context.Context, slug string) (*Space, error) {
	return nil, common.ErrTargetNotFound
}

func (f *fakeStore) GetGlobal(ctx context.Context) (*Space, error) {
	return nil, common.ErrTargetNotFound
}

func (f *fakeStore) Create(ctx context.Context, s *Space) error {
	f.created = s
	return nil
}

func TestCreate(t *testing.T) {
	t.Run("без лимита подставляется лимит по умолчанию", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(store, 10)

		sp := &Space{Slug: "films", Title: "Фильмы", CurrencyName: "пленки"}
		require.NoError(t, svc.Create(context.Background(), sp))

		require.NotNil(t, store.created)
		assert.Equal(t, int64(10), store.created.DailyQuota)
	})

	t.Run("свой лимит пространства сохраняется", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(store, 10)

		sp := &Space{Slug: "films", Title: "Фильмы", CurrencyName: "пленки", DailyQuota: 25}
		require.NoError(t, svc.Create(context.Background(), sp))
		assert.Equal(t, int64(25), store.created.DailyQuota)
	})

	t.Run("пустой slug отклоняется", func(t *testing.T) {
		svc := NewService(&fakeStore{}, 10)
		err := svc.Create(context.Background(), &Space{CurrencyName: "пленки"})
		assert.ErrorIs(t, err, common.ErrInvalidTarget)
	})

	t.Run("глобальное пространство через Create не заводится", func(t *testing.T) {
		svc := NewService(&fakeStore{}, 10)
		err := svc.Create(context.Background(), &Space{Slug: "merits", CurrencyName: "меритов", IsGlobal: true})
		assert.ErrorIs(t, err, common.ErrInvalidTarget)
	})
}
