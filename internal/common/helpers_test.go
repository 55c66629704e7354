package common

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayStartAt(t *testing.T) {
	loc := DefaultLocation("Europe/Moscow")

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "полдень обрезается до полуночи",
			in:   time.Date(2025, 3, 10, 12, 30, 45, 0, loc),
			want: time.Date(2025, 3, 10, 0, 0, 0, 0, loc),
		},
		{
			name: "секунда до полуночи остаётся в своих сутках",
			in:   time.Date(2025, 3, 10, 23, 59, 59, 0, loc),
			want: time.Date(2025, 3, 10, 0, 0, 0, 0, loc),
		},
		{
			name: "UTC-время переводится в пояс лимита",
			in:   time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC), // 01:30 следующих суток по Москве
			want: time.Date(2025, 3, 11, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DayStartAt(tt.in, loc)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestDefaultLocationFallback(t *testing.T) {
	loc := DefaultLocation("Nowhere/Unknown")
	require.NotNil(t, loc)

	// UTC+3 без перехода на летнее время
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 3*60*60, offset)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "150", FormatAmount(decimal.NewFromInt(150)))
	assert.Equal(t, "7.5", FormatAmount(decimal.RequireFromString("7.5")))
	assert.Equal(t, "1.5", FormatAmount(decimal.NewFromInt(15).Div(decimal.NewFromInt(10))))
}

func TestFormatSigned(t *testing.T) {
	assert.Equal(t, "+10", FormatSigned(decimal.NewFromInt(10), true))
	assert.Equal(t, "-5", FormatSigned(decimal.NewFromInt(5), false))
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "150 пленки", FormatCurrency(decimal.NewFromInt(150), "пленки"))
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "мерит"},
		{2, "мерита"},
		{4, "мерита"},
		{5, "меритов"},
		{11, "меритов"},
		{12, "меритов"},
		{14, "меритов"},
		{21, "мерит"},
		{22, "мерита"},
		{100, "меритов"},
		{101, "мерит"},
		{111, "меритов"},
		{0, "меритов"},
		{-2, "мерита"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PluralizeMerits(tt.n), "n=%d", tt.n)
	}

	assert.Equal(t, "голос", PluralizeVotes(1))
	assert.Equal(t, "голоса", PluralizeVotes(3))
	assert.Equal(t, "голосов", PluralizeVotes(10))
	assert.Equal(t, "дня", PluralizeDays(2))
}
