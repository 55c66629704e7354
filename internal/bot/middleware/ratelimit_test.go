package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	userID := int64(1)
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(userID), "запрос %d должен пройти", i+1)
	}
	assert.False(t, rl.Allow(userID), "четвёртый запрос за окно должен быть отклонён")

	// Лимиты считаются на пользователя независимо
	assert.True(t, rl.Allow(int64(2)))
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 30*time.Millisecond)
	defer rl.Close()

	userID := int64(1)
	assert.True(t, rl.Allow(userID))
	assert.False(t, rl.Allow(userID))

	time.Sleep(40 * time.Millisecond)
	assert.True(t, rl.Allow(userID), "после истечения окна лимит восстанавливается")
}
