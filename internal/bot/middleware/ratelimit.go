package middleware

import (
	"sync"
	"time"
)

// RateLimiter ограничивает частоту команд на пользователя скользящим
// окном. Команды экономики пишут в журнал, поэтому флуд из чата режем
// до обращения к БД.
type RateLimiter struct {
	mu     sync.Mutex
	seen   map[int64][]time.Time
	limit  int
	window time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// NewRateLimiter создаёт ограничитель: не больше limit команд за window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		seen:   make(map[int64][]time.Time),
		limit:  limit,
		window: window,
		done:   make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Close останавливает фоновую уборку. Вызывается на shutdown.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

// Allow регистрирует команду пользователя и сообщает, укладывается ли
// он в лимит.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := pruneBefore(rl.seen[userID], now.Add(-rl.window))
	if len(recent) >= rl.limit {
		rl.seen[userID] = recent
		return false
	}

	rl.seen[userID] = append(recent, now)
	return true
}

// janitor периодически выбрасывает пользователей, чьё окно давно пусто,
// чтобы карта не росла бесконечно.
func (rl *RateLimiter) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.window)
			rl.mu.Lock()
			for userID, times := range rl.seen {
				recent := pruneBefore(times, cutoff)
				if len(recent) == 0 {
					delete(rl.seen, userID)
					continue
				}
				rl.seen[userID] = recent
			}
			rl.mu.Unlock()
		}
	}
}

// pruneBefore оставляет только отметки времени после cutoff.
func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	var recent []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}
