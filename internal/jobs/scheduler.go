// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ночную сверку кэша балансов
// с журналом транзакций.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Reconciler — сверка кэша балансов публикаций с журналом.
type Reconciler interface {
	Reconcile(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
}

// NewScheduler создаёт планировщик задач в заданном часовом поясе.
// Пояс тот же, что у границы суток дневного лимита.
func NewScheduler(reconciler Reconciler, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		reconciler: reconciler,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Ночная сверка кэша балансов в 03:00.
	// Кэш обновляется в транзакциях операций, сверка ловит расхождения
	// после ручных правок БД или сбоев.
	s.cron.AddFunc("0 3 * * *", func() {
		log.Info("[CRON] Сверка кэша балансов публикаций")
		fixed, err := s.reconciler.Reconcile(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка сверки кэша")
			return
		}
		if fixed > 0 {
			log.WithField("fixed_rows", fixed).Warn("[CRON] Кэш расходился с журналом, исправлено")
		} else {
			log.Debug("[CRON] Кэш совпадает с журналом")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
