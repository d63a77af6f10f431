// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: полночный сброс расхода,
// тик симулятора использования, вечерние напоминания о серии,
// утреннюю сводку для родителей, напоминания о занятиях из /plan
// и уборку забытых игр викторины.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/features/usage"
)

// UsageJobs — задачи учёта времени.
type UsageJobs interface {
	DailyReset(ctx context.Context) (int, error)
	Tick(ctx context.Context, send usage.SendFunc) error
}

// Notifier — рассылки, которые возвращают число отправленных сообщений.
type Notifier func(ctx context.Context, send usage.SendFunc) (int, error)

// Notifiers — рассылки по расписанию.
type Notifiers struct {
	Streak Notifier // 20:00, серия под угрозой
	Digest Notifier // 08:00, сводка родителям
	Agenda Notifier // каждые 5 минут, скоро занятие
}

// Options — что и как часто запускать.
type Options struct {
	Location     *time.Location
	TickEnabled  bool
	TickInterval time.Duration
	// Sweep убирает из памяти забытые игры; nil — не запускать.
	Sweep         func() int
	SweepInterval time.Duration
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron      *cron.Cron
	opts      Options
	usageJobs UsageJobs
	notifiers Notifiers
	send      usage.SendFunc
}

// NewScheduler создаёт планировщик в часовом поясе приложения.
func NewScheduler(opts Options, usageJobs UsageJobs, notifiers Notifiers, send usage.SendFunc) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(opts.Location)),
		opts:      opts,
		usageJobs: usageJobs,
		notifiers: notifiers,
		send:      send,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	type job struct {
		spec string
		name string
		run  func()
	}
	jobs := []job{
		{"0 0 * * *", "daily_reset", func() { s.dailyReset(ctx) }},
		{"0 20 * * *", "streak_reminders", func() { s.notify(ctx, "напоминания о серии", s.notifiers.Streak) }},
		{"0 8 * * *", "parent_digest", func() { s.notify(ctx, "сводка для родителей", s.notifiers.Digest) }},
		{"*/5 * * * *", "plan_reminders", func() { s.notify(ctx, "напоминания о занятиях", s.notifiers.Agenda) }},
	}
	if s.opts.TickEnabled {
		jobs = append(jobs, job{fmt.Sprintf("@every %s", s.opts.TickInterval), "usage_tick", func() { s.tick(ctx) }})
	}
	if s.opts.Sweep != nil {
		jobs = append(jobs, job{fmt.Sprintf("@every %s", s.opts.SweepInterval), "quiz_sweep", s.sweep})
	}

	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, j.run); err != nil {
			return fmt.Errorf("ошибка регистрации задачи %s (%q): %w", j.name, j.spec, err)
		}
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"location":      s.opts.Location.String(),
		"usage_tick":    s.opts.TickEnabled,
		"tick_interval": s.opts.TickInterval.String(),
		"quiz_sweep":    s.opts.Sweep != nil,
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт выполняющиеся задачи.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

func (s *Scheduler) dailyReset(ctx context.Context) {
	log.Info("[CRON] Полночный сброс расхода")
	n, err := s.usageJobs.DailyReset(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка сброса")
		return
	}
	log.WithField("profiles", n).Info("[CRON] Сброс завершён")
}

func (s *Scheduler) tick(ctx context.Context) {
	log.Debug("[CRON] Тик использования")
	if err := s.usageJobs.Tick(ctx, s.send); err != nil {
		log.WithError(err).Error("[CRON] Ошибка тика")
	}
}

func (s *Scheduler) sweep() {
	if n := s.opts.Sweep(); n > 0 {
		log.WithField("users", n).Debug("[CRON] Забытые игры убраны")
	}
}

func (s *Scheduler) notify(ctx context.Context, what string, fn Notifier) {
	if fn == nil {
		return
	}
	n, err := fn(ctx, s.send)
	if err != nil {
		log.WithError(err).Errorf("[CRON] Ошибка: %s", what)
		return
	}
	log.WithField("sent", n).Infof("[CRON] Отправлено: %s", what)
}
