// Package usage — service.go: фоновое начисление расхода (симулятор
// использования устройства) и изменение лимитов родителем.
package usage

import (
	"context"
	"fmt"
	"math/rand/v2"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/features/profile"
)

// SendFunc отправляет уведомление ученику.
type SendFunc func(userID int64, text string) error

// Service управляет расходом времени.
type Service struct {
	profiles     *profile.Service
	tickMinutes  int // сколько минут добавляет один тик
	lowThreshold int // порог уведомления «осталось мало»
	pick         func(n int) int
}

// NewService создаёт сервис учёта времени.
func NewService(profiles *profile.Service, tickMinutes, lowThreshold int) *Service {
	return &Service{
		profiles:     profiles,
		tickMinutes:  tickMinutes,
		lowThreshold: lowThreshold,
		pick:         rand.IntN,
	}
}

// WithPicker подменяет выбор приложения (для тестов).
func (s *Service) WithPicker(pick func(n int) int) *Service {
	s.pick = pick
	return s
}

// Status возвращает снимок для экрана /status.
func (s *Service) Status(ctx context.Context, userID int64) (profile.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

// Tick начисляет tickMinutes каждому ученику на случайное приложение
// и рассылает уведомления о пересечённых порогах.
func (s *Service) Tick(ctx context.Context, send SendFunc) error {
	ids, err := s.profiles.UserIDs(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения учеников: %w", err)
	}

	for _, userID := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.tickOne(ctx, userID, send); err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка начисления расхода")
		}
	}
	return nil
}

func (s *Service) tickOne(ctx context.Context, userID int64, send SendFunc) error {
	var prev profile.Profile
	today := s.profiles.Today()
	next, err := s.profiles.Apply(ctx, userID, profile.ReasonUsageTick, func(p profile.Profile) (profile.Profile, error) {
		// тик сразу после полуночи не должен попасть во вчерашний день
		p, _ = CloseDay(p, today)
		prev = p
		appID := ""
		if len(p.Apps) > 0 {
			appID = p.Apps[s.pick(len(p.Apps))].ID
		}
		return RecordUsage(p, appID, s.tickMinutes)
	})
	if err != nil {
		return err
	}

	alert := DetectAlerts(prev, next, s.lowThreshold)
	if alert.Empty() || send == nil {
		return nil
	}
	return send(userID, FormatAlert(alert, next))
}

// DailyReset закрывает вчерашний день у всех учеников (cron в полночь).
// Возвращает число закрытых дней.
func (s *Service) DailyReset(ctx context.Context) (int, error) {
	ids, err := s.profiles.UserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения учеников: %w", err)
	}

	today := s.profiles.Today()
	closed := 0
	for _, userID := range ids {
		dayClosed := false
		_, err := s.profiles.Apply(ctx, userID, profile.ReasonDailyReset, func(p profile.Profile) (profile.Profile, error) {
			next, ok := CloseDay(p, today)
			dayClosed = ok
			if !ok {
				return p, profile.ErrUnchanged
			}
			return next, nil
		})
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка закрытия дня")
			continue
		}
		if dayClosed {
			closed++
		}
	}
	return closed, nil
}

// SetDailyLimit меняет дневной лимит ученика.
func (s *Service) SetDailyLimit(ctx context.Context, userID int64, minutes int) (profile.Profile, error) {
	return s.profiles.Apply(ctx, userID, profile.ReasonParentLimit, func(p profile.Profile) (profile.Profile, error) {
		return SetDailyLimit(p, minutes)
	})
}

// SetAppLimit меняет лимит приложения ученика.
func (s *Service) SetAppLimit(ctx context.Context, userID int64, appID string, minutes int) (profile.Profile, error) {
	return s.profiles.Apply(ctx, userID, profile.ReasonParentLimit, func(p profile.Profile) (profile.Profile, error) {
		return SetAppLimit(p, appID, minutes)
	})
}
