// Package streak — service.go применяет смену дня к профилю ученика
// и рассылает напоминания о серии.
package streak

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
	"serotonyl.ru/lumi-bot/internal/features/usage"
)

// Service управляет сериями дней.
type Service struct {
	profiles          *profile.Service
	dailyBonus        int64 // бонус за продолжение серии
	reminderThreshold int   // с какой длины серии напоминать
}

// NewService создаёт сервис серий.
func NewService(profiles *profile.Service, dailyBonus int64, reminderThreshold int) *Service {
	return &Service{
		profiles:          profiles,
		dailyBonus:        dailyBonus,
		reminderThreshold: reminderThreshold,
	}
}

// GetProfile возвращает снимок для /streak.
func (s *Service) GetProfile(ctx context.Context, userID int64) (profile.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

// Touch вызывается на каждый апдейт ученика: если наступил новый день,
// закрывает вчерашний расход и оценивает серию.
func (s *Service) Touch(ctx context.Context, userID int64) (Outcome, error) {
	today := s.profiles.Today()

	var out Outcome
	_, err := s.profiles.Apply(ctx, userID, profile.ReasonStreak, func(p profile.Profile) (profile.Profile, error) {
		closed, dayClosed := usage.CloseDay(p, today)
		next, o, err := Rollover(closed, today, s.dailyBonus)
		if errors.Is(err, profile.ErrUnchanged) {
			if dayClosed {
				return closed, nil
			}
			return p, profile.ErrUnchanged
		}
		if err != nil {
			return p, err
		}
		out = o
		return next, nil
	})
	if err != nil {
		return Outcome{}, err
	}

	if out.DiffDays > 0 {
		log.WithFields(log.Fields{
			"user_id":   userID,
			"diff_days": out.DiffDays,
			"streak":    out.Streak,
			"bonus":     out.Bonus,
		}).Info("Смена дня")
	}
	return out, nil
}

// SendReminders напоминает ученикам с серией от reminderThreshold дней,
// которые ещё не заходили сегодня. Возвращает число отправленных напоминаний.
func (s *Service) SendReminders(ctx context.Context, send usage.SendFunc) (int, error) {
	ids, err := s.profiles.UserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения учеников: %w", err)
	}

	today := s.profiles.Today()
	sent := 0
	for _, userID := range ids {
		p, err := s.profiles.Get(ctx, userID)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка чтения профиля")
			continue
		}
		if common.DiffDays(p.LastActiveDate, today) != 1 || p.StreakDays < s.reminderThreshold {
			continue
		}
		text := fmt.Sprintf("🔥 Chuỗi %d ngày của bạn sắp bị mất! Mở Lumi hôm nay để nhận +%s.",
			p.StreakDays, common.FormatPoints(s.dailyBonus))
		if err := send(userID, text); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Не удалось отправить напоминание")
			continue
		}
		sent++
	}
	return sent, nil
}
