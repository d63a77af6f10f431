// Package quiz — outcome.go: единственная точка, где ответ на вопрос
// превращается в баллы и счётчики значков.
package quiz

import (
	"time"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/economy"
	"serotonyl.ru/lumi-bot/internal/features/profile"
	"serotonyl.ru/lumi-bot/internal/features/streak"
)

// Processor записывает ответы.
type Processor struct {
	reward int64              // баллы за верный ответ
	loc    *time.Location     // пояс для ночного окна
	newID  common.IDGenerator // id записей истории
}

// NewProcessor создаёт обработчик ответов.
func NewProcessor(reward int64, loc *time.Location, newID common.IDGenerator) *Processor {
	return &Processor{reward: reward, loc: loc, newID: newID}
}

// AnswerResult — что дал ответ.
type AnswerResult struct {
	Record    profile.QuizRecord
	Awarded   int64
	NewBadges []profile.Badge
}

// IsNightHour — ночное окно [22, 24) ∪ [0, 4).
func IsNightHour(hour int) bool {
	return hour >= 22 || hour < 4
}

// RecordAnswer добавляет запись в историю и, если ответ верный, начисляет
// баллы и двигает счётчики ночных и математических ответов.
// Неверный ответ обнуляет серию по математике.
func (pr *Processor) RecordAnswer(p profile.Profile, topic string, isCorrect bool, answeredAt time.Time) (profile.Profile, AnswerResult, error) {
	rec := profile.QuizRecord{
		ID:        pr.newID(),
		Topic:     topic,
		IsCorrect: isCorrect,
		Timestamp: answeredAt,
	}
	next := p.Clone()
	next.QuizHistory = append(next.QuizHistory, rec)
	res := AnswerResult{Record: rec}

	if !isCorrect {
		next.Stats.ConsecutiveCorrectInTopic = 0
		return next, res, nil
	}

	credited, err := economy.CreditPoints(next, pr.reward)
	if err != nil {
		return p, AnswerResult{}, err
	}
	next = credited
	res.Awarded = pr.reward

	var unlocked bool
	if IsNightHour(common.LocalHour(answeredAt, pr.loc)) {
		next.Stats.CorrectAfterLateHour++
		if next, unlocked = streak.EvaluateNightOwl(next); unlocked {
			res.NewBadges = append(res.NewBadges, profile.BadgeNightOwl)
		}
	}

	if IsMathTopic(topic) {
		next.Stats.ConsecutiveCorrectInTopic++
		if next, unlocked = streak.EvaluateMathMaster(next); unlocked {
			res.NewBadges = append(res.NewBadges, profile.BadgeMathMaster)
		}
	} else {
		next.Stats.ConsecutiveCorrectInTopic = 0
	}

	return next, res, nil
}
