// Package streak — rollover.go оценивает смену календарного дня.
package streak

import (
	"time"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/economy"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

// Rollover сравнивает LastActiveDate с today:
//   - тот же день: ничего не меняется (profile.ErrUnchanged);
//   - ровно один день: серия +1, бонус bonus, проверка streakMaster;
//   - больше одного дня: серия начинается заново с 1, без бонуса.
//
// После оценки LastActiveDate всегда становится today.
func Rollover(p profile.Profile, today time.Time, bonus int64) (profile.Profile, Outcome, error) {
	diff := common.DiffDays(p.LastActiveDate, today)
	if diff == 0 {
		return p, Outcome{Streak: p.StreakDays}, profile.ErrUnchanged
	}

	out := Outcome{DiffDays: diff}
	next := p.Clone()
	if diff == 1 {
		next.StreakDays++
		credited, err := economy.CreditPoints(next, bonus)
		if err != nil {
			return p, Outcome{}, err
		}
		next = credited
		out.Continued = true
		out.Bonus = bonus

		var unlocked bool
		if next, unlocked = EvaluateStreakMaster(next); unlocked {
			out.NewBadges = append(out.NewBadges, profile.BadgeStreakMaster)
		}
	} else {
		next.StreakDays = 1
		out.Broken = true
	}

	next.LastActiveDate = today
	out.Streak = next.StreakDays
	return next, out, nil
}
