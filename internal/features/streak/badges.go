package streak

import "serotonyl.ru/lumi-bot/internal/features/profile"

// UnlockBadge добавляет значок, если его ещё нет.
// Второй результат — был ли значок добавлен сейчас.
func UnlockBadge(p profile.Profile, b profile.Badge) (profile.Profile, bool) {
	if p.HasBadge(b) {
		return p, false
	}
	next := p.Clone()
	next.Badges = append(next.Badges, b)
	return next, true
}

// EvaluateNightOwl проверяет счётчик ночных верных ответов.
func EvaluateNightOwl(p profile.Profile) (profile.Profile, bool) {
	if p.Stats.CorrectAfterLateHour < NightOwlThreshold {
		return p, false
	}
	return UnlockBadge(p, profile.BadgeNightOwl)
}

// EvaluateMathMaster проверяет серию верных ответов по математике.
func EvaluateMathMaster(p profile.Profile) (profile.Profile, bool) {
	if p.Stats.ConsecutiveCorrectInTopic < MathMasterThreshold {
		return p, false
	}
	return UnlockBadge(p, profile.BadgeMathMaster)
}

// EvaluateStreakMaster проверяет длину серии дней.
func EvaluateStreakMaster(p profile.Profile) (profile.Profile, bool) {
	if p.StreakDays < StreakMasterThreshold {
		return p, false
	}
	return UnlockBadge(p, profile.BadgeStreakMaster)
}
