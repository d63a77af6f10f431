// Package streak ведёт серию дней подряд и одноразовые значки.
// models.go описывает пороги значков и результат смены дня.
package streak

import "serotonyl.ru/lumi-bot/internal/features/profile"

// Пороги значков.
const (
	NightOwlThreshold     = 10 // верных ответов ночью
	MathMasterThreshold   = 20 // верных ответов по математике подряд
	StreakMasterThreshold = 30 // дней подряд
)

// Outcome — что произошло при смене дня.
type Outcome struct {
	DiffDays  int             // сколько дней прошло с прошлой оценки
	Continued bool            // серия продолжена (ровно один день)
	Broken    bool            // был пропуск, серия начата заново
	Bonus     int64           // начисленный бонус
	Streak    int             // серия после оценки
	NewBadges []profile.Badge // значки, открытые этой оценкой
}

// BadgeTitle — подпись значка для сообщений.
func BadgeTitle(b profile.Badge) string {
	switch b {
	case profile.BadgeNightOwl:
		return "🦉 Cú đêm"
	case profile.BadgeMathMaster:
		return "🧮 Bậc thầy Toán"
	case profile.BadgeStreakMaster:
		return "🔥 Chuỗi 30 ngày"
	default:
		return string(b)
	}
}

// AllBadges — порядок отображения значков.
var AllBadges = []profile.Badge{
	profile.BadgeStreakMaster,
	profile.BadgeNightOwl,
	profile.BadgeMathMaster,
}
