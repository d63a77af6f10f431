// Package usage ведёт учёт экранного времени: сколько минут использовано
// сегодня всего и в каждом приложении, сколько осталось и что заблокировано.
// ledger.go — чистые операции и запросы над снимком профиля.
package usage

import (
	"time"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

// historyDays — сколько закрытых дней храним для отчёта.
const historyDays = 7

// RecordUsage добавляет minutes к сегодняшнему расходу и, если appID задан,
// к расходу приложения.
func RecordUsage(p profile.Profile, appID string, minutes int) (profile.Profile, error) {
	if minutes <= 0 {
		return p, common.ErrInvalidAmount
	}
	idx := -1
	if appID != "" {
		if idx = p.AppIndex(appID); idx < 0 {
			return p, common.ErrInvalidAppReference
		}
	}

	next := p.Clone()
	next.UsedTime += minutes
	if idx >= 0 {
		next.Apps[idx].UsedTime += minutes
	}
	return next, nil
}

// Remaining — сколько минут осталось на сегодня (не меньше нуля).
func Remaining(p profile.Profile) int {
	return max(0, p.DailyLimit-p.UsedTime)
}

// PercentUsed — процент использованного лимита, не больше 100.
// Нулевой лимит считается исчерпанным.
func PercentUsed(p profile.Profile) int {
	if p.DailyLimit <= 0 {
		return 100
	}
	return min(100, 100*p.UsedTime/p.DailyLimit)
}

// IsOverLimit — дневной лимит исчерпан.
func IsOverLimit(p profile.Profile) bool {
	return p.UsedTime >= p.DailyLimit
}

// IsLocked — приложение заблокировано: лимит исчерпан и оно не учебное.
func IsLocked(app profile.AppUsage) bool {
	return !app.IsEducational() && app.UsedTime >= app.Limit
}

// CloseDay закрывает день расхода, если сегодня наступил новый день:
// архивирует итог UsageDate, обнуляет счётчики и переводит UsageDate на today.
// Хранится не больше historyDays последних дней. Если день тот же,
// возвращает p и false.
func CloseDay(p profile.Profile, today time.Time) (profile.Profile, bool) {
	if common.DiffDays(p.UsageDate, today) == 0 {
		return p, false
	}
	next := p.Clone()
	next.UsageHistory = append(next.UsageHistory, profile.DailyUsage{
		Date:  p.UsageDate,
		Used:  p.UsedTime,
		Limit: p.DailyLimit,
	})
	if extra := len(next.UsageHistory) - historyDays; extra > 0 {
		next.UsageHistory = append([]profile.DailyUsage(nil), next.UsageHistory[extra:]...)
	}
	next.UsedTime = 0
	for i := range next.Apps {
		next.Apps[i].UsedTime = 0
	}
	next.UsageDate = today
	return next, true
}

// SetDailyLimit меняет дневной лимит (делает родитель).
func SetDailyLimit(p profile.Profile, minutes int) (profile.Profile, error) {
	if minutes < 0 {
		return p, common.ErrInvalidLimit
	}
	next := p.Clone()
	next.DailyLimit = minutes
	return next, nil
}

// SetAppLimit меняет лимит приложения.
func SetAppLimit(p profile.Profile, appID string, minutes int) (profile.Profile, error) {
	if minutes < 0 {
		return p, common.ErrInvalidLimit
	}
	idx := p.AppIndex(appID)
	if idx < 0 {
		return p, common.ErrInvalidAppReference
	}
	next := p.Clone()
	next.Apps[idx].Limit = minutes
	return next, nil
}

// Alert — событие, о котором стоит сообщить ученику после начисления расхода.
type Alert struct {
	LowTime      bool     // остаток опустился ниже порога
	LimitReached bool     // дневной лимит исчерпан
	LockedApps   []string // приложения, заблокированные этим начислением
}

// Empty — сообщать не о чем.
func (a Alert) Empty() bool {
	return !a.LowTime && !a.LimitReached && len(a.LockedApps) == 0
}

// DetectAlerts сравнивает снимки до и после начисления и возвращает
// только пересечённые пороги, чтобы каждое уведомление ушло один раз.
func DetectAlerts(prev, next profile.Profile, lowThreshold int) Alert {
	var a Alert
	before, after := Remaining(prev), Remaining(next)
	if after == 0 && before > 0 {
		a.LimitReached = true
	} else if after < lowThreshold && before >= lowThreshold {
		a.LowTime = true
	}
	for _, app := range next.Apps {
		old, ok := prev.App(app.ID)
		if ok && !IsLocked(old) && IsLocked(app) {
			a.LockedApps = append(a.LockedApps, app.Name)
		}
	}
	return a
}

// CategoryUsage суммирует расход по категориям приложений.
func CategoryUsage(p profile.Profile) map[profile.Category]int {
	out := make(map[profile.Category]int)
	for _, app := range p.Apps {
		out[app.Category] += app.UsedTime
	}
	return out
}

// AverageUsed — средний расход по закрытым дням (0, если истории нет).
func AverageUsed(p profile.Profile) int {
	if len(p.UsageHistory) == 0 {
		return 0
	}
	total := 0
	for _, d := range p.UsageHistory {
		total += d.Used
	}
	return total / len(p.UsageHistory)
}
