// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: работа с календарными днями, форматирование чисел и минут,
// генераторы идентификаторов.
package common

import (
	"fmt"
	"math"
	"time"
)

// Clock возвращает текущее время. В проде это time.Now,
// в тестах — функция с фиксированным значением.
type Clock func() time.Time

// FixedClock всегда возвращает t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// LoadLocation загружает часовой пояс приложения.
// Если tzdata недоступна (минимальный контейнер), для Asia/Ho_Chi_Minh
// используем UTC+7 вручную, для остальных — UTC.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc
	}
	if name == "Asia/Ho_Chi_Minh" {
		return time.FixedZone("ICT", 7*60*60)
	}
	return time.UTC
}

// LocalDate возвращает календарную дату момента t в поясе loc.
// Дата хранится как полночь UTC, чтобы разница дат не зависела от
// переходов на летнее время.
//
// Пример: 2026-03-01 23:30 UTC в Asia/Ho_Chi_Minh → 2026-03-02 00:00 UTC
func LocalDate(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

// DiffDays считает, сколько календарных дней прошло от last до today.
// Обе даты приводятся к полуночи. Результат никогда не отрицателен:
// если часы ушли назад, считаем, что день не сменился.
func DiffDays(last, today time.Time) int {
	l := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	d := t.Sub(l)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

// LocalHour возвращает час (0-23) момента t в поясе loc.
func LocalHour(t time.Time, loc *time.Location) int {
	return t.In(loc).Hour()
}

// FormatDateTime форматирует время в формат "02/01/2006 15:04" в поясе loc.
// Используется для отображения операций и истории ответов.
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02/01/2006 15:04")
}

// FormatDate форматирует календарную дату как "02/01".
func FormatDate(d time.Time) string {
	return d.Format("02/01")
}

// FormatMinutes переводит минуты в вид "2h 5m" / "45m".
//
//	FormatMinutes(125) → "2h 5m"
//	FormatMinutes(60)  → "1h"
//	FormatMinutes(45)  → "45m"
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		return "-" + FormatMinutes(-minutes)
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
