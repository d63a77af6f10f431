// Package calendar — расписание занятий ученика: /plan записывает
// занятие, домашку или контрольную, а планировщик напоминает о них
// незадолго до начала.
package calendar

import (
	"context"
	"strings"
	"time"
)

// EventType — вид события.
type EventType string

const (
	TypeStudy    EventType = "study"
	TypeHomework EventType = "homework"
	TypeExam     EventType = "exam"
)

var typeAliases = map[string]EventType{
	"study":    TypeStudy,
	"hoc":      TypeStudy,
	"học":      TypeStudy,
	"ontap":    TypeStudy,
	"homework": TypeHomework,
	"baitap":   TypeHomework,
	"btvn":     TypeHomework,
	"exam":     TypeExam,
	"thi":      TypeExam,
	"kiemtra":  TypeExam,
}

// ParseType распознаёт вид события по слову из команды.
func ParseType(word string) (EventType, bool) {
	t, ok := typeAliases[strings.ToLower(word)]
	return t, ok
}

// Label — подпись для сообщений.
func (t EventType) Label() string {
	switch t {
	case TypeHomework:
		return "📝 Bài tập"
	case TypeExam:
		return "🎯 Kiểm tra"
	default:
		return "📖 Ôn tập"
	}
}

// Event — одно запланированное событие.
type Event struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	Title     string    `db:"title"`
	Type      EventType `db:"event_type"`
	StartsAt  time.Time `db:"starts_at"`
	Reminded  bool      `db:"reminded"`
	CreatedAt time.Time `db:"created_at"`
}

// Store — хранилище событий.
type Store interface {
	Add(ctx context.Context, e Event) error
	// Upcoming — события ученика, которые начинаются не раньше from, по времени начала.
	Upcoming(ctx context.Context, userID int64, from time.Time) ([]Event, error)
	Delete(ctx context.Context, userID int64, id string) error
	// Due — события всех учеников без напоминания, начало в [from, until].
	Due(ctx context.Context, from, until time.Time) ([]Event, error)
	MarkReminded(ctx context.Context, id string) error
}
