// Package calendar — service.go разбирает /plan и рассылает напоминания.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/usage"
)

// MaxUpcoming — сколько будущих событий может быть у ученика.
const MaxUpcoming = 30

const maxTitleRunes = 120

// Draft — разобранная команда /plan.
type Draft struct {
	Title    string
	Type     EventType
	StartsAt time.Time
}

// ParseDraft разбирает «<дата> <время> [вид] <название>».
// Дата: 2026-10-20, 20/10/2026, 20/10, nay (сегодня) или mai (завтра).
// Время: 18:00, 18h30 или 18h. Вид по умолчанию — ôn tập.
func ParseDraft(args []string, now time.Time, loc *time.Location) (Draft, error) {
	if len(args) < 3 {
		return Draft{}, common.ErrInvalidEvent
	}
	date, ok := parseDate(args[0], now.In(loc))
	if !ok {
		return Draft{}, common.ErrInvalidEvent
	}
	hour, minute, ok := parseClock(args[1])
	if !ok {
		return Draft{}, common.ErrInvalidEvent
	}

	rest := args[2:]
	kind := TypeStudy
	if t, ok := ParseType(rest[0]); ok {
		kind, rest = t, rest[1:]
	}
	title := strings.TrimSpace(strings.Join(rest, " "))
	if title == "" {
		return Draft{}, common.ErrInvalidEvent
	}
	if r := []rune(title); len(r) > maxTitleRunes {
		title = string(r[:maxTitleRunes])
	}
	return Draft{
		Title:    title,
		Type:     kind,
		StartsAt: time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc),
	}, nil
}

func parseDate(word string, now time.Time) (time.Time, bool) {
	switch strings.ToLower(word) {
	case "nay", "homnay", "hômnay", "today":
		return now, true
	case "mai", "ngaymai", "tomorrow":
		return now.AddDate(0, 0, 1), true
	}
	for _, layout := range []string{"2006-01-02", "2/1/2006"} {
		if d, err := time.Parse(layout, word); err == nil {
			return d, true
		}
	}
	d, err := time.Parse("2/1", word)
	if err != nil {
		return time.Time{}, false
	}
	// без года: ближайшая такая дата, не раньше сегодняшней
	d = time.Date(now.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(common.LocalDate(now, now.Location())) {
		d = d.AddDate(1, 0, 0)
	}
	return d, true
}

func parseClock(word string) (hour, minute int, ok bool) {
	word = strings.ReplaceAll(strings.ToLower(word), "h", ":")
	if strings.HasSuffix(word, ":") {
		word += "00"
	}
	t, err := time.Parse("15:04", word)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// Service ведёт расписание учеников.
type Service struct {
	store Store
	clock common.Clock
	loc   *time.Location
	lead  time.Duration
	newID common.IDGenerator
}

// NewService создаёт сервис расписания. lead — за сколько до начала напоминать.
func NewService(store Store, clock common.Clock, loc *time.Location, lead time.Duration, newID common.IDGenerator) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, clock: clock, loc: loc, lead: lead, newID: newID}
}

// Location — часовой пояс расписания.
func (s *Service) Location() *time.Location { return s.loc }

// Plan добавляет событие из аргументов /plan.
func (s *Service) Plan(ctx context.Context, userID int64, args []string) (Event, error) {
	now := s.clock()
	d, err := ParseDraft(args, now, s.loc)
	if err != nil {
		return Event{}, err
	}
	if d.StartsAt.Before(now) {
		return Event{}, common.ErrEventInPast
	}
	upcoming, err := s.store.Upcoming(ctx, userID, now)
	if err != nil {
		return Event{}, err
	}
	if len(upcoming) >= MaxUpcoming {
		return Event{}, common.ErrLimitReached
	}

	e := Event{
		ID:        s.newID(),
		UserID:    userID,
		Title:     d.Title,
		Type:      d.Type,
		StartsAt:  d.StartsAt,
		CreatedAt: now,
	}
	if err := s.store.Add(ctx, e); err != nil {
		return Event{}, err
	}
	log.WithFields(log.Fields{
		"user_id":   userID,
		"type":      e.Type,
		"starts_at": e.StartsAt,
	}).Info("Событие добавлено в расписание")
	return e, nil
}

// Upcoming — будущие события ученика по порядку.
func (s *Service) Upcoming(ctx context.Context, userID int64) ([]Event, error) {
	return s.store.Upcoming(ctx, userID, s.clock())
}

// Cancel удаляет событие по номеру из списка Upcoming (с 1).
func (s *Service) Cancel(ctx context.Context, userID int64, n int) (Event, error) {
	events, err := s.Upcoming(ctx, userID)
	if err != nil {
		return Event{}, err
	}
	if n < 1 || n > len(events) {
		return Event{}, common.ErrEventNotFound
	}
	e := events[n-1]
	if err := s.store.Delete(ctx, userID, e.ID); err != nil {
		return Event{}, err
	}
	return e, nil
}

// SendReminders напоминает о событиях, которые начнутся в ближайшие lead.
// Каждое событие напоминается один раз: отметка ставится только после
// успешной отправки.
func (s *Service) SendReminders(ctx context.Context, send usage.SendFunc) (int, error) {
	now := s.clock()
	due, err := s.store.Due(ctx, now, now.Add(s.lead))
	if err != nil {
		return 0, fmt.Errorf("ошибка выборки событий: %w", err)
	}
	sent := 0
	for _, e := range due {
		mins := int(e.StartsAt.Sub(now).Round(time.Minute) / time.Minute)
		text := fmt.Sprintf("⏰ Còn %d phút: %s\n%s", mins, e.Title, FormatEvent(e, s.loc))
		if err := send(e.UserID, text); err != nil {
			log.WithError(err).WithField("user_id", e.UserID).Warn("Не удалось напомнить о событии")
			continue
		}
		if err := s.store.MarkReminded(ctx, e.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// FormatEvent — строка события для списка.
func FormatEvent(e Event, loc *time.Location) string {
	return fmt.Sprintf("%s · %s · %s", common.FormatDateTime(e.StartsAt, loc), e.Type.Label(), e.Title)
}
