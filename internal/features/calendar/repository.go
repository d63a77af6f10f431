// Package calendar — repository.go хранит события в таблице study_events.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/lumi-bot/internal/common"
)

const eventColumns = `id, user_id, title, event_type, starts_at, reminded, created_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Add(ctx context.Context, e Event) error {
	query := `
		INSERT INTO study_events (id, user_id, title, event_type, starts_at, reminded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, e.ID, e.UserID, e.Title, string(e.Type), e.StartsAt, e.Reminded, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения события: %w", err)
	}
	return nil
}

func (r *Repository) Upcoming(ctx context.Context, userID int64, from time.Time) ([]Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM study_events
		WHERE user_id = $1 AND starts_at >= $2
		ORDER BY starts_at, created_at
	`
	return r.collect(ctx, query, userID, from)
}

// Delete: если строки нет — ErrEventNotFound.
func (r *Repository) Delete(ctx context.Context, userID int64, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM study_events WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления события: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrEventNotFound
	}
	return nil
}

func (r *Repository) Due(ctx context.Context, from, until time.Time) ([]Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM study_events
		WHERE reminded = FALSE AND starts_at BETWEEN $1 AND $2
		ORDER BY starts_at
	`
	return r.collect(ctx, query, from, until)
}

func (r *Repository) MarkReminded(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `UPDATE study_events SET reminded = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("ошибка отметки напоминания: %w", err)
	}
	return nil
}

func (r *Repository) collect(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса событий: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Event])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// MemoryStore — события в памяти для STORAGE_DRIVER=memory и тестов.
type MemoryStore struct {
	mu     sync.Mutex
	events map[string]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]Event)}
}

func (s *MemoryStore) Add(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
	return nil
}

func (s *MemoryStore) Upcoming(_ context.Context, userID int64, from time.Time) ([]Event, error) {
	return s.filter(func(e Event) bool {
		return e.UserID == userID && !e.StartsAt.Before(from)
	}), nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok || e.UserID != userID {
		return common.ErrEventNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *MemoryStore) Due(_ context.Context, from, until time.Time) ([]Event, error) {
	return s.filter(func(e Event) bool {
		return !e.Reminded && !e.StartsAt.Before(from) && !e.StartsAt.After(until)
	}), nil
}

func (s *MemoryStore) MarkReminded(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[id]; ok {
		e.Reminded = true
		s.events[id] = e
	}
	return nil
}

func (s *MemoryStore) filter(keep func(Event) bool) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
