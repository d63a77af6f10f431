// Package parent — repository.go работает с таблицами parent_sessions
// и parent_login_attempts.
package parent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с таблицами родительской панели.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateSession(ctx context.Context, s Session) error {
	query := `
		INSERT INTO parent_sessions (user_id, session_token, authenticated_at, expires_at, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
	`
	if _, err := r.db.Exec(ctx, query, s.UserID, s.Token, s.AuthenticatedAt, s.ExpiresAt); err != nil {
		return fmt.Errorf("ошибка создания сессии: %w", err)
	}
	return nil
}

func (r *Repository) ActiveSession(ctx context.Context, userID int64, now time.Time) (Session, error) {
	query := `
		SELECT user_id, session_token, authenticated_at, expires_at
		FROM parent_sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > $2
		ORDER BY authenticated_at DESC
		LIMIT 1
	`
	var s Session
	err := r.db.QueryRow(ctx, query, userID, now).Scan(&s.UserID, &s.Token, &s.AuthenticatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("ошибка чтения сессии: %w", err)
	}
	return s, nil
}

func (r *Repository) DeactivateSessions(ctx context.Context, userID int64) error {
	query := `UPDATE parent_sessions SET is_active = FALSE WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("ошибка завершения сессии: %w", err)
	}
	return nil
}

func (r *Repository) LogAttempt(ctx context.Context, userID int64, success bool, at time.Time) error {
	query := `INSERT INTO parent_login_attempts (user_id, success, attempt_time) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, userID, success, at); err != nil {
		return fmt.Errorf("ошибка записи попытки входа: %w", err)
	}
	return nil
}

// FailedAttemptsSince возвращает количество неудачных попыток начиная с since.
func (r *Repository) FailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM parent_login_attempts
		WHERE user_id = $1 AND success = FALSE AND attempt_time >= $2
	`
	var count int
	if err := r.db.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта попыток: %w", err)
	}
	return count, nil
}

type attempt struct {
	success bool
	at      time.Time
}

// MemoryStore — сессии в памяти для STORAGE_DRIVER=memory и тестов.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
	attempts map[int64][]attempt
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]Session), attempts: make(map[int64][]attempt)}
}

func (m *MemoryStore) CreateSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = s
	return nil
}

func (m *MemoryStore) ActiveSession(_ context.Context, userID int64, now time.Time) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok || !now.Before(s.ExpiresAt) {
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (m *MemoryStore) DeactivateSessions(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *MemoryStore) LogAttempt(_ context.Context, userID int64, success bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[userID] = append(m.attempts[userID], attempt{success: success, at: at})
	return nil
}

func (m *MemoryStore) FailedAttemptsSince(_ context.Context, userID int64, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.attempts[userID] {
		if !a.success && !a.at.Before(since) {
			n++
		}
	}
	return n, nil
}
