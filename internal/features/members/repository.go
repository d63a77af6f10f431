// Package members — repository.go отвечает за операции с таблицей members в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package members

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Upsert добавляет участника. На конфликте по user_id обновляет только
// имя/username и флаг родителя. xmax = 0 у только что вставленной строки.
func (r *Repository) Upsert(ctx context.Context, m Member) (bool, error) {
	query := `
		INSERT INTO members (user_id, username, first_name, last_name, is_parent, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    is_parent = EXCLUDED.is_parent,
		    updated_at = NOW()
		RETURNING (xmax = 0)
	`
	var created bool
	err := r.db.QueryRow(ctx, query,
		m.UserID, m.Username, m.FirstName, m.LastName, m.IsParent, time.Now().UTC(),
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("ошибка создания/обновления участника: %w", err)
	}
	return created, nil
}

// Get: если не найден — ErrNotFound.
func (r *Repository) Get(ctx context.Context, userID int64) (Member, error) {
	query := `
		SELECT user_id, username, first_name, last_name, is_parent, joined_at, updated_at
		FROM members
		WHERE user_id = $1
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return Member{}, fmt.Errorf("ошибка чтения участника (user_id=%d): %w", userID, err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Member])
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, fmt.Errorf("user_id=%d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return Member{}, fmt.Errorf("ошибка чтения участника (user_id=%d): %w", userID, err)
	}
	return m, nil
}

func (r *Repository) Students(ctx context.Context) ([]Member, error) {
	query := `
		SELECT user_id, username, first_name, last_name, is_parent, joined_at, updated_at
		FROM members
		WHERE is_parent = FALSE
		ORDER BY first_name, user_id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса участников: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Member])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// MemoryStore — реестр в памяти для STORAGE_DRIVER=memory и тестов.
type MemoryStore struct {
	mu      sync.RWMutex
	members map[int64]Member
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{members: make(map[int64]Member), now: time.Now}
}

func (s *MemoryStore) Upsert(_ context.Context, m Member) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	old, ok := s.members[m.UserID]
	if ok {
		m.JoinedAt = old.JoinedAt
	} else {
		m.JoinedAt = now
	}
	m.UpdatedAt = now
	s.members[m.UserID] = m
	return !ok, nil
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[userID]
	if !ok {
		return Member{}, fmt.Errorf("user_id=%d: %w", userID, ErrNotFound)
	}
	return m, nil
}

func (s *MemoryStore) Students(context.Context) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Member
	for _, m := range s.members {
		if !m.IsParent {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
