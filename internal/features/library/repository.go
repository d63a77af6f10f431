// Package library — repository.go хранит документы в таблице library_documents.
package library

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/lumi-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Add(ctx context.Context, d Document) error {
	query := `
		INSERT INTO library_documents (id, user_id, title, content, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.Exec(ctx, query, d.ID, d.UserID, d.Title, d.Content, string(d.Source), d.CreatedAt); err != nil {
		return fmt.Errorf("ошибка сохранения документа: %w", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, userID int64) ([]Document, error) {
	query := `
		SELECT id, user_id, title, content, source, created_at
		FROM library_documents
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса документов: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Document])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// Delete: если строки нет — ErrDocumentNotFound.
func (r *Repository) Delete(ctx context.Context, userID int64, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM library_documents WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления документа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrDocumentNotFound
	}
	return nil
}

// MemoryStore — документы в памяти для STORAGE_DRIVER=memory и тестов.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[int64][]Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[int64][]Document)}
}

func (s *MemoryStore) Add(_ context.Context, d Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[d.UserID] = append(s.docs[d.UserID], d)
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID int64) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Document(nil), s.docs[userID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.docs[userID]
	for i, d := range docs {
		if d.ID == id {
			s.docs[userID] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return common.ErrDocumentNotFound
}
