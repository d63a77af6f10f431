// Package library — личная библиотека ученика: сохранённые тексты и файлы,
// по которым потом можно сколько угодно раз строить вопросы.
package library

import (
	"context"
	"time"
)

// Source — откуда взялся документ.
type Source string

const (
	SourceText  Source = "text"
	SourceFile  Source = "file"
	SourcePhoto Source = "photo"
)

// Document — сохранённый текст.
type Document struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	Source    Source    `db:"source"`
	CreatedAt time.Time `db:"created_at"`
}

// File — присланный файл, уже скачанный из Telegram.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Extractor достаёт текст из того, что нельзя прочитать локально
// (фото, PDF).
type Extractor interface {
	ExtractText(ctx context.Context, f File) (string, error)
}

// Store — хранилище документов.
type Store interface {
	Add(ctx context.Context, d Document) error
	// List — документы ученика в порядке добавления.
	List(ctx context.Context, userID int64) ([]Document, error)
	Delete(ctx context.Context, userID int64, id string) error
}
