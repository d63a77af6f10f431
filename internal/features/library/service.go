package library

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
)

// Limits — ограничения библиотеки одного ученика.
type Limits struct {
	MaxDocuments int
	MaxRunes     int   // длиннее обрезаем
	MaxFileBytes int64 // больше не скачиваем
}

// DefaultLimits — ограничения по умолчанию.
var DefaultLimits = Limits{MaxDocuments: 20, MaxRunes: 12000, MaxFileBytes: 10 << 20}

const titleRunes = 40

// Service ведёт библиотеку документов.
type Service struct {
	store     Store
	extractor Extractor
	timeout   time.Duration
	limits    Limits
	clock     common.Clock
	newID     common.IDGenerator
}

// NewService создаёт сервис библиотеки. extractor нужен только для фото и PDF.
func NewService(store Store, extractor Extractor, timeout time.Duration, limits Limits, clock common.Clock, newID common.IDGenerator) *Service {
	return &Service{
		store:     store,
		extractor: extractor,
		timeout:   timeout,
		limits:    limits,
		clock:     clock,
		newID:     newID,
	}
}

// Limits возвращает ограничения.
func (s *Service) Limits() Limits { return s.limits }

// SaveText сохраняет текст из /savedoc. Первая строка — название,
// если за ней есть ещё текст.
func (s *Service) SaveText(ctx context.Context, userID int64, text string) (Document, error) {
	title, body := splitTitle(text)
	return s.add(ctx, userID, title, body, SourceText)
}

// Import извлекает текст из файла и сохраняет его.
func (s *Service) Import(ctx context.Context, userID int64, f File, title string, src Source) (Document, error) {
	if s.limits.MaxFileBytes > 0 && int64(len(f.Data)) > s.limits.MaxFileBytes {
		return Document{}, common.ErrFileTooLarge
	}
	text, err := s.extract(ctx, f)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id": userID,
			"file":    f.Name,
			"mime":    f.MIME,
		}).Warn("Не удалось извлечь текст из файла")
		return Document{}, err
	}
	if title = strings.TrimSpace(title); title == "" {
		title = strings.TrimSuffix(path.Base(f.Name), path.Ext(f.Name))
	}
	if title == "" || title == "." {
		title = "Tài liệu"
	}
	return s.add(ctx, userID, title, text, src)
}

func (s *Service) extract(ctx context.Context, f File) (string, error) {
	switch detectKind(f) {
	case kindPlain:
		return plainText(f.Data)
	case kindWord:
		return wordText(f.Data)
	case kindSheet:
		return sheetText(f.Data)
	case kindModel:
		ectx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.extractor.ExtractText(ectx, f)
	}
	return "", common.ErrUnsupportedFile
}

func (s *Service) add(ctx context.Context, userID int64, title, text string, src Source) (Document, error) {
	text = cleanText(text, s.limits.MaxRunes)
	if text == "" {
		return Document{}, common.ErrEmptyText
	}
	docs, err := s.store.List(ctx, userID)
	if err != nil {
		return Document{}, err
	}
	if s.limits.MaxDocuments > 0 && len(docs) >= s.limits.MaxDocuments {
		return Document{}, common.ErrLimitReached
	}
	if title = strings.TrimSpace(title); title == "" {
		title = shorten(text, titleRunes)
	}

	d := Document{
		ID:        s.newID(),
		UserID:    userID,
		Title:     shorten(title, titleRunes*2),
		Content:   text,
		Source:    src,
		CreatedAt: s.clock(),
	}
	if err := s.store.Add(ctx, d); err != nil {
		return Document{}, err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"source":  src,
		"runes":   utf8.RuneCountInString(text),
	}).Info("Документ сохранён в библиотеку")
	return d, nil
}

// List — документы ученика.
func (s *Service) List(ctx context.Context, userID int64) ([]Document, error) {
	return s.store.List(ctx, userID)
}

// Get — документ по номеру в списке (с 1).
func (s *Service) Get(ctx context.Context, userID int64, n int) (Document, error) {
	docs, err := s.store.List(ctx, userID)
	if err != nil {
		return Document{}, err
	}
	if n < 1 || n > len(docs) {
		return Document{}, common.ErrDocumentNotFound
	}
	return docs[n-1], nil
}

// Remove удаляет документ по номеру в списке.
func (s *Service) Remove(ctx context.Context, userID int64, n int) (Document, error) {
	d, err := s.Get(ctx, userID, n)
	if err != nil {
		return Document{}, err
	}
	if err := s.store.Delete(ctx, userID, d.ID); err != nil {
		return Document{}, fmt.Errorf("документ %s: %w", d.ID, err)
	}
	return d, nil
}

func splitTitle(text string) (title, body string) {
	text = strings.TrimSpace(text)
	first, rest, found := strings.Cut(text, "\n")
	if !found || strings.TrimSpace(rest) == "" {
		return "", text
	}
	return strings.TrimSpace(first), rest
}

func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
