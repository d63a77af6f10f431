package report

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

// Summarizer пишет текстовую сводку для родителя по статистике.
type Summarizer interface {
	RequestParentSummary(ctx context.Context, stats Stats) (string, error)
}

// exportHistoryLimit — сколько операций с баллами попадает в выгрузку.
const exportHistoryLimit = 500

// Service строит отчёты по профилям учеников.
type Service struct {
	profiles   *profile.Service
	summarizer Summarizer
	timeout    time.Duration
}

func NewService(profiles *profile.Service, summarizer Summarizer, timeout time.Duration) *Service {
	return &Service{profiles: profiles, summarizer: summarizer, timeout: timeout}
}

// Stats возвращает статистику ученика.
func (s *Service) Stats(ctx context.Context, userID int64) (Stats, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return BuildStats(p), nil
}

// Summary возвращает статистику и сводку от модели. Если модель
// недоступна, статистика всё равно возвращается вместе с ошибкой.
func (s *Service) Summary(ctx context.Context, userID int64) (Stats, string, error) {
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return Stats{}, "", err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	text, err := s.summarizer.RequestParentSummary(ctx, stats)
	if err == nil && text == "" {
		err = fmt.Errorf("пустая сводка")
	}
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось получить сводку для родителя")
		return stats, "", fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
	}
	return stats, text, nil
}

// Export собирает XLSX-файл по ученику.
func (s *Service) Export(ctx context.Context, userID int64) ([]byte, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs, err := s.profiles.History(ctx, userID, exportHistoryLimit)
	if err != nil {
		return nil, err
	}
	return ExportXLSX(p, txs, s.profiles.Location())
}

// Digest — утренняя сводка по ученику.
func (s *Service) Digest(ctx context.Context, userID int64, name string) (string, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return FormatDigest(name, p), nil
}
