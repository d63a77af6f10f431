// Package tutor — репетитор: /ask отвечает на вопросы с учётом
// нескольких последних реплик, /method подсказывает метод учёбы.
package tutor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
)

// Role — автор реплики.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn — одна реплика диалога.
type Turn struct {
	Role Role
	Text string
}

// Assistant — модель, которая отвечает ученику.
type Assistant interface {
	Chat(ctx context.Context, history []Turn, message string) (string, error)
	SuggestStudyMethod(ctx context.Context, problem string) (string, error)
}

// DefaultHistoryLimit — сколько реплик помним на ученика.
const DefaultHistoryLimit = 10

// Service хранит короткую историю диалога в памяти.
type Service struct {
	assistant Assistant
	timeout   time.Duration
	enabled   bool
	limit     int

	mu        sync.Mutex
	histories map[int64][]Turn
}

// NewService создаёт репетитора.
func NewService(assistant Assistant, timeout time.Duration, enabled bool) *Service {
	return &Service{
		assistant: assistant,
		timeout:   timeout,
		enabled:   enabled,
		limit:     DefaultHistoryLimit,
		histories: make(map[int64][]Turn),
	}
}

// Ask задаёт вопрос репетитору. В историю попадают только удачные обмены.
func (s *Service) Ask(ctx context.Context, userID int64, message string) (string, error) {
	if !s.enabled {
		return "", common.ErrFeatureDisabled
	}
	message = strings.TrimSpace(message)

	s.mu.Lock()
	history := append([]Turn(nil), s.histories[userID]...)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	answer, err := s.assistant.Chat(ctx, history, message)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = fmt.Errorf("пустой ответ")
	}
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Репетитор не ответил")
		return "", fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
	}

	s.mu.Lock()
	h := append(s.histories[userID], Turn{Role: RoleUser, Text: message}, Turn{Role: RoleAssistant, Text: answer})
	if len(h) > s.limit {
		h = append([]Turn(nil), h[len(h)-s.limit:]...)
	}
	s.histories[userID] = h
	s.mu.Unlock()
	return answer, nil
}

// Method подсказывает метод учёбы для описанной проблемы.
func (s *Service) Method(ctx context.Context, problem string) (string, error) {
	if !s.enabled {
		return "", common.ErrFeatureDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	answer, err := s.assistant.SuggestStudyMethod(ctx, strings.TrimSpace(problem))
	if err == nil && strings.TrimSpace(answer) == "" {
		err = fmt.Errorf("пустой ответ")
	}
	if err != nil {
		log.WithError(err).Warn("Не удалось подобрать метод")
		return "", fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
	}
	return answer, nil
}

// Forget очищает историю ученика.
func (s *Service) Forget(userID int64) {
	s.mu.Lock()
	delete(s.histories, userID)
	s.mu.Unlock()
}

// History возвращает копию истории.
func (s *Service) History(userID int64) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.histories[userID]...)
}
