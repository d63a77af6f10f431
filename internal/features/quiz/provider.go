package quiz

import (
	"context"
	"fmt"

	"serotonyl.ru/lumi-bot/internal/common"
)

// Question — вопрос от провайдера.
// В пакетном режиме Explanation пустой.
type Question struct {
	Text         string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctAnswerIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Pair — пара для мини-игры «найди пару».
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Provider — внешний источник вопросов (генеративная модель).
// Любая ошибка или мусор в ответе — common.ErrProviderUnavailable.
type Provider interface {
	RequestQuestion(ctx context.Context, topic string, d Difficulty) (Question, error)
	RequestQuestionBatch(ctx context.Context, topic string, count int) ([]Question, error)
	RequestPairs(ctx context.Context, topic string) ([]Pair, error)
	RequestQuestionFromText(ctx context.Context, text string) (Question, error)
}

// Validate проверяет только наличие данных: текст, варианты и индекс
// верного ответа внутри списка.
func (q Question) Validate() error {
	if q.Text == "" || len(q.Options) == 0 {
		return fmt.Errorf("%w: пустой вопрос", common.ErrProviderUnavailable)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: индекс ответа %d вне диапазона", common.ErrProviderUnavailable, q.CorrectIndex)
	}
	return nil
}

// ValidatePairs проверяет, что пары не пустые.
func ValidatePairs(pairs []Pair) error {
	if len(pairs) == 0 {
		return fmt.Errorf("%w: нет пар", common.ErrProviderUnavailable)
	}
	for i, p := range pairs {
		if p.Left == "" || p.Right == "" {
			return fmt.Errorf("%w: пустая пара %d", common.ErrProviderUnavailable, i)
		}
	}
	return nil
}
