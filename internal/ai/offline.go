package ai

import (
	"context"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/library"
	"serotonyl.ru/lumi-bot/internal/features/quiz"
	"serotonyl.ru/lumi-bot/internal/features/report"
	"serotonyl.ru/lumi-bot/internal/features/tutor"
)

var (
	_ quiz.Provider     = Offline{}
	_ report.Summarizer = Offline{}
	_ tutor.Assistant   = Offline{}
	_ library.Extractor = Offline{}
)

// Offline подставляется, когда ключ модели не задан: бот работает,
// а всё, что требует модели, отвечает ErrProviderUnavailable.
type Offline struct{}

func (Offline) RequestQuestion(context.Context, string, quiz.Difficulty) (quiz.Question, error) {
	return quiz.Question{}, common.ErrProviderUnavailable
}

func (Offline) RequestQuestionBatch(context.Context, string, int) ([]quiz.Question, error) {
	return nil, common.ErrProviderUnavailable
}

func (Offline) RequestPairs(context.Context, string) ([]quiz.Pair, error) {
	return nil, common.ErrProviderUnavailable
}

func (Offline) RequestQuestionFromText(context.Context, string) (quiz.Question, error) {
	return quiz.Question{}, common.ErrProviderUnavailable
}

func (Offline) RequestParentSummary(context.Context, report.Stats) (string, error) {
	return "", common.ErrProviderUnavailable
}

func (Offline) Chat(context.Context, []tutor.Turn, string) (string, error) {
	return "", common.ErrProviderUnavailable
}

func (Offline) SuggestStudyMethod(context.Context, string) (string, error) {
	return "", common.ErrProviderUnavailable
}

func (Offline) ExtractText(context.Context, library.File) (string, error) {
	return "", common.ErrProviderUnavailable
}
