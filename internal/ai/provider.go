package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/openai/openai-go"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/library"
	"serotonyl.ru/lumi-bot/internal/features/quiz"
	"serotonyl.ru/lumi-bot/internal/features/report"
	"serotonyl.ru/lumi-bot/internal/features/tutor"
)

var (
	_ quiz.Provider     = (*Client)(nil)
	_ report.Summarizer = (*Client)(nil)
	_ tutor.Assistant   = (*Client)(nil)
	_ library.Extractor = (*Client)(nil)
)

// RequestQuestion — один вопрос по теме с учётом сложности.
func (c *Client) RequestQuestion(ctx context.Context, topic string, d quiz.Difficulty) (quiz.Question, error) {
	text, err := c.ask(ctx, systemJSON, questionPrompt(topic, d))
	if err != nil {
		return quiz.Question{}, unavailable(err)
	}
	return parseQuestion(text)
}

// RequestQuestionBatch — набор коротких вопросов для скоростного раунда.
func (c *Client) RequestQuestionBatch(ctx context.Context, topic string, count int) ([]quiz.Question, error) {
	text, err := c.ask(ctx, systemJSON, batchPrompt(topic, count))
	if err != nil {
		return nil, unavailable(err)
	}
	return parseBatch(text, count)
}

// RequestPairs — пары «понятие — определение».
func (c *Client) RequestPairs(ctx context.Context, topic string) ([]quiz.Pair, error) {
	text, err := c.ask(ctx, systemJSON, pairsPrompt(topic))
	if err != nil {
		return nil, unavailable(err)
	}
	return parsePairs(text)
}

// RequestQuestionFromText — вопрос по тексту, который прислал ученик.
func (c *Client) RequestQuestionFromText(ctx context.Context, text string) (quiz.Question, error) {
	out, err := c.ask(ctx, systemJSON, fromTextPrompt(text))
	if err != nil {
		return quiz.Question{}, unavailable(err)
	}
	return parseQuestion(out)
}

// ExtractText переписывает текст с фото или из PDF.
func (c *Client) ExtractText(ctx context.Context, f library.File) (string, error) {
	mimeType := f.MIME
	if mimeType == "" {
		mimeType = mime.TypeByExtension(path.Ext(f.Name))
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)

	var doc openai.ChatCompletionContentPartUnionParam
	if strings.HasPrefix(mimeType, "image/") {
		doc = openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL})
	} else {
		doc = openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
			FileData: openai.String(dataURL),
			Filename: openai.String(f.Name),
		})
	}
	text, err := c.complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemExtract),
		openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(extractPrompt), doc}),
	})
	if err != nil {
		return "", unavailable(err)
	}
	return text, nil
}

// RequestParentSummary — сводка для родителя по статистике.
func (c *Client) RequestParentSummary(ctx context.Context, stats report.Stats) (string, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return "", fmt.Errorf("статистика в JSON: %w", err)
	}
	text, err := c.ask(ctx, systemParent, parentPrompt(string(data)))
	if err != nil {
		return "", unavailable(err)
	}
	return text, nil
}

// Chat — ответ репетитора с учётом истории.
func (c *Client) Chat(ctx context.Context, history []tutor.Turn, message string) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	msgs = append(msgs, openai.SystemMessage(systemTutor))
	for _, t := range history {
		if t.Role == tutor.RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(t.Text))
		} else {
			msgs = append(msgs, openai.UserMessage(t.Text))
		}
	}
	msgs = append(msgs, openai.UserMessage(message))

	text, err := c.complete(ctx, msgs)
	if err != nil {
		return "", unavailable(err)
	}
	return text, nil
}

// SuggestStudyMethod — подсказка метода учёбы.
func (c *Client) SuggestStudyMethod(ctx context.Context, problem string) (string, error) {
	text, err := c.ask(ctx, systemTutor, methodPrompt(problem))
	if err != nil {
		return "", unavailable(err)
	}
	return text, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
}

// extractJSON вырезает JSON-объект из ответа: модели любят
// оборачивать его в ```json ... ``` или добавлять текст вокруг.
func extractJSON(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: в ответе нет JSON", common.ErrProviderUnavailable)
	}
	return s[start : end+1], nil
}

func decode(s string, v any) error {
	raw, err := extractJSON(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: некорректный JSON: %v", common.ErrProviderUnavailable, err)
	}
	return nil
}

func parseQuestion(s string) (quiz.Question, error) {
	var q quiz.Question
	if err := decode(s, &q); err != nil {
		return quiz.Question{}, err
	}
	if err := q.Validate(); err != nil {
		return quiz.Question{}, err
	}
	return q, nil
}

func parseBatch(s string, limit int) ([]quiz.Question, error) {
	var out struct {
		Questions []quiz.Question `json:"questions"`
	}
	if err := decode(s, &out); err != nil {
		return nil, err
	}
	valid := make([]quiz.Question, 0, len(out.Questions))
	for _, q := range out.Questions {
		if q.Validate() == nil {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: нет корректных вопросов", common.ErrProviderUnavailable)
	}
	if limit > 0 && len(valid) > limit {
		valid = valid[:limit]
	}
	return valid, nil
}

func parsePairs(s string) ([]quiz.Pair, error) {
	var out struct {
		Pairs []quiz.Pair `json:"pairs"`
	}
	if err := decode(s, &out); err != nil {
		return nil, err
	}
	if err := quiz.ValidatePairs(out.Pairs); err != nil {
		return nil, err
	}
	return out.Pairs, nil
}
