// Package ai — клиент OpenAI-совместимой модели. Генерирует вопросы,
// пары для мини-игры, сводки для родителей и ответы репетитора.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	log "github.com/sirupsen/logrus"
)

// Options — параметры подключения.
type Options struct {
	APIKey  string
	BaseURL string // пусто — api.openai.com
	Model   string
	// MaxRetries — повторы клиента при 429/5xx.
	MaxRetries int
}

// Client — обёртка над openai-go.
type Client struct {
	client openai.Client
	model  string
}

// New создаёт клиента. Без ключа модель недоступна.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY не задан")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &Client{
		client: openai.NewClient(reqOpts...),
		model:  opts.Model,
	}, nil
}

// complete отправляет диалог и возвращает текст первого варианта.
func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("запрос к модели: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("модель не вернула ни одного варианта")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	log.WithFields(log.Fields{
		"model":  c.model,
		"length": len(text),
	}).Debug("Ответ модели получен")
	return text, nil
}

// ask — один системный промпт и одно сообщение пользователя.
func (c *Client) ask(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(user),
	})
}
