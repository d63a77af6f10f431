// Package members — handlers.go обрабатывает вступление в семейный чат.
package members

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Handler обрабатывает события участников.
type Handler struct {
	service *Service
}

// NewHandler создаёт новый обработчик событий участников.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleNewChatMembers регистрирует всех, кто вступил в семейный чат,
// чтобы родители видели ребёнка ещё до первого сообщения боту.
func (h *Handler) HandleNewChatMembers(ctx context.Context, newMembers []tgbotapi.User) {
	for _, user := range newMembers {
		if user.IsBot {
			continue
		}
		if err := h.service.Register(ctx, user.ID, InfoFromUser(&user)); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Ошибка регистрации нового участника")
		}
	}
}

// InfoFromUser переносит данные Telegram-пользователя.
func InfoFromUser(u *tgbotapi.User) Info {
	return Info{Username: u.UserName, FirstName: u.FirstName, LastName: u.LastName}
}
