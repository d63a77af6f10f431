// Package members — service.go регистрирует пользователей и отдаёт
// список учеников родителям.
package members

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Service управляет реестром участников.
type Service struct {
	store    Store
	isParent func(userID int64) bool
}

// NewService создаёт сервис участников. isParent решает, кто родитель.
func NewService(store Store, isParent func(userID int64) bool) *Service {
	return &Service{store: store, isParent: isParent}
}

// Register сохраняет пользователя при первом контакте или обновляет имя,
// если оно поменялось в Telegram.
func (s *Service) Register(ctx context.Context, userID int64, info Info) error {
	created, err := s.store.Upsert(ctx, Member{
		UserID:    userID,
		Username:  info.Username,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		IsParent:  s.isParent(userID),
	})
	if err != nil {
		return fmt.Errorf("ошибка регистрации участника: %w", err)
	}
	if created {
		log.WithFields(log.Fields{
			"user_id":  userID,
			"username": info.Username,
		}).Info("Новый участник зарегистрирован")
	}
	return nil
}

// Get возвращает участника по Telegram user ID.
func (s *Service) Get(ctx context.Context, userID int64) (Member, error) {
	return s.store.Get(ctx, userID)
}

// Students — ученики для выбора родителем.
func (s *Service) Students(ctx context.Context) ([]Member, error) {
	return s.store.Students(ctx)
}

// DisplayName — имя ученика или его id, если он ещё не писал боту.
func (s *Service) DisplayName(ctx context.Context, userID int64) string {
	m, err := s.store.Get(ctx, userID)
	if err != nil {
		m = Member{UserID: userID}
	}
	return m.DisplayName()
}
