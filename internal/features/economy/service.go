// Package economy — service.go применяет операции экономики к профилю
// через единственную точку записи profile.Service.
package economy

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

// Service управляет баллами ученика.
type Service struct {
	profiles    *profile.Service
	catalog     Catalog
	newAvatarID common.IDGenerator
}

// NewService создаёт новый сервис экономики.
func NewService(profiles *profile.Service, catalog Catalog, newAvatarID common.IDGenerator) *Service {
	return &Service{profiles: profiles, catalog: catalog, newAvatarID: newAvatarID}
}

// Catalog возвращает цены магазина.
func (s *Service) Catalog() Catalog { return s.catalog }

// GetProfile возвращает текущий снимок (для отображения).
func (s *Service) GetProfile(ctx context.Context, userID int64) (profile.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

// Credit начисляет баллы с указанной причиной.
func (s *Service) Credit(ctx context.Context, userID int64, amount int64, reason string) (profile.Profile, error) {
	return s.profiles.Apply(ctx, userID, reason, func(p profile.Profile) (profile.Profile, error) {
		return CreditPoints(p, amount)
	})
}

// Buy покупает товар магазина.
func (s *Service) Buy(ctx context.Context, userID int64, item Item) (profile.Profile, error) {
	reason := map[Item]string{
		ItemExtend: profile.ReasonStoreExtend,
		ItemSkip:   profile.ReasonStoreSkip,
		ItemAvatar: profile.ReasonStoreAvatar,
	}[item]

	p, err := s.profiles.Apply(ctx, userID, reason, func(p profile.Profile) (profile.Profile, error) {
		return Purchase(p, s.catalog, item, s.newAvatarID)
	})
	if err != nil {
		return p, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"item":    item,
		"points":  p.Points,
	}).Info("Покупка в магазине")
	return p, nil
}

// Redeem обменивает баллы на минуты (appID пустой — общий лимит).
func (s *Service) Redeem(ctx context.Context, userID int64, appID string) (profile.Profile, error) {
	return s.profiles.Apply(ctx, userID, profile.ReasonRedeem, func(p profile.Profile) (profile.Profile, error) {
		return Redeem(p, s.catalog, appID)
	})
}

// SwitchAvatar делает активным один из купленных аватаров.
func (s *Service) SwitchAvatar(ctx context.Context, userID int64, avatarID string) (profile.Profile, error) {
	return s.profiles.Apply(ctx, userID, profile.ReasonAvatarSwitch, func(p profile.Profile) (profile.Profile, error) {
		return SetActiveAvatar(p, avatarID)
	})
}

// History возвращает последние операции с баллами.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]profile.Transaction, error) {
	return s.profiles.History(ctx, userID, limit)
}
