// Package economy — economy.go содержит чистые операции над снимком профиля.
// Каждая операция возвращает новый снимок; при ошибке возвращается
// исходный снимок без изменений.
package economy

import (
	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

// CreditPoints начисляет баллы: растут и баланс, и сумма за всё время.
func CreditPoints(p profile.Profile, amount int64) (profile.Profile, error) {
	if amount <= 0 {
		return p, common.ErrInvalidAmount
	}
	next := p.Clone()
	next.Points += amount
	next.TotalPointsEarned += amount
	return next, nil
}

// debit проверяет цену и баланс и списывает cost с копии снимка.
func debit(p profile.Profile, cost int64) (profile.Profile, error) {
	if cost <= 0 {
		return p, common.ErrInvalidAmount
	}
	if p.Points < cost {
		return p, common.ErrInsufficientFunds
	}
	next := p.Clone()
	next.Points -= cost
	return next, nil
}

// SpendAndGrantTime покупает минуты. Если appID пустой, минуты добавляются
// к дневному лимиту, иначе — к лимиту приложения.
func SpendAndGrantTime(p profile.Profile, cost int64, minutes int, appID string) (profile.Profile, error) {
	if minutes <= 0 {
		return p, common.ErrInvalidAmount
	}
	idx := -1
	if appID != "" {
		if idx = p.AppIndex(appID); idx < 0 {
			return p, common.ErrInvalidAppReference
		}
	}

	next, err := debit(p, cost)
	if err != nil {
		return p, err
	}
	next.EarnedTime += minutes
	if idx >= 0 {
		next.Apps[idx].Limit += minutes
	} else {
		next.DailyLimit += minutes
	}
	return next, nil
}

// BuySkipPass покупает один пропуск вопроса.
func BuySkipPass(p profile.Profile, cost int64) (profile.Profile, error) {
	next, err := debit(p, cost)
	if err != nil {
		return p, err
	}
	next.Inventory.SkipPasses++
	return next, nil
}

// BuyAvatar покупает новый аватар и сразу делает его активным.
func BuyAvatar(p profile.Profile, cost int64, newID common.IDGenerator) (profile.Profile, error) {
	next, err := debit(p, cost)
	if err != nil {
		return p, err
	}
	id := newID()
	for next.Inventory.HasAvatar(id) {
		id = newID()
	}
	next.Inventory.Avatars = append(next.Inventory.Avatars, id)
	next.Inventory.ActiveAvatar = id
	return next, nil
}

// ConsumeSkipPass тратит один пропуск.
func ConsumeSkipPass(p profile.Profile) (profile.Profile, error) {
	if p.Inventory.SkipPasses <= 0 {
		return p, common.ErrNoPassesAvailable
	}
	next := p.Clone()
	next.Inventory.SkipPasses--
	return next, nil
}

// SetActiveAvatar переключает аватар на один из купленных.
func SetActiveAvatar(p profile.Profile, avatarID string) (profile.Profile, error) {
	if !p.Inventory.HasAvatar(avatarID) {
		return p, common.ErrAvatarNotOwned
	}
	if p.Inventory.ActiveAvatar == avatarID {
		return p, profile.ErrUnchanged
	}
	next := p.Clone()
	next.Inventory.ActiveAvatar = avatarID
	return next, nil
}

// Purchase покупает товар из каталога.
func Purchase(p profile.Profile, c Catalog, item Item, newAvatarID common.IDGenerator) (profile.Profile, error) {
	offer, ok := c.Offer(item)
	if !ok {
		return p, common.ErrUnknownItem
	}
	switch item {
	case ItemExtend:
		return SpendAndGrantTime(p, offer.Cost, offer.Minutes, "")
	case ItemSkip:
		return BuySkipPass(p, offer.Cost)
	default:
		return BuyAvatar(p, offer.Cost, newAvatarID)
	}
}

// Redeem обменивает баллы на минуты по курсу каталога.
func Redeem(p profile.Profile, c Catalog, appID string) (profile.Profile, error) {
	return SpendAndGrantTime(p, c.Redeem.Cost, c.Redeem.Minutes, appID)
}
