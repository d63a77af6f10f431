// Package filters решает, обслуживает ли бот данный апдейт.
package filters

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// memberCacheTTL — сколько помним подтверждённое членство в семейном чате.
const memberCacheTTL = 10 * time.Minute

const denyText = "❌ Lumi chỉ dành cho thành viên nhóm gia đình."

// ChatAPI — методы Telegram API, которые нужны фильтру.
type ChatAPI interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ChatFilter пропускает только личные чаты. Если задан семейный чат,
// пользователь должен состоять в нём; родители из PARENT_IDS проходят всегда.
type ChatFilter struct {
	familyChatID int64
	isParent     func(userID int64) bool
	api          ChatAPI
	now          func() time.Time

	mu       sync.Mutex
	verified map[int64]time.Time // user_id → до какого момента доверяем проверке
}

// NewChatFilter создаёт фильтр. familyChatID == 0 отключает проверку членства.
func NewChatFilter(familyChatID int64, isParent func(userID int64) bool, api ChatAPI) *ChatFilter {
	return &ChatFilter{
		familyChatID: familyChatID,
		isParent:     isParent,
		api:          api,
		now:          time.Now,
		verified:     make(map[int64]time.Time),
	}
}

// CheckAccess возвращает true, если апдейт из чата chat от пользователя from
// нужно обработать.
func (f *ChatFilter) CheckAccess(ctx context.Context, chat *tgbotapi.Chat, from *tgbotapi.User) bool {
	if chat == nil || from == nil {
		log.WithField("component", "ChatFilter").Debug("апдейт без чата или отправителя")
		return false
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   chat.ID,
		"chat_type": chat.Type,
		"user_id":   from.ID,
	})

	if !chat.IsPrivate() {
		logger.Debug("deny: не личный чат")
		return false
	}
	if from.IsBot {
		return false
	}
	if f.familyChatID == 0 || (f.isParent != nil && f.isParent(from.ID)) {
		return true
	}
	if f.cached(from.ID) {
		return true
	}

	cm, err := f.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: f.familyChatID,
			UserID: from.ID,
		},
	})
	if err != nil {
		logger.WithError(err).Error("Ошибка проверки членства (getChatMember)")
		return false
	}

	switch cm.Status {
	case "creator", "administrator", "member", "restricted":
		f.remember(from.ID)
		logger.WithField("tg_status", cm.Status).Info("allow: участник семейного чата")
		return true
	default:
		logger.WithField("tg_status", cm.Status).Info("deny: не участник семейного чата")
		if _, err := f.api.Send(tgbotapi.NewMessage(chat.ID, denyText)); err != nil {
			logger.WithError(err).Warn("Не удалось отправить отказ")
		}
		return false
	}
}

func (f *ChatFilter) cached(userID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	until, ok := f.verified[userID]
	if !ok {
		return false
	}
	if f.now().After(until) {
		delete(f.verified, userID)
		return false
	}
	return true
}

func (f *ChatFilter) remember(userID int64) {
	f.mu.Lock()
	f.verified[userID] = f.now().Add(memberCacheTTL)
	f.mu.Unlock()
}
