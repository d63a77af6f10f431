package tutor

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
)

// Handler обрабатывает /ask, /method и /forget.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleAsk — /ask <вопрос>.
func (h *Handler) HandleAsk(ctx context.Context, chatID, userID int64, text string) {
	if strings.TrimSpace(text) == "" {
		h.sendMessage(chatID, "💬 Hỏi gia sư: /ask <câu hỏi của bạn>")
		return
	}
	h.typing(chatID)
	answer, err := h.service.Ask(ctx, userID, text)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.sendMessage(chatID, "🧑‍🏫 "+answer)
}

// HandleMethod — /method <что не получается>.
func (h *Handler) HandleMethod(ctx context.Context, chatID int64, text string) {
	if strings.TrimSpace(text) == "" {
		h.sendMessage(chatID, "📘 Mô tả khó khăn của bạn: /method <vấn đề>\nVí dụ: /method em hay quên công thức")
		return
	}
	h.typing(chatID)
	answer, err := h.service.Method(ctx, text)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.sendMessage(chatID, "📘 "+answer)
}

// HandleForget — /forget: начать диалог заново.
func (h *Handler) HandleForget(chatID, userID int64) {
	h.service.Forget(userID)
	h.sendMessage(chatID, "🧹 Đã xóa lịch sử trò chuyện.")
}

func (h *Handler) typing(chatID int64) {
	if _, err := h.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.WithError(err).Debug("Не удалось отправить typing")
	}
}

func (h *Handler) replyError(chatID int64, err error) {
	text, known := common.UserMessage(err)
	if !known {
		log.WithError(err).Error("Ошибка репетитора")
	}
	h.sendMessage(chatID, text)
}

func (h *Handler) sendMessage(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
