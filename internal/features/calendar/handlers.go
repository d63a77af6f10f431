package calendar

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
)

const planUsage = "🗓 Thêm lịch: /plan <ngày> <giờ> [hoc|baitap|thi] <tên>\n" +
	"Ví dụ: /plan 20/10 18:00 baitap Toán chương 2\n" +
	"Xóa: /unplan <số>"

// Handler обрабатывает /plan и /unplan.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandlePlan — без аргументов показывает расписание, иначе добавляет событие.
func (h *Handler) HandlePlan(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.sendList(ctx, chatID, userID)
		return
	}
	e, err := h.service.Plan(ctx, userID, args)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.sendText(chatID, "✅ Đã thêm vào lịch:\n"+FormatEvent(e, h.service.Location()))
}

// HandleUnplan — /unplan <номер>.
func (h *Handler) HandleUnplan(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.sendText(chatID, planUsage)
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		h.replyError(chatID, common.ErrEventNotFound)
		return
	}
	e, err := h.service.Cancel(ctx, userID, n)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.sendText(chatID, "🗑 Đã xóa: "+e.Title)
}

func (h *Handler) sendList(ctx context.Context, chatID, userID int64) {
	events, err := h.service.Upcoming(ctx, userID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	if len(events) == 0 {
		h.sendText(chatID, "🗓 Chưa có lịch nào.\n\n"+planUsage)
		return
	}
	var sb strings.Builder
	sb.WriteString("🗓 Lịch sắp tới:\n")
	for i, e := range events {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, FormatEvent(e, h.service.Location()))
	}
	sb.WriteString("\n" + planUsage)
	h.sendText(chatID, sb.String())
}

func (h *Handler) replyError(chatID int64, err error) {
	text, known := common.UserMessage(err)
	if !known {
		log.WithError(err).Error("Ошибка расписания")
	}
	h.sendText(chatID, text)
}

func (h *Handler) sendText(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
