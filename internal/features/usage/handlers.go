// Package usage — handlers.go обрабатывает команды /status и /apps.
package usage

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

// Handler обрабатывает команды учёта времени.
type Handler struct {
	service      *Service
	bot          *tgbotapi.BotAPI
	lowThreshold int
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, bot *tgbotapi.BotAPI, lowThreshold int) *Handler {
	return &Handler{service: service, bot: bot, lowThreshold: lowThreshold}
}

// HandleStatus — /status: сводка за сегодня.
func (h *Handler) HandleStatus(ctx context.Context, chatID, userID int64) {
	p, err := h.service.Status(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статуса")
		h.sendMessage(chatID, "❌ Không lấy được trạng thái")
		return
	}
	h.sendMessage(chatID, FormatStatus(p, h.lowThreshold)+"\n\n"+FormatApps(p))
}

// HandleApps — /apps: только список приложений.
func (h *Handler) HandleApps(ctx context.Context, chatID, userID int64) {
	p, err := h.service.Status(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения приложений")
		h.sendMessage(chatID, "❌ Không lấy được danh sách ứng dụng")
		return
	}
	h.sendMessage(chatID, FormatApps(p))
}

// FormatStatus — строка состояния дневного лимита.
//
//	⏱ Hôm nay: 1h 30m / 2h (75%)
//	⌛ Còn lại: 30m
//	🎁 Đã kiếm thêm: 15m
func FormatStatus(p profile.Profile, lowThreshold int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⏱ Hôm nay: %s / %s (%d%%)\n",
		common.FormatMinutes(p.UsedTime), common.FormatMinutes(p.DailyLimit), PercentUsed(p))
	fmt.Fprintf(&sb, "⌛ Còn lại: %s\n", common.FormatMinutes(Remaining(p)))
	fmt.Fprintf(&sb, "🎁 Đã kiếm thêm: %s", common.FormatMinutes(p.EarnedTime))

	switch {
	case IsOverLimit(p):
		sb.WriteString("\n\n🔒 Đã hết thời gian hôm nay! Làm /quiz để kiếm thêm.")
	case Remaining(p) < lowThreshold:
		sb.WriteString("\n\n⚠️ Sắp hết thời gian!")
	}
	return sb.String()
}

// FormatApps — список приложений с расходом и блокировкой.
func FormatApps(p profile.Profile) string {
	var sb strings.Builder
	sb.WriteString("📱 Ứng dụng:\n")
	for _, app := range p.Apps {
		state := "🟢"
		switch {
		case app.IsEducational():
			state = "📘"
		case IsLocked(app):
			state = "🔒"
		}
		fmt.Fprintf(&sb, "%s [%s] %s — %s / %s\n",
			state, app.ID, app.Name, common.FormatMinutes(app.UsedTime), common.FormatMinutes(app.Limit))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatAlert — текст уведомления после тика.
func FormatAlert(a Alert, p profile.Profile) string {
	var lines []string
	if a.LimitReached {
		lines = append(lines, "🔒 Đã hết thời gian hôm nay! Làm /quiz để kiếm thêm BP và đổi lấy thời gian.")
	}
	if a.LowTime {
		lines = append(lines, fmt.Sprintf("⚠️ Chỉ còn %s hôm nay.", common.FormatMinutes(Remaining(p))))
	}
	for _, name := range a.LockedApps {
		lines = append(lines, fmt.Sprintf("🔒 %s đã bị khóa vì hết giới hạn.", name))
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
