// Package parent — handlers.go обрабатывает диалог с родителем в личных сообщениях.
// Поток: /parent → пароль → выбор ученика → клавиатура действий → пошаговый ввод.
package parent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/report"
)

// Кнопки меню родителя.
const (
	btnDailyLimit = "⏱ Giới hạn ngày"
	btnAppLimit   = "📱 Giới hạn ứng dụng"
	btnStats      = "📊 Thống kê"
	btnSummary    = "🤖 Báo cáo AI"
	btnExport     = "📥 Xuất Excel"
	btnSwitch     = "👥 Đổi học sinh"
	btnLogout     = "🚪 Đăng xuất"
)

// Handler обрабатывает родительскую панель.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик родительской панели.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleParentCommand — /parent: вход или выбор ученика.
func (h *Handler) HandleParentCommand(ctx context.Context, chatID, userID int64) {
	if !h.service.IsParent(userID) {
		h.replyError(chatID, common.ErrNotParent)
		return
	}
	if err := h.service.RequireSession(ctx, userID); err != nil {
		h.sendMessage(chatID, "🔐 Nhập mật khẩu phụ huynh:")
		h.service.SetDialog(userID, Dialog{Step: StepAwaitPassword})
		return
	}
	h.startSelectStudent(ctx, chatID, userID)
}

// HandleMessage обрабатывает текст родителя, если у него идёт диалог.
// Возвращает false, если сообщение не относится к панели.
func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) bool {
	userID, chatID := msg.From.ID, msg.Chat.ID
	if !h.service.IsParent(userID) {
		return false
	}
	d := h.service.Dialog(userID)
	if d == nil {
		return false
	}
	text := strings.TrimSpace(msg.Text)

	if d.Step == StepAwaitPassword {
		h.handlePassword(ctx, chatID, userID, msg.MessageID, text)
		return true
	}

	if err := h.service.RequireSession(ctx, userID); err != nil {
		h.service.ClearDialog(userID)
		h.replyError(chatID, err)
		return true
	}

	switch d.Step {
	case StepSelectStudent:
		h.handleSelectStudent(ctx, chatID, userID, text)
	case StepMenu:
		h.handleMenu(ctx, chatID, userID, *d, text)
	case StepAwaitDailyLimit:
		h.handleDailyLimit(ctx, chatID, userID, *d, text)
	case StepSelectApp:
		h.handleSelectApp(ctx, chatID, userID, *d, text)
	case StepAwaitAppLimit:
		h.handleAppLimit(ctx, chatID, userID, *d, text)
	default:
		return false
	}
	return true
}

func (h *Handler) handlePassword(ctx context.Context, chatID, userID int64, messageID int, password string) {
	// пароль не должен оставаться в истории чата
	if _, err := h.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.WithError(err).Debug("Не удалось удалить сообщение с паролем")
	}

	if err := h.service.Login(ctx, userID, password); err != nil {
		h.service.ClearDialog(userID)
		h.replyError(chatID, err)
		return
	}
	h.sendMessage(chatID, "✅ Đăng nhập thành công!")
	h.startSelectStudent(ctx, chatID, userID)
}

func (h *Handler) startSelectStudent(ctx context.Context, chatID, userID int64) {
	students, err := h.service.Students(ctx, userID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	if len(students) == 0 {
		h.sendMessage(chatID, "Chưa có học sinh nào. Hãy để con gõ /start cho bot.")
		h.service.ClearDialog(userID)
		return
	}

	var sb strings.Builder
	sb.WriteString("Chọn học sinh (gửi số thứ tự):\n\n")
	for i, m := range students {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, m.DisplayName())
	}
	h.sendMessage(chatID, sb.String())
	h.service.SetDialog(userID, Dialog{Step: StepSelectStudent})
}

func (h *Handler) handleSelectStudent(ctx context.Context, chatID, userID int64, text string) {
	students, err := h.service.Students(ctx, userID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	num, err := strconv.Atoi(text)
	if err != nil || num < 1 || num > len(students) {
		h.sendMessage(chatID, "❌ Số thứ tự không hợp lệ. Thử lại.")
		return
	}
	selected := students[num-1]
	h.service.SetDialog(userID, Dialog{Step: StepMenu, StudentID: selected.UserID})
	h.showMenu(chatID, selected.DisplayName())
}

func (h *Handler) showMenu(chatID int64, name string) {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDailyLimit),
			tgbotapi.NewKeyboardButton(btnAppLimit),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnStats),
			tgbotapi.NewKeyboardButton(btnSummary),
			tgbotapi.NewKeyboardButton(btnExport),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSwitch),
			tgbotapi.NewKeyboardButton(btnLogout),
		),
	)
	msg := tgbotapi.NewMessage(chatID, "👨‍👩‍👧 Học sinh: "+name)
	msg.ReplyMarkup = keyboard
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки клавиатуры")
	}
}

func (h *Handler) handleMenu(ctx context.Context, chatID, userID int64, d Dialog, text string) {
	// любое действие продлевает диалог ещё на 5 минут
	h.service.SetDialog(userID, d)

	switch text {
	case btnDailyLimit:
		p, err := h.service.Student(ctx, userID, d.StudentID)
		if err != nil {
			h.replyError(chatID, err)
			return
		}
		h.sendMessage(chatID, fmt.Sprintf("Giới hạn hiện tại: %d phút. Nhập giới hạn mới (phút):", p.DailyLimit))
		h.service.SetDialog(userID, Dialog{Step: StepAwaitDailyLimit, StudentID: d.StudentID})
	case btnAppLimit:
		p, err := h.service.Student(ctx, userID, d.StudentID)
		if err != nil {
			h.replyError(chatID, err)
			return
		}
		var sb strings.Builder
		sb.WriteString("Chọn ứng dụng (gửi số thứ tự):\n\n")
		for i, app := range p.Apps {
			fmt.Fprintf(&sb, "%d. %s (%s / %s)\n", i+1, app.Name, common.FormatMinutes(app.UsedTime), common.FormatMinutes(app.Limit))
		}
		h.sendMessage(chatID, sb.String())
		h.service.SetDialog(userID, Dialog{Step: StepSelectApp, StudentID: d.StudentID})
	case btnStats:
		stats, err := h.service.Stats(ctx, userID, d.StudentID)
		if err != nil {
			h.replyError(chatID, err)
			return
		}
		h.sendMessage(chatID, report.FormatStats(h.studentName(ctx, d.StudentID), stats))
	case btnSummary:
		h.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
		stats, text, err := h.service.Summary(ctx, userID, d.StudentID)
		if err != nil && !errors.Is(err, common.ErrProviderUnavailable) {
			h.replyError(chatID, err)
			return
		}
		h.sendMessage(chatID, report.FormatStats(h.studentName(ctx, d.StudentID), stats))
		if err != nil {
			h.replyError(chatID, err)
			return
		}
		h.sendMessage(chatID, "🤖 "+text)
	case btnExport:
		data, err := h.service.Export(ctx, userID, d.StudentID)
		if err != nil {
			h.replyError(chatID, err)
			return
		}
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  fmt.Sprintf("lumi-%d.xlsx", d.StudentID),
			Bytes: data,
		})
		if _, err := h.bot.Send(doc); err != nil {
			log.WithError(err).Error("Ошибка отправки выгрузки")
		}
	case btnSwitch:
		h.startSelectStudent(ctx, chatID, userID)
	case btnLogout:
		if err := h.service.Logout(ctx, userID); err != nil {
			log.WithError(err).Error("Ошибка выхода родителя")
		}
		msg := tgbotapi.NewMessage(chatID, "👋 Đã đăng xuất.")
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		if _, err := h.bot.Send(msg); err != nil {
			log.WithError(err).Error("Ошибка отправки сообщения")
		}
	default:
		h.sendMessage(chatID, "Chọn một thao tác trên bàn phím.")
	}
}

func (h *Handler) handleDailyLimit(ctx context.Context, chatID, userID int64, d Dialog, text string) {
	minutes, err := strconv.Atoi(text)
	if err != nil {
		h.sendMessage(chatID, "❌ Nhập số phút, ví dụ: 90")
		return
	}
	p, err := h.service.SetDailyLimit(ctx, userID, d.StudentID, minutes)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Giới hạn ngày: %s", common.FormatMinutes(p.DailyLimit)))
	h.service.SetDialog(userID, Dialog{Step: StepMenu, StudentID: d.StudentID})
}

func (h *Handler) handleSelectApp(ctx context.Context, chatID, userID int64, d Dialog, text string) {
	p, err := h.service.Student(ctx, userID, d.StudentID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	num, err := strconv.Atoi(text)
	if err != nil || num < 1 || num > len(p.Apps) {
		h.sendMessage(chatID, "❌ Số thứ tự không hợp lệ. Thử lại.")
		return
	}
	app := p.Apps[num-1]
	h.sendMessage(chatID, fmt.Sprintf("%s: giới hạn hiện tại %d phút. Nhập giới hạn mới (0 = không giới hạn):", app.Name, app.Limit))
	h.service.SetDialog(userID, Dialog{Step: StepAwaitAppLimit, StudentID: d.StudentID, AppID: app.ID})
}

func (h *Handler) handleAppLimit(ctx context.Context, chatID, userID int64, d Dialog, text string) {
	minutes, err := strconv.Atoi(text)
	if err != nil {
		h.sendMessage(chatID, "❌ Nhập số phút, ví dụ: 30")
		return
	}
	p, err := h.service.SetAppLimit(ctx, userID, d.StudentID, d.AppID, minutes)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	if app, ok := p.App(d.AppID); ok {
		h.sendMessage(chatID, fmt.Sprintf("✅ %s: %s", app.Name, common.FormatMinutes(app.Limit)))
	}
	h.service.SetDialog(userID, Dialog{Step: StepMenu, StudentID: d.StudentID})
}

func (h *Handler) studentName(ctx context.Context, studentID int64) string {
	return h.service.members.DisplayName(ctx, studentID)
}

func (h *Handler) replyError(chatID int64, err error) {
	text, known := common.UserMessage(err)
	if !known {
		log.WithError(err).Error("Ошибка родительской панели")
	}
	h.sendMessage(chatID, text)
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
