// Package economy — handlers.go обрабатывает команды:
// /balance, /history, /store, /buy, /redeem, /avatar.
package economy

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

const historyLimit = 10

// Handler обрабатывает команды экономики.
type Handler struct {
	service *Service         // Сервис экономики
	bot     *tgbotapi.BotAPI // API Telegram для отправки ответов
	loc     *time.Location   // Пояс для дат в истории
}

// NewHandler создаёт новый обработчик экономических команд.
func NewHandler(service *Service, bot *tgbotapi.BotAPI, loc *time.Location) *Handler {
	return &Handler{service: service, bot: bot, loc: loc}
}

// HandleBalance — /balance: баланс, заработано всего, звание.
//
//	💰 Số dư: 150 BP
//	🏆 Tổng tích lũy: 1.250 BP
//	🦉 Học giả — còn 3.750 BP để lên 🦉 Triết gia
func (h *Handler) HandleBalance(ctx context.Context, chatID, userID int64) {
	p, err := h.service.GetProfile(ctx, userID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.sendMessage(chatID, FormatBalance(p))
}

// FormatBalance собирает текст баланса.
func FormatBalance(p profile.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 Số dư: %s\n", common.FormatPoints(p.Points))
	fmt.Fprintf(&sb, "🏆 Tổng tích lũy: %s\n", common.FormatPoints(p.TotalPointsEarned))
	rank := RankOf(p.TotalPointsEarned)
	if next, left, ok := NextRank(p.TotalPointsEarned); ok {
		fmt.Fprintf(&sb, "%s — còn %s để lên %s", rank.Title(), common.FormatPoints(left), next.Title())
	} else {
		sb.WriteString(rank.Title())
	}
	return sb.String()
}

// HandleHistory — /history: последние операции с баллами.
func (h *Handler) HandleHistory(ctx context.Context, chatID, userID int64) {
	txs, err := h.service.History(ctx, userID, historyLimit)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	if len(txs) == 0 {
		h.sendMessage(chatID, "📭 Chưa có giao dịch nào.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 Lịch sử BP:\n\n")
	for _, t := range txs {
		fmt.Fprintf(&sb, "%s  %s  %s (còn %s)\n",
			common.FormatDateTime(t.CreatedAt, h.loc),
			common.FormatPointsDelta(t.Delta),
			ReasonTitle(t.Reason),
			common.FormatPoints(t.BalanceAfter))
	}
	h.sendMessage(chatID, sb.String())
}

// ReasonTitle — подпись причины операции.
func ReasonTitle(reason string) string {
	switch reason {
	case profile.ReasonQuizAnswer:
		return "Trả lời đúng"
	case profile.ReasonExplanation:
		return "Đọc lời giải thích"
	case profile.ReasonStreak:
		return "Thưởng chuỗi ngày"
	case profile.ReasonMatchRound:
		return "Ghép cặp"
	case profile.ReasonRedeem:
		return "Đổi thời gian"
	case profile.ReasonStoreExtend:
		return "Mua thêm giờ"
	case profile.ReasonStoreSkip:
		return "Mua thẻ bỏ qua"
	case profile.ReasonStoreAvatar:
		return "Mua ảnh đại diện"
	default:
		return reason
	}
}

// HandleStore — /store: каталог магазина.
func (h *Handler) HandleStore(ctx context.Context, chatID, userID int64) {
	p, err := h.service.GetProfile(ctx, userID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	c := h.service.Catalog()
	text := fmt.Sprintf(
		"🛒 Cửa hàng (số dư: %s)\n\n"+
			"⏱ /buy extend — +%d phút: %s\n"+
			"⏭ /buy skip — thẻ bỏ qua câu hỏi: %s\n"+
			"🎭 /buy avatar — ảnh đại diện mới: %s\n\n"+
			"🔁 /redeem [app] — đổi %s lấy %d phút",
		common.FormatPoints(p.Points),
		c.Extend.Minutes, common.FormatPoints(c.Extend.Cost),
		common.FormatPoints(c.Skip.Cost),
		common.FormatPoints(c.Avatar.Cost),
		common.FormatPoints(c.Redeem.Cost), c.Redeem.Minutes,
	)
	h.sendMessage(chatID, text)
}

// HandleBuy — /buy extend|skip|avatar.
func (h *Handler) HandleBuy(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Cú pháp: /buy extend|skip|avatar")
		return
	}
	item := Item(strings.ToLower(args[0]))

	p, err := h.service.Buy(ctx, userID, item)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	var text string
	switch item {
	case ItemExtend:
		text = fmt.Sprintf("✅ Đã thêm %d phút! Giới hạn hôm nay: %s", h.service.Catalog().Extend.Minutes, common.FormatMinutes(p.DailyLimit))
	case ItemSkip:
		text = fmt.Sprintf("✅ Đã mua thẻ bỏ qua. Bạn có %d thẻ.", p.Inventory.SkipPasses)
	default:
		text = fmt.Sprintf("✅ Ảnh đại diện mới: %s", p.Inventory.ActiveAvatar)
	}
	h.sendMessage(chatID, text+"\n💰 Số dư: "+common.FormatPoints(p.Points))
}

// HandleRedeem — /redeem [appId]: обмен баллов на минуты.
func (h *Handler) HandleRedeem(ctx context.Context, chatID, userID int64, args []string) {
	appID := ""
	if len(args) > 0 {
		appID = args[0]
	}

	p, err := h.service.Redeem(ctx, userID, appID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	minutes := h.service.Catalog().Redeem.Minutes
	if appID == "" {
		h.sendMessage(chatID, fmt.Sprintf("✅ +%d phút cho giới hạn chung (%s).\n💰 Số dư: %s",
			minutes, common.FormatMinutes(p.DailyLimit), common.FormatPoints(p.Points)))
		return
	}
	app, _ := p.App(appID)
	h.sendMessage(chatID, fmt.Sprintf("✅ +%d phút cho %s (%s).\n💰 Số dư: %s",
		minutes, app.Name, common.FormatMinutes(app.Limit), common.FormatPoints(p.Points)))
}

// HandleAvatar — /avatar [id]: без аргумента показывает коллекцию.
func (h *Handler) HandleAvatar(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		p, err := h.service.GetProfile(ctx, userID)
		if err != nil {
			h.replyError(chatID, err)
			return
		}
		var sb strings.Builder
		sb.WriteString("🎭 Bộ sưu tập:\n")
		for _, a := range p.Inventory.Avatars {
			mark := "  "
			if a == p.Inventory.ActiveAvatar {
				mark = "👉"
			}
			fmt.Fprintf(&sb, "%s %s\n", mark, a)
		}
		sb.WriteString("\nĐổi: /avatar <id>")
		h.sendMessage(chatID, sb.String())
		return
	}

	p, err := h.service.SwitchAvatar(ctx, userID, args[0])
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.sendMessage(chatID, "✅ Ảnh đại diện: "+p.Inventory.ActiveAvatar)
}

func (h *Handler) replyError(chatID int64, err error) {
	text, known := common.UserMessage(err)
	if !known {
		log.WithError(err).Error("Ошибка экономики")
	}
	h.sendMessage(chatID, text)
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
