// Package streak — handlers.go обрабатывает команду /streak
// и форматирует сообщения о смене дня.
package streak

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

// Handler обрабатывает команды серий.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт новый обработчик.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleStreak — /streak: серия дней и значки с прогрессом.
func (h *Handler) HandleStreak(ctx context.Context, chatID, userID int64) {
	p, err := h.service.GetProfile(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения серии")
		h.sendMessage(chatID, "❌ Không lấy được chuỗi ngày")
		return
	}
	h.sendMessage(chatID, FormatStreak(p))
}

// FormatStreak собирает текст /streak.
//
//	🔥 Chuỗi: 4 ngày
//
//	🏅 Huy hiệu:
//	⬜ 🔥 Chuỗi 30 ngày — 4/30
//	✅ 🦉 Cú đêm
//	⬜ 🧮 Bậc thầy Toán — 3/20
func FormatStreak(p profile.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔥 Chuỗi: %d ngày\n\n🏅 Huy hiệu:\n", p.StreakDays)
	for _, b := range AllBadges {
		if p.HasBadge(b) {
			fmt.Fprintf(&sb, "✅ %s\n", BadgeTitle(b))
			continue
		}
		cur, need := badgeProgress(p, b)
		fmt.Fprintf(&sb, "⬜ %s — %d/%d\n", BadgeTitle(b), cur, need)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func badgeProgress(p profile.Profile, b profile.Badge) (int, int) {
	switch b {
	case profile.BadgeNightOwl:
		return p.Stats.CorrectAfterLateHour, NightOwlThreshold
	case profile.BadgeMathMaster:
		return p.Stats.ConsecutiveCorrectInTopic, MathMasterThreshold
	default:
		return p.StreakDays, StreakMasterThreshold
	}
}

// FormatOutcome — сообщение о смене дня. Пустая строка — сообщать не о чем.
func FormatOutcome(o Outcome) string {
	var lines []string
	switch {
	case o.Continued:
		lines = append(lines, fmt.Sprintf("🔥 Chuỗi %d ngày! %s", o.Streak, common.FormatPointsDelta(o.Bonus)))
	case o.Broken:
		lines = append(lines, "💧 Chuỗi ngày đã bị gián đoạn. Bắt đầu lại từ hôm nay!")
	}
	for _, b := range o.NewBadges {
		lines = append(lines, "🏅 Huy hiệu mới: "+BadgeTitle(b))
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
