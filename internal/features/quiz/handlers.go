// Package quiz — handlers.go: команды /quiz, /next, /skip, /claim,
// /fromtext, /speed, /match, /pair и inline-кнопки вопросов.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/streak"
)

var optionLetters = []string{"A", "B", "C", "D", "E", "F"}

// Handler обрабатывает команды викторины.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик викторины.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleQuiz — /quiz [тема]. Без темы показывает кнопки с темами.
func (h *Handler) HandleQuiz(ctx context.Context, chatID, userID int64, args string) {
	topic := ResolveTopic(args)
	if topic == "" {
		msg := tgbotapi.NewMessage(chatID, "📚 Chọn chủ đề:")
		msg.ReplyMarkup = TopicKeyboard()
		h.send(msg)
		return
	}
	h.startQuiz(ctx, chatID, userID, topic)
}

func (h *Handler) startQuiz(ctx context.Context, chatID, userID int64, topic string) {
	s, err := h.service.Start(ctx, userID, topic)
	if err != nil {
		h.replyError(chatID, err, topic)
		return
	}
	h.sendQuestion(chatID, s)
}

// HandleNext — /next: следующий вопрос по той же теме.
func (h *Handler) HandleNext(ctx context.Context, chatID, userID int64) {
	s, err := h.service.Next(ctx, userID)
	if err != nil {
		h.replyError(chatID, err, "")
		return
	}
	h.sendQuestion(chatID, s)
}

// HandleSkip — /skip: потратить пропуск.
func (h *Handler) HandleSkip(ctx context.Context, chatID, userID int64) {
	s, err := h.service.Skip(ctx, userID)
	if err != nil {
		h.replyError(chatID, err, "")
		return
	}
	h.sendText(chatID, "⏭ Đã dùng 1 vé bỏ qua.")
	h.sendQuestion(chatID, s)
}

// HandleClaim — /claim: бонус за прочитанное пояснение.
func (h *Handler) HandleClaim(ctx context.Context, chatID, userID int64) {
	p, err := h.service.Claim(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrExplanationLocked) {
			wait := h.service.ClaimWait(userID)
			h.sendText(chatID, fmt.Sprintf("📖 Hãy đọc kỹ giải thích thêm %d giây nữa.", int(wait.Seconds()+0.999)))
			return
		}
		h.replyError(chatID, err, "")
		return
	}
	h.sendText(chatID, fmt.Sprintf("📖 Cảm ơn bạn đã đọc giải thích! %s\n💰 Số dư: %s",
		common.FormatPointsDelta(h.service.Settings().ExplanationBonus), common.FormatPoints(p.Points)))
}

// HandleFromText — /fromtext <текст>: вопрос по присланному тексту.
func (h *Handler) HandleFromText(ctx context.Context, chatID, userID int64, text string) {
	if strings.TrimSpace(text) == "" {
		h.sendText(chatID, "✍️ Dán đoạn văn bản sau lệnh: /fromtext <văn bản>")
		return
	}
	s, err := h.service.FromText(ctx, userID, text)
	if err != nil {
		h.replyError(chatID, err, "")
		return
	}
	h.sendQuestion(chatID, s)
}

// HandleSpeed — /speed [тема]: скоростной раунд.
func (h *Handler) HandleSpeed(ctx context.Context, chatID, userID int64, args string) {
	topic := ResolveTopic(args)
	if topic == "" {
		topic = TopicMath.Label()
	}
	r, err := h.service.StartSpeed(ctx, userID, topic)
	if err != nil {
		h.replyError(chatID, err, "")
		return
	}
	h.sendText(chatID, fmt.Sprintf("⚡ Vòng tốc độ: %d câu trong %d giây!", len(r.Questions), int(h.service.Settings().SpeedDuration.Seconds())))
	h.sendSpeedQuestion(chatID, *r)
}

// HandleMatch — /match [тема]: «найди пару».
func (h *Handler) HandleMatch(ctx context.Context, chatID, userID int64, args string) {
	topic := ResolveTopic(args)
	if topic == "" {
		topic = TopicScience.Label()
	}
	r, err := h.service.StartMatch(ctx, userID, topic)
	if err != nil {
		h.replyError(chatID, err, "")
		return
	}
	h.sendText(chatID, FormatMatch(r)+"\n\nGhép cặp: /pair <số bên trái> <số bên phải>")
}

// HandlePair — /pair <слева> <справа>.
func (h *Handler) HandlePair(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 2 {
		h.sendText(chatID, "Cú pháp: /pair <số bên trái> <số bên phải>")
		return
	}
	left, err1 := strconv.Atoi(args[0])
	right, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		h.sendText(chatID, "Cú pháp: /pair <số bên trái> <số bên phải>")
		return
	}
	r, ok, err := h.service.MatchPair(ctx, userID, left, right)
	if err != nil {
		h.replyError(chatID, err, "")
		return
	}
	switch {
	case r.Done():
		h.sendText(chatID, fmt.Sprintf("🎉 Hoàn thành! Số lần sai: %d. %s",
			r.Mistakes, common.FormatPointsDelta(h.service.Settings().MatchBonus)))
	case ok:
		h.sendText(chatID, "✅ Chính xác!\n\n"+FormatMatch(r))
	default:
		h.sendText(chatID, "❌ Chưa đúng, thử lại nhé.")
	}
}

// HandleCallback обрабатывает кнопки викторины. Вызывается только для
// данных, на которые OwnsCallback ответил true.
func (h *Handler) HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.WithError(err).Warn("Не удалось ответить на callback")
	}
	if cq.Message == nil || cq.From == nil {
		return
	}
	chatID, userID := cq.Message.Chat.ID, cq.From.ID

	cb, err := ParseCallback(cq.Data)
	if err != nil {
		log.WithError(err).WithField("data", cq.Data).Warn("Некорректные данные кнопки")
		return
	}

	switch cb.Action {
	case ActionTopic:
		h.startQuiz(ctx, chatID, userID, cb.Topic.Label())
	case ActionNext:
		h.HandleNext(ctx, chatID, userID)
	case ActionClaim:
		h.HandleClaim(ctx, chatID, userID)
	case ActionSkip:
		h.HandleSkip(ctx, chatID, userID)
	case ActionAnswer:
		s, res, err := h.service.Answer(ctx, userID, cb.ID, cb.Option)
		if err != nil {
			h.replyError(chatID, err, "")
			return
		}
		msg := tgbotapi.NewMessage(chatID, FormatAnswer(s, res))
		msg.ReplyMarkup = afterAnswerKeyboard(s)
		h.send(msg)
	case ActionSpeed:
		r, correct, err := h.service.AnswerSpeed(ctx, userID, cb.ID, cb.Index, cb.Option)
		if err != nil {
			if errors.Is(err, common.ErrRoundExpired) {
				h.sendText(chatID, "⏰ Hết giờ!\n"+FormatSpeedSummary(r))
				return
			}
			h.replyError(chatID, err, "")
			return
		}
		mark := "❌"
		if correct {
			mark = "✅"
		}
		if r.Finished {
			h.sendText(chatID, mark+"\n"+FormatSpeedSummary(r))
			return
		}
		h.sendText(chatID, mark)
		h.sendSpeedQuestion(chatID, r)
	}
}

// TopicKeyboard — кнопки со стандартными темами.
func TopicKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range DefaultTopics {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t.Label(), ActionTopic+":"+string(t)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// FormatQuestion — текст вопроса с буквами вариантов.
func FormatQuestion(topic string, q Question) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "❓ [%s] %s\n", topic, q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "\n%s. %s", optionLetters[i%len(optionLetters)], opt)
	}
	return sb.String()
}

// FormatAnswer — итог ответа: верно/неверно, баллы, пояснение, новые значки.
func FormatAnswer(s Session, res AnswerResult) string {
	var sb strings.Builder
	if s.Correct {
		fmt.Fprintf(&sb, "✅ Chính xác! %s", common.FormatPointsDelta(res.Awarded))
	} else {
		right := s.Question.CorrectIndex
		fmt.Fprintf(&sb, "❌ Chưa đúng. Đáp án: %s. %s", optionLetters[right%len(optionLetters)], s.Question.Options[right])
	}
	if s.Question.Explanation != "" {
		fmt.Fprintf(&sb, "\n\n💡 %s", s.Question.Explanation)
	}
	for _, b := range res.NewBadges {
		fmt.Fprintf(&sb, "\n🏅 Huy hiệu mới: %s", streak.BadgeTitle(b))
	}
	return sb.String()
}

// FormatSpeedSummary — итог скоростного раунда.
func FormatSpeedSummary(r SpeedRound) string {
	return fmt.Sprintf("🏁 Kết quả: %d/%d câu đúng", r.Correct, len(r.Questions))
}

// FormatMatch — два столбца: слева по порядку, справа перемешанные.
// Найденные пары помечены галочкой.
func FormatMatch(r MatchRound) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🧩 Ghép cặp: %s\n", r.Topic)
	for i, p := range r.Pairs {
		mark := ""
		if r.Matched[i] {
			mark = " ✅"
		}
		fmt.Fprintf(&sb, "\n%d. %s%s", i+1, p.Left, mark)
	}
	sb.WriteString("\n")
	for i, idx := range r.RightOrder {
		mark := ""
		if r.Matched[idx] {
			mark = " ✅"
		}
		fmt.Fprintf(&sb, "\n%d. %s%s", i+1, r.Pairs[idx].Right, mark)
	}
	return sb.String()
}

func (h *Handler) sendQuestion(chatID int64, s Session) {
	msg := tgbotapi.NewMessage(chatID, FormatQuestion(s.Topic, s.Question))
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := range s.Question.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(optionLetters[i%len(optionLetters)], answerData(s.QuestionID, i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⏭ Bỏ qua", ActionSkip),
	))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	h.send(msg)
}

func (h *Handler) sendSpeedQuestion(chatID int64, r SpeedRound) {
	q, ok := r.Current()
	if !ok {
		return
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("⚡ %d/%d\n%s", r.Index+1, len(r.Questions), FormatQuestion(r.Topic, q)))
	var row []tgbotapi.InlineKeyboardButton
	for i := range q.Options {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(optionLetters[i%len(optionLetters)], speedData(r.ID, r.Index, i)))
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	h.send(msg)
}

func afterAnswerKeyboard(s Session) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardButtonData("➡️ Câu tiếp", ActionNext)}
	if s.Question.Explanation != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("📖 Đã đọc", ActionClaim))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// replyError отвечает понятным текстом. При сбое провайдера
// предлагает повторить ту же тему.
func (h *Handler) replyError(chatID int64, err error, retryTopic string) {
	text, known := common.UserMessage(err)
	if !known {
		log.WithError(err).Error("Ошибка викторины")
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if retryTopic != "" && errorIsProvider(err) {
		if t, ok := CanonicalTopic(retryTopic); ok {
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔄 Thử lại", ActionTopic+":"+string(t)),
			))
		}
	}
	h.send(msg)
}

func (h *Handler) sendText(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) send(msg tgbotapi.MessageConfig) {
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

func errorIsProvider(err error) bool {
	return errors.Is(err, common.ErrProviderUnavailable)
}
