// Package bot содержит главный цикл бота: получение апдейтов, фильтрацию
// и маршрутизацию команд по фичам.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/bot/filters"
	"serotonyl.ru/lumi-bot/internal/bot/middleware"
	"serotonyl.ru/lumi-bot/internal/config"
	"serotonyl.ru/lumi-bot/internal/features/calendar"
	"serotonyl.ru/lumi-bot/internal/features/economy"
	"serotonyl.ru/lumi-bot/internal/features/library"
	"serotonyl.ru/lumi-bot/internal/features/members"
	"serotonyl.ru/lumi-bot/internal/features/parent"
	"serotonyl.ru/lumi-bot/internal/features/quiz"
	"serotonyl.ru/lumi-bot/internal/features/streak"
	"serotonyl.ru/lumi-bot/internal/features/tutor"
	"serotonyl.ru/lumi-bot/internal/features/usage"
)

// Handlers — обработчики фич, между которыми бот распределяет апдейты.
type Handlers struct {
	Members  *members.Handler
	Economy  *economy.Handler
	Usage    *usage.Handler
	Streak   *streak.Handler
	Quiz     *quiz.Handler
	Tutor    *tutor.Handler
	Parent   *parent.Handler
	Calendar *calendar.Handler
	Library  *library.Handler
}

// Services — сервисы, которые бот вызывает сам на каждый апдейт.
type Services struct {
	Members *members.Service
	Streak  *streak.Service
	Parent  *parent.Service
}

// Bot — главная структура бота.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	handlers Handlers
	services Services

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт бота со всеми зависимостями.
func New(api *tgbotapi.BotAPI, cfg *config.Config, handlers Handlers, services Services, chatFilter *filters.ChatFilter) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:         api,
		cfg:         cfg,
		chatFilter:  chatFilter,
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		handlers:    handlers,
		services:    services,
		parser:      NewCommandParser(),
		inflight:    make(chan struct{}, maxInFlight),
	}
}

// Start запускает long polling и блокируется до отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	defer b.rateLimiter.Close()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	// Вступление в семейный чат: регистрируем детей заранее.
	if len(message.NewChatMembers) > 0 {
		if b.cfg.FamilyChatID != 0 && message.Chat != nil && message.Chat.ID == b.cfg.FamilyChatID {
			b.handlers.Members.HandleNewChatMembers(ctx, message.NewChatMembers)
		}
		return
	}

	if !b.chatFilter.CheckAccess(ctx, message.Chat, message.From) {
		return
	}
	middleware.LogMessage(message)

	userID := message.From.ID
	chatID := message.Chat.ID
	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limit")
		return
	}

	b.register(ctx, message.From)

	cmd, isCommand := b.parser.ParseCommand(message.Text)

	// Родительская панель ведёт пошаговый диалог обычными сообщениями.
	if !isCommand && b.handlers.Parent.HandleMessage(ctx, message) {
		return
	}

	isParent := b.services.Parent.IsParent(userID)
	if !isParent {
		b.touchStreak(ctx, chatID, userID)
	}

	switch {
	case isCommand:
		b.routeCommand(ctx, chatID, userID, isParent, cmd)
	case isParent:
		// файлы и вопросы репетитору тоже заводят профиль ученика
		b.sendMessage(chatID, parentOnlyText)
	case library.IsUpload(message):
		b.handlers.Library.HandleUpload(ctx, chatID, userID, message)
	default:
		b.handleText(ctx, chatID, userID, message.Text)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || !b.chatFilter.CheckAccess(ctx, cq.Message.Chat, cq.From) {
		return
	}
	middleware.LogCallback(cq)

	if !b.rateLimiter.Allow(cq.From.ID) {
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "⏳")); err != nil {
			log.WithError(err).Debug("Не удалось ответить на callback")
		}
		return
	}

	if !quiz.OwnsCallback(cq.Data) {
		log.WithField("data", cq.Data).Warn("Неизвестная кнопка")
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			log.WithError(err).Debug("Не удалось ответить на callback")
		}
		return
	}

	// Кнопки викторины только для учеников: иначе родителю заведётся профиль.
	if b.services.Parent.IsParent(cq.From.ID) {
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "Chỉ dành cho học sinh")); err != nil {
			log.WithError(err).Debug("Не удалось ответить на callback")
		}
		return
	}

	b.register(ctx, cq.From)
	b.touchStreak(ctx, cq.Message.Chat.ID, cq.From.ID)
	b.handlers.Quiz.HandleCallback(ctx, cq)
}

// register обновляет карточку участника. Ошибка не мешает ответить.
func (b *Bot) register(ctx context.Context, from *tgbotapi.User) {
	if err := b.services.Members.Register(ctx, from.ID, members.InfoFromUser(from)); err != nil {
		log.WithError(err).WithField("user_id", from.ID).Warn("Register failed")
	}
}

// touchStreak применяет смену дня и сообщает ученику о бонусе или потере серии.
func (b *Bot) touchStreak(ctx context.Context, chatID, userID int64) {
	out, err := b.services.Streak.Touch(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка смены дня")
		return
	}
	if text := streak.FormatOutcome(out); text != "" {
		b.sendMessage(chatID, text)
	}
}

// routeCommand выбирает обработчик по имени команды.
// Родителям доступны только общие команды и /parent.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, isParent bool, cmd Command) {
	if isParent && isStudentCommand(cmd.Name) {
		b.sendMessage(chatID, parentOnlyText)
		return
	}

	h := b.handlers
	switch cmd.Name {
	case "start", "help":
		b.sendMessage(chatID, b.helpText())

	// Экономика
	case "balance":
		h.Economy.HandleBalance(ctx, chatID, userID)
	case "history":
		h.Economy.HandleHistory(ctx, chatID, userID)
	case "store":
		h.Economy.HandleStore(ctx, chatID, userID)
	case "buy":
		h.Economy.HandleBuy(ctx, chatID, userID, cmd.Args)
	case "redeem":
		h.Economy.HandleRedeem(ctx, chatID, userID, cmd.Args)
	case "avatar":
		h.Economy.HandleAvatar(ctx, chatID, userID, cmd.Args)

	// Время
	case "status":
		h.Usage.HandleStatus(ctx, chatID, userID)
	case "apps":
		h.Usage.HandleApps(ctx, chatID, userID)

	case "streak":
		h.Streak.HandleStreak(ctx, chatID, userID)

	// Викторина
	case "quiz":
		h.Quiz.HandleQuiz(ctx, chatID, userID, cmd.Text)
	case "next":
		h.Quiz.HandleNext(ctx, chatID, userID)
	case "skip":
		h.Quiz.HandleSkip(ctx, chatID, userID)
	case "claim":
		h.Quiz.HandleClaim(ctx, chatID, userID)
	case "fromtext":
		h.Quiz.HandleFromText(ctx, chatID, userID, cmd.Text)
	case "speed":
		h.Quiz.HandleSpeed(ctx, chatID, userID, cmd.Text)
	case "match":
		h.Quiz.HandleMatch(ctx, chatID, userID, cmd.Text)
	case "pair":
		h.Quiz.HandlePair(ctx, chatID, userID, cmd.Args)

	// Расписание и библиотека
	case "plan":
		h.Calendar.HandlePlan(ctx, chatID, userID, cmd.Args)
	case "unplan":
		h.Calendar.HandleUnplan(ctx, chatID, userID, cmd.Args)
	case "docs":
		h.Library.HandleDocs(ctx, chatID, userID)
	case "savedoc":
		h.Library.HandleSaveDoc(ctx, chatID, userID, cmd.Text)
	case "deldoc":
		h.Library.HandleDeleteDoc(ctx, chatID, userID, cmd.Args)
	case "quizdoc":
		if text, ok := h.Library.DocumentText(ctx, chatID, userID, cmd.Args); ok {
			h.Quiz.HandleFromText(ctx, chatID, userID, text)
		}

	// Репетитор
	case "ask":
		h.Tutor.HandleAsk(ctx, chatID, userID, cmd.Text)
	case "method":
		h.Tutor.HandleMethod(ctx, chatID, cmd.Text)
	case "forget":
		h.Tutor.HandleForget(chatID, userID)

	case "parent":
		h.Parent.HandleParentCommand(ctx, chatID, userID)

	default:
		b.sendMessage(chatID, "🤔 Không có lệnh này. Gõ /help để xem danh sách lệnh.")
	}
}

// handleText — сообщение без команды. При включённом репетиторе это вопрос к нему.
func (b *Bot) handleText(ctx context.Context, chatID, userID int64, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if b.cfg.FeatureTutorEnabled {
		b.handlers.Tutor.HandleAsk(ctx, chatID, userID, text)
		return
	}
	b.sendMessage(chatID, "Gõ /help để xem danh sách lệnh.")
}

func (b *Bot) helpText() string {
	var sb strings.Builder
	sb.WriteString("👋 Xin chào! Mình là Lumi.\n")
	sb.WriteString("Trả lời câu hỏi để nhận BP, đổi BP lấy thời gian dùng thiết bị.\n\n")
	sb.WriteString("📚 Học tập\n")
	sb.WriteString("/quiz [chủ đề] — câu hỏi mới\n")
	sb.WriteString("/next — câu tiếp theo\n")
	sb.WriteString("/skip — bỏ qua (dùng thẻ bỏ qua)\n")
	sb.WriteString("/claim — nhận thưởng đọc giải thích\n")
	sb.WriteString("/fromtext <văn bản> — câu hỏi từ tài liệu của bạn\n")
	if b.cfg.FeatureSpeedQuizEnabled {
		sb.WriteString("/speed [chủ đề] — vòng hỏi nhanh\n")
	}
	if b.cfg.FeatureWordMatchEnabled {
		sb.WriteString("/match [chủ đề] — ghép cặp\n")
	}
	if b.cfg.FeatureTutorEnabled {
		sb.WriteString("/ask <câu hỏi> — hỏi gia sư\n")
		sb.WriteString("/method <vấn đề> — gợi ý phương pháp học\n")
	}
	sb.WriteString("\n🗓 Lịch và tài liệu\n")
	sb.WriteString("/plan — lịch học, thêm: /plan 20/10 18:00 baitap Toán\n")
	sb.WriteString("/docs — thư viện tài liệu (gửi tệp hoặc ảnh để lưu)\n")
	sb.WriteString("/quizdoc <số> — câu hỏi từ tài liệu đã lưu\n")
	sb.WriteString("\n💰 Điểm thưởng\n")
	sb.WriteString("/balance — số dư\n")
	sb.WriteString("/history — lịch sử điểm\n")
	sb.WriteString("/store — cửa hàng\n")
	sb.WriteString("/redeem <ứng dụng> — đổi BP lấy phút\n")
	sb.WriteString("/avatar — ảnh đại diện\n")
	sb.WriteString("\n⏱ Thời gian\n")
	sb.WriteString("/status — thời gian còn lại\n")
	sb.WriteString("/apps — ứng dụng\n")
	sb.WriteString("/streak — chuỗi ngày và huy hiệu\n")
	sb.WriteString("\n👨‍👩‍👧 /parent — dành cho phụ huynh")
	return sb.String()
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет сообщение пользователю из фоновых задач.
func (b *Bot) SendMessageToUser(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
		return err
	}
	log.WithField("user_id", userID).Debug("message sent")
	return nil
}
