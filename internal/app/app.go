// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: хранилища, сервисы, обработчики, фильтры,
// планировщик и бот.
package app

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/ai"
	"serotonyl.ru/lumi-bot/internal/bot"
	"serotonyl.ru/lumi-bot/internal/bot/filters"
	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/config"
	"serotonyl.ru/lumi-bot/internal/db/postgres"
	"serotonyl.ru/lumi-bot/internal/features/calendar"
	"serotonyl.ru/lumi-bot/internal/features/economy"
	"serotonyl.ru/lumi-bot/internal/features/library"
	"serotonyl.ru/lumi-bot/internal/features/members"
	"serotonyl.ru/lumi-bot/internal/features/parent"
	"serotonyl.ru/lumi-bot/internal/features/profile"
	"serotonyl.ru/lumi-bot/internal/features/quiz"
	"serotonyl.ru/lumi-bot/internal/features/report"
	"serotonyl.ru/lumi-bot/internal/features/streak"
	"serotonyl.ru/lumi-bot/internal/features/tutor"
	"serotonyl.ru/lumi-bot/internal/features/usage"
	"serotonyl.ru/lumi-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool // nil при STORAGE_DRIVER=memory
	BotAPI    *tgbotapi.BotAPI
}

// Stores — хранилища фич.
type Stores struct {
	Profiles profile.Store
	Members  members.Store
	Parents  parent.Store
	Events   calendar.Store
	Docs     library.Store
}

// Model — всё, что бот спрашивает у языковой модели.
type Model interface {
	quiz.Provider
	report.Summarizer
	tutor.Assistant
	library.Extractor
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Хранилище ===
	stores, pool, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		closePool(pool)
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Модель ===
	model := newModel(cfg)

	// === 4. Сервисы ===
	loc := cfg.Location()
	clock := common.Clock(time.Now)
	rewards := economy.Rewards{
		QuizCorrect: cfg.RewardQuizCorrect,
		StreakDaily: cfg.RewardStreakDaily,
		Explanation: cfg.RewardExplanation,
		MatchRound:  cfg.RewardMatchRound,
	}
	catalog := economy.Catalog{
		Extend: economy.Offer{Cost: cfg.StoreExtendCost, Minutes: cfg.StoreExtendMinutes},
		Skip:   economy.Offer{Cost: cfg.StoreSkipCost},
		Avatar: economy.Offer{Cost: cfg.StoreAvatarCost},
		Redeem: economy.Offer{Cost: cfg.RedeemCost, Minutes: cfg.RedeemMinutes},
	}

	profileService := profile.NewService(stores.Profiles, profile.Seed{
		DailyLimit:     cfg.ProfileDailyLimit,
		StartingPoints: cfg.EconomyStartingPoints,
	}, clock, loc)
	memberService := members.NewService(stores.Members, cfg.IsParent)
	economyService := economy.NewService(profileService, catalog, common.NewUUIDGenerator("avatar"))
	usageService := usage.NewService(profileService, cfg.UsageTickMinutes, cfg.LowTimeAlertMinutes)
	streakService := streak.NewService(profileService, rewards.StreakDaily, cfg.StreakReminderThreshold)
	quizService := quiz.NewService(
		profileService,
		model,
		quiz.NewProcessor(rewards.QuizCorrect, loc, common.NewUUIDGenerator("rec")),
		quiz.Settings{
			ExplanationBonus: rewards.Explanation,
			MatchBonus:       rewards.MatchRound,
			ReadLock:         cfg.ExplanationReadLock,
			ProviderTimeout:  cfg.ProviderTimeout,
			SessionTTL:       cfg.QuizSessionTTL,
			SpeedSize:        cfg.SpeedRoundSize,
			SpeedDuration:    cfg.SpeedRoundDuration,
			SpeedEnabled:     cfg.FeatureSpeedQuizEnabled,
			MatchEnabled:     cfg.FeatureWordMatchEnabled,
		},
		common.NewUUIDGenerator("q"),
	)
	calendarService := calendar.NewService(stores.Events, clock, loc, cfg.PlanReminderLead, common.NewUUIDGenerator("ev"))
	libraryService := library.NewService(stores.Docs, model, cfg.ProviderTimeout, library.Limits{
		MaxDocuments: cfg.LibraryMaxDocuments,
		MaxRunes:     library.DefaultLimits.MaxRunes,
		MaxFileBytes: cfg.LibraryMaxFileBytes,
	}, clock, common.NewUUIDGenerator("doc"))
	tutorService := tutor.NewService(model, cfg.ProviderTimeout, cfg.FeatureTutorEnabled)
	reportService := report.NewService(profileService, model, cfg.ProviderTimeout)
	parentService := parent.NewService(
		stores.Parents,
		parent.Access{ParentIDs: cfg.ParentIDs, PasswordHash: cfg.ParentPasswordHash},
		clock,
		memberService,
		profileService,
		usageService,
		reportService,
	)

	// === 5. Обработчики ===
	handlers := bot.Handlers{
		Members:  members.NewHandler(memberService),
		Economy:  economy.NewHandler(economyService, botAPI, loc),
		Usage:    usage.NewHandler(usageService, botAPI, cfg.LowTimeAlertMinutes),
		Streak:   streak.NewHandler(streakService, botAPI),
		Quiz:     quiz.NewHandler(quizService, botAPI),
		Tutor:    tutor.NewHandler(tutorService, botAPI),
		Parent:   parent.NewHandler(parentService, botAPI),
		Calendar: calendar.NewHandler(calendarService, botAPI),
		Library:  library.NewHandler(libraryService, botAPI, cfg.ProviderTimeout, loc),
	}

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.FamilyChatID, cfg.IsParent, botAPI)

	// === 7. Собираем бота ===
	b := bot.New(botAPI, cfg, handlers, bot.Services{
		Members: memberService,
		Streak:  streakService,
		Parent:  parentService,
	}, chatFilter)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(
		jobs.Options{
			Location:      loc,
			TickEnabled:   cfg.FeatureUsageSimulatorEnabled,
			TickInterval:  cfg.UsageTickInterval,
			Sweep:         quizService.Sweep,
			SweepInterval: cfg.QuizSweepInterval,
		},
		usageService,
		jobs.Notifiers{
			Streak: streakService.SendReminders,
			Digest: parentService.SendDigests,
			Agenda: calendarService.SendReminders,
		},
		b.SendMessageToUser,
	)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// Close освобождает соединения с БД.
func (a *App) Close() {
	closePool(a.DB)
}

// openStores выбирает хранилище по STORAGE_DRIVER.
func openStores(ctx context.Context, cfg *config.Config) (Stores, *pgxpool.Pool, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn("STORAGE_DRIVER=memory: данные не переживут перезапуск")
		return Stores{
			Profiles: profile.NewMemoryStore(),
			Members:  members.NewMemoryStore(),
			Parents:  parent.NewMemoryStore(),
			Events:   calendar.NewMemoryStore(),
			Docs:     library.NewMemoryStore(),
		}, nil, nil
	}

	pool, err := postgres.NewPool(ctx, postgres.PoolOptions{
		DSN:      cfg.DatabaseDSN(),
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return Stores{}, nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.Migrate(ctx, pool, postgres.Schema); err != nil {
		pool.Close()
		return Stores{}, nil, fmt.Errorf("ошибка миграций: %w", err)
	}
	return Stores{
		Profiles: profile.NewRepository(pool),
		Members:  members.NewRepository(pool),
		Parents:  parent.NewRepository(pool),
		Events:   calendar.NewRepository(pool),
		Docs:     library.NewRepository(pool),
	}, pool, nil
}

// newModel создаёт клиента модели. Без ключа бот работает без генерации вопросов.
func newModel(cfg *config.Config) Model {
	client, err := ai.New(ai.Options{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		MaxRetries: 2,
	})
	if err != nil {
		log.WithError(err).Warn("Модель недоступна, вопросы и отчёты отключены")
		return ai.Offline{}
	}
	log.WithField("model", cfg.OpenAIModel).Info("Клиент модели создан")
	return client
}

func closePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
