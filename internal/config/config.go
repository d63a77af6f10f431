// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры,
// а godotenv — чтобы локально подхватить .env без экспорта переменных.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"serotonyl.ru/lumi-bot/internal/common"
)

// Драйверы хранилища профилей.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Семейный чат: если задан, ботом могут пользоваться только его участники.
	FamilyChatID int64 `envconfig:"FAMILY_CHAT_ID" default:"0"`

	// --- Database ---
	// В Docker дефолт "postgres" (имя сервиса в docker-compose), для локалки DB_HOST=localhost.
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	DBHost        string `envconfig:"DB_HOST" default:"postgres"`
	DBPort        int    `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"lumi"`
	DBPassword    string `envconfig:"DB_PASSWORD"`
	DBName        string `envconfig:"DB_NAME" default:"lumi"`
	DBSSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns    int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Asia/Ho_Chi_Minh"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Parents ---
	ParentIDsRaw       string  `envconfig:"PARENT_IDS"`
	ParentIDs          []int64 `ignored:"true"` // заполняется в Load
	ParentPasswordHash string  `envconfig:"PARENT_PASSWORD_HASH"`

	// --- AI provider ---
	OpenAIAPIKey    string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `envconfig:"OPENAI_BASE_URL"`
	OpenAIModel     string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s"`

	// --- Profile / economy ---
	ProfileDailyLimit     int           `envconfig:"PROFILE_DAILY_LIMIT" default:"120"`
	EconomyStartingPoints int64         `envconfig:"ECONOMY_STARTING_POINTS" default:"0"`
	RewardQuizCorrect     int64         `envconfig:"REWARD_QUIZ_CORRECT" default:"10"`
	RewardStreakDaily     int64         `envconfig:"REWARD_STREAK_DAILY" default:"50"`
	RewardExplanation     int64         `envconfig:"REWARD_EXPLANATION" default:"5"`
	RewardMatchRound      int64         `envconfig:"REWARD_MATCH_ROUND" default:"20"`
	ExplanationReadLock   time.Duration `envconfig:"EXPLANATION_READ_LOCK" default:"15s"`
	RedeemCost            int64         `envconfig:"REDEEM_COST" default:"10"`
	RedeemMinutes         int           `envconfig:"REDEEM_MINUTES" default:"10"`
	StoreExtendCost       int64         `envconfig:"STORE_EXTEND_COST" default:"50"`
	StoreExtendMinutes    int           `envconfig:"STORE_EXTEND_MINUTES" default:"15"`
	StoreSkipCost         int64         `envconfig:"STORE_SKIP_COST" default:"30"`
	StoreAvatarCost       int64         `envconfig:"STORE_AVATAR_COST" default:"100"`

	// --- Play ---
	SpeedRoundSize     int           `envconfig:"SPEED_ROUND_SIZE" default:"5"`
	SpeedRoundDuration time.Duration `envconfig:"SPEED_ROUND_DURATION" default:"60s"`
	QuizSessionTTL     time.Duration `envconfig:"QUIZ_SESSION_TTL" default:"30m"`

	// --- Jobs ---
	UsageTickInterval   time.Duration `envconfig:"USAGE_TICK_INTERVAL" default:"1m"`
	UsageTickMinutes    int           `envconfig:"USAGE_TICK_MINUTES" default:"1"`
	LowTimeAlertMinutes int           `envconfig:"LOW_TIME_ALERT_MINUTES" default:"15"`
	// С какой длины серии вечером напоминаем зайти в бота
	StreakReminderThreshold int `envconfig:"STREAK_REMINDER_THRESHOLD" default:"3"`
	// За сколько до начала занятия из /plan присылать напоминание
	PlanReminderLead  time.Duration `envconfig:"PLAN_REMINDER_LEAD" default:"30m"`
	QuizSweepInterval time.Duration `envconfig:"QUIZ_SWEEP_INTERVAL" default:"10m"`

	// --- Library ---
	LibraryMaxDocuments int   `envconfig:"LIBRARY_MAX_DOCUMENTS" default:"20"`
	LibraryMaxFileBytes int64 `envconfig:"LIBRARY_MAX_FILE_BYTES" default:"10485760"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"20"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureUsageSimulatorEnabled bool `envconfig:"FEATURE_USAGE_SIMULATOR_ENABLED" default:"true"`
	FeatureSpeedQuizEnabled      bool `envconfig:"FEATURE_SPEED_QUIZ_ENABLED" default:"true"`
	FeatureWordMatchEnabled      bool `envconfig:"FEATURE_WORD_MATCH_ENABLED" default:"true"`
	FeatureTutorEnabled          bool `envconfig:"FEATURE_TUTOR_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location возвращает часовой пояс, в котором считаются календарные дни.
func (c *Config) Location() *time.Location {
	return common.LoadLocation(c.AppTimezone)
}

// IsParent проверяет, указан ли userID в PARENT_IDS.
func (c *Config) IsParent(userID int64) bool {
	for _, id := range c.ParentIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD обязателен для STORAGE_DRIVER=postgres")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("неизвестный STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if len(c.ParentIDs) > 0 && c.ParentPasswordHash == "" {
		return fmt.Errorf("PARENT_PASSWORD_HASH обязателен, если заданы PARENT_IDS")
	}
	if c.ProfileDailyLimit < 0 {
		return fmt.Errorf("PROFILE_DAILY_LIMIT не может быть отрицательным")
	}
	if c.EconomyStartingPoints < 0 {
		return fmt.Errorf("ECONOMY_STARTING_POINTS не может быть отрицательным")
	}
	for name, v := range map[string]int64{
		"REWARD_QUIZ_CORRECT": c.RewardQuizCorrect,
		"REWARD_STREAK_DAILY": c.RewardStreakDaily,
		"REWARD_EXPLANATION":  c.RewardExplanation,
		"REWARD_MATCH_ROUND":  c.RewardMatchRound,
		"REDEEM_COST":         c.RedeemCost,
		"STORE_EXTEND_COST":   c.StoreExtendCost,
		"STORE_SKIP_COST":     c.StoreSkipCost,
		"STORE_AVATAR_COST":   c.StoreAvatarCost,
	} {
		if v <= 0 {
			return fmt.Errorf("%s должен быть > 0", name)
		}
	}
	if c.RedeemMinutes <= 0 || c.StoreExtendMinutes <= 0 {
		return fmt.Errorf("REDEEM_MINUTES/STORE_EXTEND_MINUTES должны быть > 0")
	}
	if c.SpeedRoundSize <= 0 || c.SpeedRoundDuration <= 0 {
		return fmt.Errorf("некорректные SPEED_ROUND_SIZE/SPEED_ROUND_DURATION")
	}
	if c.UsageTickInterval < time.Second || c.UsageTickMinutes <= 0 {
		return fmt.Errorf("некорректные USAGE_TICK_INTERVAL/USAGE_TICK_MINUTES")
	}
	if c.PlanReminderLead <= 0 || c.QuizSweepInterval < time.Second {
		return fmt.Errorf("некорректные PLAN_REMINDER_LEAD/QUIZ_SWEEP_INTERVAL")
	}
	if c.LibraryMaxDocuments <= 0 || c.LibraryMaxFileBytes <= 0 {
		return fmt.Errorf("LIBRARY_MAX_DOCUMENTS/LIBRARY_MAX_FILE_BYTES должны быть > 0")
	}
	return nil
}

// Load читает .env (если есть) и переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("не удалось прочитать .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.ParentIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("PARENT_IDS parse: %w", err)
	}
	cfg.ParentIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
