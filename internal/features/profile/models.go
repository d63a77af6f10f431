// Package profile хранит снимок состояния ученика: лимиты времени,
// баллы, инвентарь, стрик, значки и историю ответов.
// models.go описывает сам снимок. Снимок — значение: операции получают
// текущую версию и возвращают новую, исходную никто не меняет.
package profile

import (
	"errors"
	"time"
)

// Badge — идентификатор одноразового достижения.
type Badge string

const (
	BadgeNightOwl     Badge = "nightOwl"     // 10 верных ответов ночью
	BadgeMathMaster   Badge = "mathMaster"   // 20 верных ответов по математике подряд
	BadgeStreakMaster Badge = "streakMaster" // стрик 30 дней
)

// Category — категория отслеживаемого приложения.
type Category string

const (
	CategorySocial        Category = "Social"
	CategoryEntertainment Category = "Entertainment"
	CategoryGaming        Category = "Gaming"
	CategoryEducation     Category = "Education"
)

// DefaultAvatar выдаётся каждому новому профилю.
const DefaultAvatar = "default"

// ErrUnchanged возвращает переход, которому нечего сохранять.
// Service.Apply не считает это ошибкой.
var ErrUnchanged = errors.New("profile unchanged")

// AppUsage — расход времени в одном приложении за сегодня.
type AppUsage struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	UsedTime int      `json:"used_time"` // минут сегодня
	Limit    int      `json:"limit"`     // минут в день
	Color    string   `json:"color"`
}

// IsEducational — учебные приложения никогда не блокируются.
func (a AppUsage) IsEducational() bool {
	return a.Category == CategoryEducation
}

// QuizRecord — один ответ на вопрос. Создаётся один раз и больше не меняется.
type QuizRecord struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	IsCorrect bool      `json:"is_correct"`
	Timestamp time.Time `json:"timestamp"`
}

// Inventory — купленные предметы.
type Inventory struct {
	SkipPasses   int      `json:"skip_passes"`
	Avatars      []string `json:"avatars"`
	ActiveAvatar string   `json:"active_avatar"`
}

// HasAvatar проверяет, есть ли аватар в инвентаре.
func (i Inventory) HasAvatar(id string) bool {
	for _, a := range i.Avatars {
		if a == id {
			return true
		}
	}
	return false
}

// Stats — счётчики, от которых зависят значки.
type Stats struct {
	CorrectAfterLateHour      int `json:"correct_after_late_hour"`
	ConsecutiveCorrectInTopic int `json:"consecutive_correct_in_topic"`
}

// DailyUsage — итог одного закрытого дня.
type DailyUsage struct {
	Date  time.Time `json:"date"`
	Used  int       `json:"used"`
	Limit int       `json:"limit"`
}

// Profile — снимок состояния одного ученика.
type Profile struct {
	UserID  int64 `json:"user_id"`
	Version int64 `json:"-"` // хранится отдельной колонкой, увеличивает только Service

	DailyLimit int `json:"daily_limit"` // минут на сегодня
	UsedTime   int `json:"used_time"`   // минут использовано сегодня
	EarnedTime int `json:"earned_time"` // минут заработано за всё время

	Points            int64 `json:"points"`              // баланс BP
	TotalPointsEarned int64 `json:"total_points_earned"` // заработано за всё время, не убывает

	StreakDays     int       `json:"streak_days"`
	LastActiveDate time.Time `json:"last_active_date"` // дата последней оценки стрика (полночь UTC)
	UsageDate      time.Time `json:"usage_date"`       // день, к которому относится UsedTime

	Inventory    Inventory    `json:"inventory"`
	Stats        Stats        `json:"stats"`
	Badges       []Badge      `json:"badges"`
	QuizHistory  []QuizRecord `json:"quiz_history"`
	Apps         []AppUsage   `json:"apps"`
	UsageHistory []DailyUsage `json:"usage_history"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Clone возвращает глубокую копию снимка.
func (p Profile) Clone() Profile {
	c := p
	c.Inventory.Avatars = append([]string(nil), p.Inventory.Avatars...)
	c.Badges = append([]Badge(nil), p.Badges...)
	c.QuizHistory = append([]QuizRecord(nil), p.QuizHistory...)
	c.Apps = append([]AppUsage(nil), p.Apps...)
	c.UsageHistory = append([]DailyUsage(nil), p.UsageHistory...)
	return c
}

// HasBadge проверяет наличие значка.
func (p Profile) HasBadge(b Badge) bool {
	for _, have := range p.Badges {
		if have == b {
			return true
		}
	}
	return false
}

// AppIndex возвращает индекс приложения в Apps или -1.
func (p Profile) AppIndex(appID string) int {
	for i, a := range p.Apps {
		if a.ID == appID {
			return i
		}
	}
	return -1
}

// App ищет приложение по id.
func (p Profile) App(appID string) (AppUsage, bool) {
	if i := p.AppIndex(appID); i >= 0 {
		return p.Apps[i], true
	}
	return AppUsage{}, false
}

// Seed — стартовые значения нового профиля.
type Seed struct {
	DailyLimit     int
	StartingPoints int64
	Apps           []AppUsage
}

// DefaultApps — приложения, которые отслеживаются по умолчанию.
func DefaultApps() []AppUsage {
	return []AppUsage{
		{ID: "1", Name: "Instagram", Category: CategorySocial, Limit: 60, Color: "#ec4899"},
		{ID: "2", Name: "YouTube", Category: CategoryEntertainment, Limit: 90, Color: "#ef4444"},
		{ID: "3", Name: "Minecraft", Category: CategoryGaming, Limit: 30, Color: "#10b981"},
		{ID: "4", Name: "Duolingo", Category: CategoryEducation, Limit: 120, Color: "#8b5cf6"},
	}
}

// NewProfile создаёт профиль при первом обращении ученика.
// today — календарная дата (см. common.LocalDate).
func NewProfile(userID int64, seed Seed, today time.Time) Profile {
	apps := seed.Apps
	if apps == nil {
		apps = DefaultApps()
	}
	return Profile{
		UserID:            userID,
		DailyLimit:        seed.DailyLimit,
		Points:            seed.StartingPoints,
		TotalPointsEarned: seed.StartingPoints,
		StreakDays:        1,
		LastActiveDate:    today,
		UsageDate:         today,
		Inventory: Inventory{
			Avatars:      []string{DefaultAvatar},
			ActiveAvatar: DefaultAvatar,
		},
		Badges:      []Badge{},
		QuizHistory: []QuizRecord{},
		Apps:        append([]AppUsage(nil), apps...),
	}
}

// Transaction — запись в журнале движения баллов.
// Пишется вместе со снимком, если баланс изменился.
type Transaction struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	Delta        int64     `db:"delta"`         // +начисление / -списание
	BalanceAfter int64     `db:"balance_after"` // баланс после операции
	Reason       string    `db:"reason"`        // см. Reason*
	CreatedAt    time.Time `db:"created_at"`
}

// Причины изменений профиля (для журнала и логов)
const (
	ReasonQuizAnswer   = "quiz_answer"
	ReasonExplanation  = "explanation_bonus"
	ReasonStreak       = "daily_rollover"
	ReasonMatchRound   = "match_round"
	ReasonRedeem       = "redeem_time"
	ReasonStoreExtend  = "store_extend"
	ReasonStoreSkip    = "store_skip"
	ReasonStoreAvatar  = "store_avatar"
	ReasonSkipQuestion = "skip_question"
	ReasonAvatarSwitch = "avatar_switch"
	ReasonUsageTick    = "usage_tick"
	ReasonDailyReset   = "daily_reset"
	ReasonParentLimit  = "parent_limit"
)
