// Package parent — родительская панель с парольной аутентификацией:
// лимиты времени, статистика, сводка от модели и XLSX-выгрузка.
// models.go описывает сессии, попытки входа и состояние диалога.
package parent

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession — активной сессии нет.
var ErrNoSession = errors.New("активная сессия не найдена")

// Session — активная сессия родителя.
type Session struct {
	UserID          int64     `db:"user_id"`
	Token           string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
}

// Store — сессии и журнал попыток входа.
type Store interface {
	CreateSession(ctx context.Context, s Session) error
	// ActiveSession возвращает ErrNoSession, если сессии нет или она истекла к now.
	ActiveSession(ctx context.Context, userID int64, now time.Time) (Session, error)
	DeactivateSessions(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool, at time.Time) error
	FailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// Step — шаг диалога с родителем.
type Step string

// Возможные шаги диалога
const (
	StepNone            Step = ""                  // Нет активного диалога
	StepAwaitPassword   Step = "await_password"    // Ждём пароль
	StepSelectStudent   Step = "select_student"    // Ждём номер ученика
	StepMenu            Step = "menu"              // Ученик выбран, ждём действие
	StepAwaitDailyLimit Step = "await_daily_limit" // Ждём дневной лимит в минутах
	StepSelectApp       Step = "select_app"        // Ждём номер приложения
	StepAwaitAppLimit   Step = "await_app_limit"   // Ждём лимит приложения
)

// Dialog — состояние диалога (конечный автомат), живёт 5 минут.
type Dialog struct {
	Step      Step
	StudentID int64
	AppID     string
	ExpiresAt time.Time
}

// Ограничения входа и сессий.
const (
	MaxFailedAttempts = 3
	AttemptWindow     = time.Hour
	SessionTTL        = 24 * time.Hour
	DialogTTL         = 5 * time.Minute
)
