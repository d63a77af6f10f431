// Package members ведёт реестр пользователей бота: ученики и родители.
// models.go описывает структуры данных для работы с таблицей members.
package members

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound — пользователь не зарегистрирован.
var ErrNotFound = errors.New("участник не найден")

// Member — пользователь, который хотя бы раз написал боту
// (или вступил в семейный чат).
type Member struct {
	UserID    int64     `db:"user_id"`    // Telegram user ID (уникальный)
	Username  string    `db:"username"`   // @username (может быть пустым)
	FirstName string    `db:"first_name"` // Имя пользователя
	LastName  string    `db:"last_name"`  // Фамилия (может быть пустой)
	IsParent  bool      `db:"is_parent"`  // Указан в PARENT_IDS
	JoinedAt  time.Time `db:"joined_at"`  // Первое появление
	UpdatedAt time.Time `db:"updated_at"` // Последнее обновление записи
}

// Info — данные Telegram-пользователя, которые могут меняться.
type Info struct {
	Username  string
	FirstName string
	LastName  string
}

// DisplayName возвращает отображаемое имя пользователя.
// Если есть имя — имя и фамилия, иначе @username, иначе id.
func (m *Member) DisplayName() string {
	name := m.FirstName
	if m.LastName != "" {
		name += " " + m.LastName
	}
	if name != "" {
		return name
	}
	if m.Username != "" {
		return "@" + m.Username
	}
	return "#" + itoa(m.UserID)
}

// Store — хранилище участников.
type Store interface {
	// Upsert создаёт запись или обновляет имя. Возвращает true, если запись новая.
	Upsert(ctx context.Context, m Member) (bool, error)
	Get(ctx context.Context, userID int64) (Member, error)
	// Students — все не-родители, по имени.
	Students(ctx context.Context) ([]Member, error)
}
