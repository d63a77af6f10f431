// Package profile — repository.go хранит снимки в PostgreSQL.
// Снимок лежит в колонке state (JSONB), версия — в отдельной колонке,
// по ней работает оптимистичная блокировка.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository — Store поверх таблиц profiles и point_transactions.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий профилей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Get читает актуальный снимок.
func (r *Repository) Get(ctx context.Context, userID int64) (Profile, error) {
	var (
		version int64
		state   []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT version, state FROM profiles WHERE user_id = $1`, userID,
	).Scan(&version, &state)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("ошибка получения профиля: %w", err)
	}
	return decodeState(userID, version, state)
}

// Create вставляет стартовый снимок. Если параллельный запрос успел раньше —
// возвращает уже сохранённый.
func (r *Repository) Create(ctx context.Context, p Profile) (Profile, error) {
	state, err := json.Marshal(p)
	if err != nil {
		return Profile{}, fmt.Errorf("ошибка сериализации профиля: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO profiles (user_id, version, state)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, p.UserID, p.Version, state)
	if err != nil {
		return Profile{}, fmt.Errorf("ошибка создания профиля: %w", err)
	}
	return r.Get(ctx, p.UserID)
}

// Update сохраняет новый снимок и запись журнала в одной транзакции.
func (r *Repository) Update(ctx context.Context, prevVersion int64, next Profile, t *Transaction) error {
	state, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("ошибка сериализации профиля: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE profiles
		SET version = $3, state = $4, updated_at = NOW()
		WHERE user_id = $1 AND version = $2
	`, next.UserID, prevVersion, next.Version, state)
	if err != nil {
		return fmt.Errorf("ошибка сохранения профиля: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	if t != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO point_transactions (user_id, delta, balance_after, reason, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, t.UserID, t.Delta, t.BalanceAfter, t.Reason, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("ошибка записи транзакции: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// UserIDs возвращает всех учеников, у которых есть профиль.
func (r *Repository) UserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профилей: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения профилей: %w", err)
	}
	return ids, nil
}

// Transactions возвращает историю баллов (последние limit записей).
func (r *Repository) Transactions(ctx context.Context, userID int64, limit int) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, delta, balance_after, reason, created_at
		FROM point_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Delta, &t.BalanceAfter, &t.Reason, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения транзакции: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func decodeState(userID, version int64, state []byte) (Profile, error) {
	var p Profile
	if err := json.Unmarshal(state, &p); err != nil {
		return Profile{}, fmt.Errorf("повреждённый снимок профиля %d: %w", userID, err)
	}
	p.UserID = userID
	p.Version = version
	return p, nil
}
