// Package postgres управляет подключением к PostgreSQL и схемой базы.
// Пул pgxpool переподключается при обрыве и ограничивает число соединений,
// поэтому им безопасно пользоваться из всех горутин бота.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// PoolOptions — параметры подключения.
type PoolOptions struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// NewPool создаёт пул соединений и проверяет, что база отвечает.
//
//	pool, err := postgres.NewPool(ctx, postgres.PoolOptions{DSN: cfg.DatabaseDSN()})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
func NewPool(ctx context.Context, opts PoolOptions) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = opts.MinConns
	}
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("база данных недоступна: %w", err)
	}

	log.WithFields(log.Fields{
		"max_conns": poolConfig.MaxConns,
		"min_conns": poolConfig.MinConns,
	}).Info("Подключение к PostgreSQL установлено")
	return pool, nil
}
