// Package main — точка входа Lumi.
// Загружает конфигурацию, собирает приложение и запускает бота
// с graceful shutdown по SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/app"
	"serotonyl.ru/lumi-bot/internal/config"
)

func main() {
	setupLogging()

	log.Info("=== Lumi запускается ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	level, err := log.ParseLevel(cfg.AppLogLevel)
	if err != nil {
		log.WithError(err).Warnf("Неизвестный APP_LOG_LEVEL %q, оставляем debug", cfg.AppLogLevel)
	} else {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Не удалось инициализировать приложение")
	}
	defer application.Close()

	if err := application.Scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("Не удалось запустить планировщик")
	}
	defer application.Scheduler.Stop()

	log.WithFields(log.Fields{
		"env":      cfg.AppEnv,
		"storage":  cfg.StorageDriver,
		"timezone": cfg.AppTimezone,
	}).Info("=== Lumi готов к работе ===")

	// Start блокируется до сигнала остановки
	application.Bot.Start(ctx)

	log.Info("=== Lumi остановлен ===")
}

// setupLogging настраивает формат логов.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}
