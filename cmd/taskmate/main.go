package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskmate/internal/bot"
	"taskmate/internal/config"
	"taskmate/internal/repository"
	"taskmate/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db, cfg.NotificationsEnabled)

	taskSvc := service.NewTaskService(taskRepo)
	notifier := service.NewNotifier(taskRepo, notifRepo, settingsRepo, cfg.MaxPerDay, cfg.LeadTime)

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, notifRepo, settingsRepo, taskSvc, notifier, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}
	notifier.SetDelivery(telegramBot)

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(cfg.CheckInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := notifier.RunCheck(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("notification check: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule notification checks: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("TaskMate bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
