package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"routinelink/internal/api"
	"routinelink/internal/clock"
	"routinelink/internal/config"
	"routinelink/internal/event"
	"routinelink/internal/model"
	"routinelink/internal/notify"
	"routinelink/internal/recurrence"
	"routinelink/internal/repository"
	"routinelink/internal/service"
	"routinelink/internal/stats"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", "err", err)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open db", "err", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	statRepo := repository.NewStatRepository(db)

	seed := make([]model.User, 0, len(cfg.Users))
	for _, u := range cfg.Users {
		seed = append(seed, model.User{Username: u.Username, Role: u.Role})
	}
	if err := userRepo.Seed(ctx, seed); err != nil {
		logger.Fatal("seed users", "err", err)
	}

	bus := event.NewBus(64, logger)
	defer bus.Close()
	clk := clock.System{}

	accumulator := stats.NewAccumulator(statRepo, bus, clk)
	recurSched := recurrence.NewScheduler(taskRepo, bus, clk, logger)
	defer recurSched.Stop()

	taskSvc := service.NewTaskService(taskRepo, accumulator, recurSched, bus, clk, logger)
	projectSvc := service.NewProjectService(projectRepo)
	statsSvc := service.NewStatsService(statRepo, statRepo, taskRepo, userRepo, projectRepo, bus, clk)

	// Resets whose timers died with the previous process.
	if err := recurSched.Reconcile(ctx); err != nil {
		logger.Error("startup reconcile", "err", err)
	}

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(cfg.ReconcileInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := recurSched.Reconcile(jobCtx); err != nil {
			logger.Error("reconcile sweep", "err", err)
		}
	}); err != nil {
		logger.Fatal("schedule reconcile", "err", err)
	}

	if cfg.TelegramToken != "" {
		notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Fatal("telegram", "err", err)
		}
		events, cancelSub := bus.Subscribe()
		defer cancelSub()
		go notifier.Run(ctx, events)

		if cfg.DigestTime != "" {
			if _, err := scheduler.ScheduleDaily(cfg.DigestTime, func() {
				jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				users, err := statsSvc.Together(jobCtx)
				if err != nil {
					logger.Error("daily digest", "err", err)
					return
				}
				if err := notifier.SendDigest(users, clk.Now()); err != nil {
					logger.Error("send digest", "err", err)
				}
			}); err != nil {
				logger.Fatal("schedule digest", "err", err)
			}
		}
	}

	scheduler.Start()
	defer scheduler.Stop()

	server := api.NewServer(taskSvc, projectSvc, statsSvc, userRepo)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Handler(),
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", "err", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("shutdown complete")
}
