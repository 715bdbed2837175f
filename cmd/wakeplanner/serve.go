package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wakeup-planner/internal/api"
	"wakeup-planner/internal/bot"
	"wakeup-planner/internal/config"
	"wakeup-planner/internal/logger"
	"wakeup-planner/internal/planner"
	"wakeup-planner/internal/repository"
	"wakeup-planner/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the daily plan evaluation",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	checkInRepo := repository.NewCheckInRepository(db)

	engine := planner.New(cfg.Policy)
	locks := service.NewUserLocks()
	planSvc := service.NewPlanService(planRepo, checkInRepo, engine, locks, log.Named("plan"))
	evalSvc := service.NewEvaluationService(userRepo, planRepo, checkInRepo, engine, locks, log.Named("evaluation"))

	telegramBot, err := bot.New(&cfg, userRepo, planSvc, evalSvc, log.Named("bot"))
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	scheduler := service.NewSchedulerService(cfg.Location)
	id, err := scheduler.ScheduleDaily(cfg.EvaluationTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := telegramBot.SendEvaluationReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("evaluation reports", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule evaluation: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.HTTPAddr != "" {
		if os.Getenv(gin.EnvGinMode) == "" {
			gin.SetMode(gin.ReleaseMode)
		}
		clock := func() time.Time { return time.Now().In(cfg.Location) }
		srv := api.NewServer(userRepo, planSvc, engine, log.Named("api"), clock)
		stopHTTP := startHTTP(cfg.HTTPAddr, srv.Router(cfg.APIToken), log)
		defer stopHTTP()
	}

	log.Infow("wake planner started", "evaluation", cfg.EvaluationTime, "next_run", scheduler.Next(id))
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

// startHTTP serves handler on addr in the background and returns a function
// that shuts the server down.
func startHTTP(addr string, handler http.Handler, log *zap.SugaredLogger) func() {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Infow("http api listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("http api", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warnw("http api shutdown", "error", err)
		}
	}
}
