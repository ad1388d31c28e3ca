package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"aktiva/internal/config"
	"aktiva/internal/database"
	"aktiva/internal/logger"
	"aktiva/internal/services"
	"aktiva/internal/worker"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     appConfig.RedisAddr,
		Password: appConfig.RedisPassword,
		DB:       appConfig.RedisDB,
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     appConfig.RedisAddr,
		Password: appConfig.RedisPassword,
		DB:       appConfig.RedisDB,
	})
	progress := worker.NewRedisProgress(redisClient)

	db := dbManager.DB()
	depreciationService := services.NewDepreciationService(db, appConfig.BatchConcurrency, nil, progress)
	scheduleService := services.NewScheduleService(db)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: appConfig.WorkerConcurrency,
		Queues: map[string]int{
			"default": 1,
		},
	})
	mux := asynq.NewServeMux()
	worker.RegisterHandlers(mux, depreciationService, scheduleService)

	client := asynq.NewClient(redisOpt)
	defer client.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	poller := worker.NewPoller(scheduleService, client, appConfig.SchedulePollInterval)
	go poller.Run(ctx)

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start worker server: %w", err)
	}

	log.Infof("Aktiva worker started, polling schedules every %s", appConfig.SchedulePollInterval)
	<-ctx.Done()

	log.Info("Shutting down worker")
	srv.Shutdown()
	return nil
}
