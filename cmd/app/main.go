package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "treinopp/docs"
	"treinopp/internal/availability"
	"treinopp/internal/billing"
	"treinopp/internal/booking"
	"treinopp/internal/config"
	"treinopp/internal/db"
	"treinopp/internal/logger"
	"treinopp/internal/notify"
	"treinopp/internal/profile"
	"treinopp/internal/schedule"
	"treinopp/internal/server"
)

// @title Treinopp API
// @version 1.0
// @description Trainer availability, conflict checking and bookings for academies.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.Info("Starting Treinopp application", "env", cfg.Env)

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	queue := notify.NewQueue(rdb, notify.Options{
		MaxTries:   cfg.Notifications.MaxTries,
		RetryDelay: cfg.Notifications.RetryDelay,
	})
	defer queue.Close()

	n := cfg.Notifications
	queue.Register(notify.ChannelEmail, notify.NewSMTPSender(n.EmailFrom, n.EmailFromName, n.SMTPHost, n.SMTPPort, n.SMTPUser, n.SMTPPass))
	if cfg.Firebase.CredentialsFile != "" {
		push, err := notify.NewPushSender(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			logger.Error("Push notifications disabled", "error", err)
		} else {
			queue.Register(notify.ChannelPush, push)
		}
	}
	go queue.Start(ctx)

	profiles := profile.NewRepository(database)
	slots := availability.NewRepository(database)
	bookings := booking.NewRepository(database)

	checker := schedule.NewChecker(profiles, slots, bookings)
	sweeper := billing.NewSweeper(billing.NewRepository(database), queue, cfg.Sweep.Lookahead)

	var scheduler *billing.Scheduler
	if cfg.Sweep.Enabled {
		scheduler, err = billing.NewScheduler(sweeper, cfg.Sweep.Schedule)
		if err != nil {
			logger.Fatalf("Failed to schedule fee sweep: %v", err)
		}
		scheduler.Start()
	}

	srv := server.New(cfg, server.Handlers{
		Schedule: schedule.NewHandler(checker, schedule.NewSlotService(slots, checker)),
		Booking:  booking.NewHandler(booking.NewService(bookings, slots, profiles, queue)),
		Billing:  billing.NewHandler(sweeper, cfg.Sweep.TokenHash),
	},
		server.Probe{Name: "database", Check: database.PingContext},
		server.Probe{Name: "notification queue", Check: func(ctx context.Context) error {
			_, err := queue.QueueLength(ctx)
			return err
		}},
	)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	cancel()

	logger.Info("Server stopped")
}
