package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greeting-metrics-backend/config"
	"greeting-metrics-backend/internal/api"
	"greeting-metrics-backend/internal/db"
	"greeting-metrics-backend/internal/notification"
	"greeting-metrics-backend/internal/poller"
	"greeting-metrics-backend/internal/store"
	"greeting-metrics-backend/internal/sweeper"
	"greeting-metrics-backend/internal/vision"

	"github.com/SherClockHolmes/webpush-go"
)

func main() {
	logger := log.New(os.Stdout, "greetingd ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Please generate them and add them to your config file.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	loc, err := time.LoadLocation(cfg.Poller.Timezone)
	if err != nil {
		logger.Printf("Warning: invalid timezone %q: %v. Falling back to UTC.", cfg.Poller.Timezone, err)
		loc = time.UTC
	}

	// Alert worker pool for greeting-expiry notifications.
	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	workerPool.Start(ctx)

	// One poll loop per camera, feeding the greeting correlator.
	visionClient := vision.NewClient(cfg.Poller.Vision, loc)
	pollerSvc := poller.NewService(cfg, appStore, visionClient)
	go pollerSvc.Run(ctx)

	// Staleness sweeper, independent of the poll loops.
	sweeperSvc := sweeper.NewService(cfg, appStore, workerPool)
	go sweeperSvc.Run(ctx)

	router := api.NewRouter(appStore, &webpushOptions, &cfg.Server, loc)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
