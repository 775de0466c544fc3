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
	"go.uber.org/zap"

	"github.com/easyride/service-booking/internal/application"
	"github.com/easyride/service-booking/internal/config"
	bookingDomain "github.com/easyride/service-booking/internal/domain/booking"
	"github.com/easyride/service-booking/internal/domain/refund"
	bookingEvents "github.com/easyride/service-booking/internal/events"
	"github.com/easyride/service-booking/internal/handler"
	"github.com/easyride/service-booking/internal/platform/auth"
	"github.com/easyride/service-booking/internal/platform/database"
	"github.com/easyride/service-booking/internal/platform/health"
	"github.com/easyride/service-booking/internal/platform/kafka"
	"github.com/easyride/service-booking/internal/platform/logger"
	"github.com/easyride/service-booking/internal/platform/middleware"
	"github.com/easyride/service-booking/internal/repository"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.VehicleModel{},
			&repository.BookingModel{},
			&repository.CancellationModel{},
			&repository.ReviewModel{},
			&repository.NotificationModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)

	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	tx := database.NewTransactor(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)
	cancellationRepo := repository.NewGormCancellationRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)
	notificationRepo := repository.NewGormNotificationRepository(db)

	// Initialize application services
	notificationService := application.NewNotificationService(notificationRepo, log)
	vehicleService := application.NewVehicleService(vehicleRepo, log)
	bookingService := application.NewBookingService(
		tx,
		bookingRepo,
		vehicleRepo,
		cancellationRepo,
		bookingDomain.NewDailyRatePricingStrategy(),
		refund.Policy{Window: cfg.RefundConfig.Window, Percent: cfg.RefundConfig.Percent},
		notificationService,
		kafkaProducer,
		log,
	)
	reviewService := application.NewReviewService(tx, reviewRepo, bookingRepo, vehicleRepo, log)

	// Start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	paymentConsumer := bookingEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	health.NewHandler(db, serviceName).RegisterRoutes(router)

	root := &router.RouterGroup
	handler.NewBookingHandler(bookingService).RegisterRoutes(root, jwtManager)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(root, jwtManager)
	handler.NewReviewHandler(reviewService).RegisterRoutes(root, jwtManager)
	handler.NewVehicleHandler(vehicleService).RegisterRoutes(root, jwtManager)
	handler.NewNotificationHandler(notificationService).RegisterRoutes(root, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
