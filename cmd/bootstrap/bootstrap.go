package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telehealth-service/config"
	deliveryHttp "telehealth-service/internal/delivery/http"
	"telehealth-service/internal/delivery/http/handler"
	"telehealth-service/internal/delivery/http/middleware"
	"telehealth-service/internal/infrastructure/cache"
	"telehealth-service/internal/infrastructure/database"
	"telehealth-service/internal/infrastructure/messaging"
	"telehealth-service/internal/infrastructure/metrics"
	"telehealth-service/internal/infrastructure/storage"
	"telehealth-service/internal/repository"
	"telehealth-service/internal/service"
	"telehealth-service/internal/usecase"
	"telehealth-service/pkg/jwt"
	"telehealth-service/pkg/validator"

	"github.com/minio/minio-go/v7"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const serviceName = "telehealth"

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	MinioClient *minio.Client
	AMQPConn    *amqp.Connection
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	setupLogger(cfg.App.LogLevel)
	logrus.Info("Configuration loaded successfully")

	if cfg.App.AutoMigrate {
		if err := database.MigrateUp(cfg.App.MigrationsPath, cfg.DB); err != nil {
			return nil, err
		}
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	logrus.Info("Database connected successfully")

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.RedisClient = redisClient

	// Initialize object storage for prescriptions
	minioClient, err := storage.NewMinioClient(ctx, cfg.Storage)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.MinioClient = minioClient

	// Lifecycle events are optional; without a broker they are only logged
	log := logrus.StandardLogger()
	publisher := service.NewNoopPublisher(log)
	if cfg.Broker.URL != "" {
		conn, err := messaging.NewRabbitMQConnection(cfg.Broker)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.AMQPConn = conn

		publisher, err = service.NewRabbitMQPublisher(conn, cfg.Broker.Exchange, log)
		if err != nil {
			app.Close()
			return nil, err
		}
	}

	app.Server = initializeServer(cfg, db, redisClient, minioClient, publisher, log)

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// initializeServer creates and configures the HTTP server
func initializeServer(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	minioClient *minio.Client,
	publisher service.EventPublisher,
	log *logrus.Logger,
) *http.Server {
	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	transactor := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository()
	doctorProfileRepo := repository.NewDoctorProfileRepository()
	patientProfileRepo := repository.NewPatientProfileRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	collector := metrics.NewCollector(serviceName)
	auditService := service.NewAuditService(log, auditLogRepo)
	availabilityStore := service.NewAvailabilityStore(log, doctorProfileRepo)
	tokenStore := service.NewRedisTokenStore(redisClient)
	identityCache := service.NewRedisIdentityCache(redisClient, cfg.Auth.IdentityCacheTTL, log)
	prescriptionStorage := service.NewMinioPrescriptionStorage(minioClient, cfg.Storage.PrescriptionBkt, cfg.Storage.PublicBaseURL)

	clock := businessClock(cfg.App.Timezone, log)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(transactor, log, userRepo, doctorProfileRepo, patientProfileRepo, jwtService, tokenStore, identityCache)
	appointmentUsecase := usecase.NewAppointmentUsecase(transactor, log, appointmentRepo, doctorProfileRepo, patientProfileRepo, availabilityStore, auditService, publisher, collector, clock)
	lifecycleUsecase := usecase.NewAppointmentLifecycleUsecase(transactor, log, appointmentRepo, availabilityStore, auditService, publisher, prescriptionStorage, collector, clock)
	availabilityUsecase := usecase.NewAvailabilityUsecase(transactor, log, doctorProfileRepo, appointmentRepo, availabilityStore, auditService)
	doctorProfileUsecase := usecase.NewDoctorProfileUsecase(transactor, log, doctorProfileRepo, patientProfileRepo, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(transactor, log, auditLogRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, lifecycleUsecase, customValidator, log)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityUsecase, customValidator, log)
	doctorHandler := handler.NewDoctorHandler(doctorProfileUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, authUsecase, identityCache, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins)

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler,
		appointmentHandler,
		availabilityHandler,
		doctorHandler,
		auditLogHandler,
		authMiddleware,
		corsMiddleware,
		collector,
		cfg.RateLimit.BookingPerMinute,
	)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// businessClock reports the current time in the configured zone, falling back to UTC
func businessClock(timezone string, log *logrus.Logger) func() time.Time {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Warnf("Unknown timezone %q, using UTC: %+v", timezone, err)
		loc = time.UTC
	}
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, broker)
func (app *App) Close() {
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}

	if app.AMQPConn != nil {
		if err := app.AMQPConn.Close(); err != nil {
			logrus.Warnf("Failed to close RabbitMQ connection: %v", err)
		}
	}
}
