package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/firewise/fireedu-api/internal/config"
	"github.com/firewise/fireedu-api/internal/event"
	"github.com/firewise/fireedu-api/internal/handler"
	"github.com/firewise/fireedu-api/internal/metrics"
	"github.com/firewise/fireedu-api/internal/middleware"
	"github.com/firewise/fireedu-api/internal/observability"
	pgRepo "github.com/firewise/fireedu-api/internal/repository/postgres"
	redisRepo "github.com/firewise/fireedu-api/internal/repository/redis"
	"github.com/firewise/fireedu-api/internal/service"
	"github.com/firewise/fireedu-api/internal/service/engagement"
	ws "github.com/firewise/fireedu-api/internal/websocket"
	"github.com/firewise/fireedu-api/pkg/auth"
	"github.com/firewise/fireedu-api/pkg/database"
	"github.com/firewise/fireedu-api/pkg/logger"
)

func main() {
	isProduction := gin.Mode() == gin.ReleaseMode

	appLogger, err := logger.New(gin.Mode())
	if err != nil {
		panic(err)
	}
	defer appLogger.Sync()

	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		appLogger.Fatal("failed to load config", "path", configPath, "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatal("failed to init tracing", "error", err)
	}

	// Инициализируем подключение к PostgreSQL и применяем миграции
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), isProduction)
	if err != nil {
		appLogger.Fatal("failed to connect to database", "error", err)
	}
	if err := database.MigrateDB(db, cfg.Server.MigrationsDir, appLogger); err != nil {
		appLogger.Fatal("failed to migrate database", "error", err)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("failed to connect to redis", "error", err)
	}
	appLogger.Info("connected to redis", "mode", cfg.Redis.Mode)

	// Репозитории
	userRepo := pgRepo.NewUserRepo(db)
	engagementRepo := pgRepo.NewEngagementRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	answerRepo := pgRepo.NewAnswerRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		appLogger.Fatal("failed to init cache repo", "error", err)
	}
	sessionRepo, err := redisRepo.NewSessionRepo(redisClient)
	if err != nil {
		appLogger.Fatal("failed to init session repo", "error", err)
	}

	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour
	jwtService, err := auth.NewJWTService(cfg.Session.Secret, sessionTTL, "fireedu-api", sessionRepo)
	if err != nil {
		appLogger.Fatal("failed to init session tokens", "error", err)
	}

	// Внешние побочные эффекты: брокер событий и почта
	var publisher event.Publisher = event.NewNoopPublisher(appLogger)
	if cfg.Broker.Enabled {
		amqpPublisher, err := event.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Exchange, appLogger)
		if err != nil {
			appLogger.Fatal("failed to connect to broker", "error", err)
		}
		publisher = amqpPublisher
	}

	var emailService service.EmailService = service.NewNoopEmailService(appLogger)
	if cfg.Email.Enabled {
		resendService, err := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			appLogger.Fatal("failed to init email service", "error", err)
		}
		emailService = resendService
	}

	// WebSocket
	wsHub := ws.NewHub(appLogger)
	go wsHub.Run(ctx)
	wsManager := ws.NewManager(wsHub, appLogger)

	// Сервисы
	activityService := service.NewActivityService(db, userRepo, engagementRepo, cacheRepo, wsManager, publisher, appLogger)
	progressService := service.NewProgressService(userRepo, engagementRepo, cacheRepo,
		engagement.NewEvaluator(engagement.PostTestThresholds()), appLogger)
	assessmentService := service.NewAssessmentService(db, userRepo, questionRepo, answerRepo,
		activityService, progressService, emailService, publisher, wsManager, appLogger)
	authService := service.NewAuthService(userRepo, jwtService, activityService, appLogger)
	userService := service.NewUserService(userRepo, cacheRepo, publisher, appLogger)
	reportService := service.NewReportService(userRepo, appLogger)

	// Роутер
	router := gin.Default()
	if isProduction {
		// Production: не доверять прокси-заголовкам
		if err := router.SetTrustedProxies(nil); err != nil {
			appLogger.Warn("failed to set trusted proxies", "error", err)
		}
	} else if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
		appLogger.Warn("failed to set trusted proxies", "error", err)
	}

	router.Use(
		middleware.RequestID(),
		otelgin.Middleware(cfg.Tracing.ServiceName),
		metrics.GinMiddleware(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(router, handler.Handlers{
		Auth: handler.NewAuthHandler(authService, handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.Secure || isProduction,
			TTL:    sessionTTL,
		}, appLogger),
		User:       handler.NewUserHandler(authService, userService, appLogger),
		Activity:   handler.NewActivityHandler(activityService, appLogger),
		Progress:   handler.NewProgressHandler(progressService, appLogger),
		Assessment: handler.NewAssessmentHandler(assessmentService, appLogger),
		Report:     handler.NewReportHandler(reportService, appLogger),
		WS:         handler.NewWSHandler(wsManager, cfg.CORS.AllowedOrigins, appLogger),
		Health:     handler.NewHealthHandler(db, redisClient, wsHub),
	}, middleware.NewAuthMiddleware(authService, cfg.Session.CookieName), middleware.NewRateLimiter(redisClient, appLogger))

	// HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
	}

	// Останавливаем хаб и горутины, затем внешние подключения
	wsHub.Close()
	assessmentService.Wait()
	cancel()
	publisher.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Warn("failed to flush traces", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		appLogger.Warn("failed to close redis", "error", err)
	}
	if sqlDB, err := database.GetSQLDB(db); err == nil {
		sqlDB.Close()
	}

	appLogger.Info("server exited properly")
}
