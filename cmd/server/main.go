package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/auth"
	"github.com/bakiel/jasper-portal-api/internal/config"
	"github.com/bakiel/jasper-portal-api/internal/database"
	"github.com/bakiel/jasper-portal-api/internal/handlers"
	"github.com/bakiel/jasper-portal-api/internal/imail"
	"github.com/bakiel/jasper-portal-api/internal/logger"
	"github.com/bakiel/jasper-portal-api/internal/middleware"
	"github.com/bakiel/jasper-portal-api/internal/queue"
	"github.com/bakiel/jasper-portal-api/internal/ratelimit"
	"github.com/bakiel/jasper-portal-api/internal/services/oauth"
	"github.com/bakiel/jasper-portal-api/internal/session"
	"github.com/bakiel/jasper-portal-api/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry tracing, optional
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "jasper-portal-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	// Redis backs the login limiter and the global rate limit store. The
	// gateway degrades to in-process limiting when it is unreachable.
	redisClient := connectRedis(cfg.RedisURL, zapLogger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
	}

	// RabbitMQ carries the notification jobs. Optional: without it the
	// gateway skips login alerts and approval emails.
	jobQueue := connectQueue(cfg, zapLogger)
	if jobQueue != nil {
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
	}

	// Repositories
	clientRepo := database.NewClientRepository(db)
	notificationRepo := database.NewNotificationRepository(db)
	corsConfigRepo := database.NewCorsConfigRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)

	// Session stack
	if cfg.SessionSecret == "" {
		zapLogger.Warn("session_secret_not_set_tokens_are_unsigned")
	}
	codec := session.NewCodec(cfg.SessionSecret)
	issuer := session.NewIssuer(codec, clientRepo)

	verifier, err := buildCredentialVerifier(cfg)
	if err != nil {
		zapLogger.Fatal("failed_to_build_credential_verifier", zap.Error(err))
	}
	if !cfg.AdminConfigured() {
		zapLogger.Warn("no_admin_account_configured_password_login_disabled")
	}

	// OAuth adapters. The handlers answer with a configuration error when
	// the matching client ID is absent.
	jwksManager := oauth.NewJWKSManager()
	googleVerifier := oauth.NewGoogleVerifier(jwksManager, cfg.GoogleClientID)
	linkedinExchanger := oauth.NewLinkedInExchanger(cfg.LinkedInClientID, cfg.LinkedInClientSecret)

	// Login limiter: fixed window per client IP
	window := time.Duration(cfg.AuthRateLimitWindow) * time.Second
	var loginLimiter ratelimit.Limiter
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	if redisClient != nil {
		loginLimiter = ratelimit.NewRedisLimiter(redisClient, cfg.AuthRateLimit, window)
	} else {
		memLimiter := ratelimit.NewMemoryLimiter(cfg.AuthRateLimit, window)
		memLimiter.StartSweeper(sweepCtx, window)
		loginLimiter = memLimiter
	}

	// Email stack
	smtpSender := imail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	if !cfg.SMTPConfigured() {
		zapLogger.Warn("smtp_not_configured_email_delivery_will_fail")
	}
	mailService := imail.NewService(smtpSender, cfg.SMTPFrom, zapLogger)
	mailVerifier := imail.NewVerifier()

	// Handlers
	authHandler := handlers.NewAuthHandler(verifier, issuer, googleVerifier, linkedinExchanger, clientRepo, jobQueue, cfg, zapLogger)
	clientsHandler := handlers.NewClientsHandler(clientRepo, jobQueue, zapLogger)
	imailHandler := handlers.NewIMailHandler(mailService, mailVerifier, zapLogger)
	notificationsHandler := handlers.NewNotificationsHandler(notificationRepo, zapLogger)
	healthChecker := handlers.NewHealthChecker(db, redisClient, jobQueue)
	openAPIHandler := handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml"))

	r := mux.NewRouter()

	// Middleware, outermost first
	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("jasper-portal-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))

	corsReloader := middleware.NewCORSReloader(corsConfigRepo, cfg.FrontendURL, zapLogger, 1*time.Minute)
	r.Use(corsReloader.Middleware())

	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Global rate limit, hot-reloaded from the database. Needs Redis.
	var rateLimitMW func(http.Handler) http.Handler
	var rateLimitReloader *middleware.RateLimitReloader
	if redisClient != nil {
		rateLimitReloader = middleware.NewRateLimitReloader(redisClient, ratelimitConfigRepo, "100-M", zapLogger, 1*time.Minute)
		rateLimitMW = rateLimitReloader.Middleware()
	}

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", healthChecker.VersionInfo).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	if rateLimitMW != nil {
		apiRouter.Use(rateLimitMW)
	}
	openAPIHandler.RegisterRoutes(apiRouter)

	// Authentication routes. The password login route carries its own
	// fixed-window limiter keyed by client IP.
	loginRouter := apiRouter.PathPrefix("").Subrouter()
	loginRouter.Use(middleware.LoginRateLimit(loginLimiter, zapLogger))
	authHandler.RegisterRoutes(loginRouter)

	// Bearer-protected admin surface
	adminRouter := apiRouter.PathPrefix("").Subrouter()
	adminRouter.Use(middleware.Auth(codec, zapLogger))
	authHandler.RegisterProtectedRoutes(adminRouter)
	clientsHandler.RegisterRoutes(adminRouter)

	// Email API, service-key protected
	imailRouter := apiRouter.PathPrefix("").Subrouter()
	imailRouter.Use(middleware.APIKey(cfg.IMailAPIKey, zapLogger))
	imailHandler.RegisterRoutes(imailRouter)

	// Notification feed
	notificationsHandler.RegisterRoutes(apiRouter)

	// Preflight requests reach this after the CORS middleware has set headers
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Hot-reload loops and DLQ garbage collection
	reloadCtx, reloadCancel := context.WithCancel(context.Background())
	defer reloadCancel()
	go corsReloader.Start(reloadCtx)
	if rateLimitReloader != nil {
		go rateLimitReloader.Start(reloadCtx)
	}
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(reloadCtx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	reloadCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectRedis returns nil when Redis is unreachable so the caller can fall
// back to in-process limiting.
func connectRedis(redisURL string, zapLogger *zap.Logger) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		zapLogger.Warn("invalid_redis_url", zap.Error(err))
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Warn("failed_to_connect_to_redis_falling_back_to_memory_limiter", zap.Error(err))
		_ = client.Close()
		return nil
	}
	zapLogger.Info("connected_to_redis")
	return client
}

// connectQueue retries the broker with exponential backoff to ride out its
// startup delay, then gives up and runs without notifications.
func connectQueue(cfg *config.Config, zapLogger *zap.Logger) queue.JobQueue {
	if cfg.RabbitMQURL == "" {
		zapLogger.Warn("rabbitmq_not_configured_notifications_disabled")
		return nil
	}

	const maxRetries = 5
	delay := 2 * time.Second
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
		delay *= 2
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
	}

	zapLogger.Error("failed_to_connect_to_rabbitmq_notifications_disabled")
	return nil
}

func buildCredentialVerifier(cfg *config.Config) (*auth.Verifier, error) {
	if !cfg.AdminConfigured() {
		return auth.NewVerifier(nil), nil
	}
	if cfg.AdminPasswordHash != "" {
		return auth.NewVerifier([]auth.Entry{{
			Email:        cfg.AdminEmail,
			DisplayName:  cfg.AdminName,
			PasswordHash: cfg.AdminPasswordHash,
		}}), nil
	}
	return auth.NewVerifierFromPlaintext(map[string]struct{ Password, DisplayName string }{
		cfg.AdminEmail: {Password: cfg.AdminPassword, DisplayName: cfg.AdminName},
	})
}
