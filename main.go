package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/HSouheill/movie_mania_backend/config"
	"github.com/HSouheill/movie_mania_backend/controllers"
	"github.com/HSouheill/movie_mania_backend/middleware"
	"github.com/HSouheill/movie_mania_backend/repositories"
	"github.com/HSouheill/movie_mania_backend/routes"
	"github.com/HSouheill/movie_mania_backend/security"
	"github.com/HSouheill/movie_mania_backend/services"
	"github.com/HSouheill/movie_mania_backend/utils"
)

func main() {
	// Load .env file
	if err := config.LoadEnvFile(); err != nil {
		log.Printf("Warning: failed to read .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Connect to database
	client, err := config.ConnectDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(shutdownCtx); err != nil {
			logger.Warn("failed to disconnect from MongoDB", zap.Error(err))
		}
	}()
	db := client.Database(cfg.DBName)

	checks := map[string]routes.Pinger{
		"database": func(ctx context.Context) error { return client.Ping(ctx, nil) },
	}

	otpStore, redisClient := newOTPStore(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	otps := services.NewOTPManager(otpStore, cfg.OTPTTL, cfg.OTPMaxAttempts)
	otps.StartJanitor(ctx, 10*time.Minute, logger)

	issuer, err := security.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		return err
	}

	var notifier services.Notifier
	if cfg.SMTPConfigured() {
		notifier = services.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, logger)
	} else {
		logger.Warn("SMTP is not configured, outgoing mail will only be logged")
		notifier = services.NewLogNotifier(logger)
	}

	storage, imageHosts, err := newImageStorage(ctx, cfg)
	if err != nil {
		return err
	}
	images := services.NewMovieImageService(storage, logger)

	userRepo := repositories.NewUserRepository(db)
	movieRepo := repositories.NewMovieRepository(db)

	e := newServer(ctx, cfg, logger, imageHosts)

	requireAuth := []echo.MiddlewareFunc{
		middleware.JWTMiddleware(issuer, logger),
		middleware.LoadSessionUser(userRepo, logger),
	}

	handlers := routes.Handlers{
		Auth:        controllers.NewAuthController(userRepo, otps, issuer, notifier, cfg.FromEmail, logger),
		Users:       controllers.NewUserController(userRepo, movieRepo, logger),
		Movies:      controllers.NewMovieController(movieRepo, images, logger),
		RequireAuth: requireAuth,
		Checks:      checks,
	}
	if cfg.StorageBackend == "local" {
		handlers.UploadDir = cfg.UploadDir
	}
	routes.SetupRoutes(e, handlers)

	return serve(ctx, e, cfg.Port, logger)
}

func newServer(ctx context.Context, cfg *config.Config, logger *zap.Logger, imageHosts []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.NewValidator()

	rateLimiter := middleware.NewRateLimiter()
	rateLimiter.StartCleanup(ctx, time.Hour)

	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(logger.Named("http")))
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS(cfg.CORSAllowedOrigins))
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		ImageHosts:    imageHosts,
		AllowInlineJS: false,
	}))
	e.Use(middleware.RequireBodyContentType())
	e.Use(echoMiddleware.BodyLimit("12M"))
	if !cfg.IsDevelopment() {
		e.Use(httpsRedirect())
	}

	return e
}

// newOTPStore prefers Redis when configured and falls back to process memory
func newOTPStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.OTPStore, *redis.Client) {
	if cfg.OTPStore != "redis" {
		return services.NewMemoryOTPStore(), nil
	}

	client, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, keeping OTPs in memory", zap.Error(err))
		return services.NewMemoryOTPStore(), nil
	}
	return services.NewRedisOTPStore(client), client
}

func newImageStorage(ctx context.Context, cfg *config.Config) (services.ImageStorage, []string, error) {
	if cfg.StorageBackend == "firebase" {
		app, err := config.InitFirebase(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		storage, err := services.NewFirebaseImageStorage(ctx, app, cfg.FirebaseBucket)
		if err != nil {
			return nil, nil, err
		}
		return storage, []string{"https://storage.googleapis.com"}, nil
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, nil, err
	}
	return services.NewLocalImageStorage(cfg.UploadDir, "/uploads"), nil, nil
}

func serve(ctx context.Context, e *echo.Echo, port string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(http.StatusMovedPermanently, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
