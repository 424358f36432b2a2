package main

import (
	"log"
	"net/http"

	_ "memberhub/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"memberhub/internal/auth"
	"memberhub/internal/cache"
	"memberhub/internal/config"
	"memberhub/internal/db"
	"memberhub/internal/handler"
	"memberhub/internal/model"
	"memberhub/internal/notify"
	"memberhub/internal/ratelimit"
	"memberhub/internal/repository"
	"memberhub/internal/router"
	"memberhub/internal/service"
)

// @title Memberhub API
// @version 1.0
// @description Membership identity service: registration, login, password reset, and member profiles.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.PasswordResetToken{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	tokenRepo := repository.NewResetTokenRepository(gormDB)

	// Auth components
	hasher := auth.NewBcryptHasher()
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	sessionStore := auth.NewSessionStore(cacheClient)

	// Reset-request rate limiter: shared Redis counters when configured,
	// otherwise per-process counters.
	var counterStore ratelimit.CounterStore
	if cfg.RateLimitStore == "redis" {
		counterStore = ratelimit.NewRedisStore(cacheClient)
	} else {
		counterStore = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.New(counterStore)

	// Notifications are best-effort; without SMTP configured they go to the log.
	var notifier notify.Notifier
	if cfg.SMTPAddr != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		notifier = notify.NewLogNotifier()
	}

	// Services
	authService := service.NewAuthService(userRepo, hasher, jwtService, sessionStore, notifier)
	resetService := service.NewResetService(userRepo, tokenRepo, hasher, sessionStore, limiter, notifier, cfg.BaseURL)
	memberService := service.NewMemberService(userRepo, cacheClient)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, resetService)
	memberHandler := handler.NewMemberHandler(memberService)

	// Register routes
	router.Register(e, cfg, sessionStore, authHandler, memberHandler)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
