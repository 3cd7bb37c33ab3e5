package main

import (
	"log"
	"net/http"
	"os"

	_ "userdir/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"userdir/internal/auth"
	"userdir/internal/cache"
	"userdir/internal/config"
	"userdir/internal/db"
	"userdir/internal/handler"
	"userdir/internal/model"
	"userdir/internal/notify"
	"userdir/internal/ratelimit"
	"userdir/internal/repository"
	"userdir/internal/router"
	"userdir/internal/service"
	"userdir/internal/validation"
)

// @title User Directory API
// @version 1.0
// @description Organizational user directory with role-gated account management and session authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		if err := gormDB.Migrator().DropTable(&model.Account{}); err != nil {
			log.Printf("Warning: Failed to drop table (may not exist): %v", err)
		}
		log.Println("Tables dropped")
	}

	if err := gormDB.AutoMigrate(&model.Account{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	accountRepo := repository.NewAccountRepository(gormDB)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	sessions := auth.NewRedisSessionStore(cacheClient)
	audit := auth.NewSlogAuditSink(nil)
	authorizer := auth.NewAuthorizer(audit)
	sessionMW := auth.NewSessionMiddleware(tokens, sessions, accountRepo)

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.SMTPAddr != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom)
	}

	accountService := service.NewAccountService(accountRepo, sessions, notifier, audit, cfg.NotifyTimeout)
	authService := service.NewAuthService(accountRepo, tokens, sessions)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(accountService)

	gate := ratelimit.NewGate(cacheClient)
	validator := validation.New(validation.NewStaticDenylist())

	router.Register(e, cfg, validator, sessionMW, authorizer, gate, authHandler, userHandler)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
