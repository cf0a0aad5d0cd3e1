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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rapidaid/rapidaid/db"
	"github.com/rapidaid/rapidaid/internal/auth"
	"github.com/rapidaid/rapidaid/internal/config"
	"github.com/rapidaid/rapidaid/internal/live"
	"github.com/rapidaid/rapidaid/internal/logger"
	"github.com/rapidaid/rapidaid/internal/notify"
	"github.com/rapidaid/rapidaid/internal/router"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.ConnectDatabase(cfg.Database.DSN, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.MigrateDatabase(conn); err != nil {
		zlog.Fatal("Failed to migrate database", zap.Error(err))
	}

	tokens, err := auth.NewJWT(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	if err != nil {
		zlog.Fatal("Failed to initialize auth", zap.Error(err))
	}

	hub := live.NewHub(cfg.Server.AllowedOrigins, zlog.Named("live"))

	r := router.NewRouter(router.Deps{
		DB:             conn,
		Tokens:         tokens,
		Notifier:       newDispatcher(cfg, conn, zlog.Named("notify")),
		Hub:            hub,
		Logger:         zlog,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		CookieDomain:   cfg.Server.CookieDomain,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		zlog.Info("Server running", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Error starting server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("Error shutting down server", zap.Error(err))
	}

	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.Close()
	}

	zlog.Info("Server stopped")
}

// newDispatcher wires whichever delivery channels are configured. A channel
// that fails to start is logged and left out.
func newDispatcher(cfg *config.Config, conn *gorm.DB, zlog *zap.Logger) *notify.Dispatcher {
	var mailer notify.Sender
	if cfg.Mail.Enabled() {
		mailer = notify.NewMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	} else {
		zlog.Info("Mail is disabled (mail.host or mail.from is empty)")
	}

	var channels []notify.Sender
	if cfg.Webhooks.Discord != "" {
		channels = append(channels, notify.NewDiscordWebhook(cfg.Webhooks.Discord))
	}
	if cfg.Webhooks.Slack != "" {
		channels = append(channels, notify.NewSlackWebhook(cfg.Webhooks.Slack))
	}
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegramChannel(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.Endpoint)
		if err != nil {
			zlog.Warn("Telegram channel disabled", zap.Error(err))
		} else {
			channels = append(channels, tg)
		}
	}

	return notify.NewDispatcher(conn, zlog, mailer, channels...)
}
