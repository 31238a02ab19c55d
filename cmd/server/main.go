package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pesabridge/config"
	"pesabridge/internal/repository"
	"pesabridge/internal/router"
	"pesabridge/internal/service"
	"pesabridge/pkg/mpesa"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(debug bool) *zap.SugaredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stdout), level)
	return zap.New(core).Sugar()
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading configuration from environment")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Server.Debug)
	defer logger.Sync()

	gateway := mpesa.NewClient(mpesa.ClientConfig{
		BaseURL:        cfg.Mpesa.BaseURL(),
		ConsumerKey:    cfg.Mpesa.ConsumerKey,
		ConsumerSecret: cfg.Mpesa.ConsumerSecret,
		Shortcode:      cfg.Mpesa.BusinessShortcode,
		Passkey:        cfg.Mpesa.Passkey,
		CallbackURL:    cfg.Mpesa.CallbackURL,
		Timeout:        cfg.Mpesa.RequestTimeout,
		TokenValidity:  cfg.Mpesa.TokenValidity,
		TokenMargin:    cfg.Mpesa.TokenMargin,
	}, logger)

	var dedup repository.DedupStore
	if cfg.Redis.Addr != "" {
		dedup = repository.NewRedisDedupStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		logger.Infow("callback dedup backed by redis", "addr", cfg.Redis.Addr)
	} else {
		dedup = repository.NewMemoryDedupStore()
	}
	callbacks := service.NewCallbackService(dedup, logger)

	engine := router.Setup(cfg, gateway, callbacks, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infow("server listening", "addr", srv.Addr, "env", cfg.Mpesa.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalw("server shutdown failed", "error", err)
	}
	logger.Infow("server stopped")
}
