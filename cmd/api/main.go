package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/babcheck/babcheck/backend/config"
	"github.com/babcheck/babcheck/backend/internal/api"
	"github.com/babcheck/babcheck/backend/internal/database"
	"github.com/babcheck/babcheck/backend/internal/logger"
	"github.com/babcheck/babcheck/backend/internal/middleware"
	"github.com/babcheck/babcheck/backend/internal/neis"
	"github.com/babcheck/babcheck/backend/internal/server"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/store"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	records, err := database.OpenStore(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer records.Close()

	// Chat sessions live in Redis, so it is required.
	rdb, err := database.NewRedisClient(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	var archive service.PhotoArchive
	s3cfg, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Warn("Snack photo archive disabled")
	} else if s3cfg != nil {
		archive = s3cfg
		log.WithField("bucket", s3cfg.BucketName).Info("Snack photo archive enabled")
	}

	srv := server.New(cfg, log, buildServices(cfg, log, records, rdb, archive))

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received signal")
	}

	log.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Info("Server stopped")
}

func buildServices(cfg *config.Config, log *logrus.Logger, records store.RecordStore, rdb *redis.Client, archive service.PhotoArchive) api.Services {
	loc := cfg.Location()

	neisClient := neis.NewClient(neis.Config{
		APIKey:     cfg.NEISAPIKey,
		OfficeCode: cfg.NEISOfficeCode,
		SchoolCode: cfg.NEISSchoolCode,
		BaseURL:    cfg.NEISBaseURL,
	}, nil)
	llm := service.NewLLMService(cfg.OpenAIAPIKey, cfg.OpenAIURL, nil, log)
	if !llm.Configured() {
		log.Warnf("%s is not set; chat replies fall back to the apology message", config.EnvOpenAIAPIKey)
	}
	if missing := cfg.MissingNEIS(); len(missing) > 0 {
		log.WithField("missing", missing).Warn("NEIS is not configured; the default menu will be served")
	}

	menus := service.NewMenuService(neisClient, rdb, cfg, log)
	tokens := service.NewTokenService(cfg.JWTSecret)

	return api.Services{
		Config:  cfg,
		Tokens:  tokens,
		Store:   records,
		Redis:   rdb,
		Menus:   menus,
		Chats:   service.NewChatService(menus, records, llm, service.NewSessionStore(rdb, cfg.SessionTTL), log),
		Records: service.NewRecordService(menus, records, log),
		Profile: service.NewProfileService(records, loc, log),
		Users:   service.NewUserService(records, cfg, log),
		Snacks:  service.NewSnackService(llm, archive, loc, log),
		Monitor: service.NewMonitorService(records, loc, log),
		Proxy: api.NewProxyHandler(cfg, neisClient, llm,
			middleware.NewProxyRateLimiter(rdb, cfg.ProxyRateLimit, cfg.RateLimitWindow, log), log),
		ChatLimiter: middleware.NewChatRateLimiter(rdb, cfg.ChatRateLimit, cfg.RateLimitWindow, log),
	}
}
