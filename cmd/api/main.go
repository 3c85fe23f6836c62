package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/estateline/crm-api/internal/api"
	"github.com/estateline/crm-api/internal/core/service"
	"github.com/estateline/crm-api/internal/infrastructure/config"
	mongodb "github.com/estateline/crm-api/internal/infrastructure/db/mongo"
	redisdb "github.com/estateline/crm-api/internal/infrastructure/db/redis"
	"github.com/estateline/crm-api/internal/infrastructure/geo"
	"github.com/estateline/crm-api/internal/infrastructure/queue"
	"github.com/estateline/crm-api/internal/infrastructure/storage"
	"github.com/estateline/crm-api/pkg/logger"
)

const tokenTTL = 24 * time.Hour

// @title                       EstateLine CRM API
// @version                     1.0
// @description                 Real-estate sales CRM: lead pipeline, assignment, follow-ups and sales-visit reports.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load(slog.Default())

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Datastores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	// --- Repositories ---
	userRepo := mongodb.NewUserRepository(db)
	leadRepo := mongodb.NewLeadRepository(db)
	reportRepo := mongodb.NewReportRepository(db)

	for name, ensure := range map[string]func(context.Context) error{
		"users":   userRepo.EnsureIndexes,
		"leads":   leadRepo.EnsureIndexes,
		"reports": reportRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("index creation failed")
		}
	}

	// --- Background geocoding ---
	geocoder := geo.NewNominatimClient(cfg.Geocoder.BaseURL)
	geocache := redisdb.NewGeocodeCache(rdb)
	dispatcher := queue.NewDispatcher(cfg.Geocoder.Workers, geocoder, geocache, reportRepo, log)
	dispatcher.Start(ctx)

	// --- Services ---
	store, err := storage.NewDiskStore(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("upload dir unavailable")
	}

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, tokenTTL)
	userService := service.NewUserService(userRepo, log)
	leadService := service.NewLeadService(leadRepo, userRepo, log)
	importService := service.NewImportService(leadRepo, log)
	reportService := service.NewReportService(reportRepo, userRepo, dispatcher, store, log)
	exportService := service.NewExportService(reportService, userRepo, log)

	// --- HTTP ---
	e := api.NewRouter(api.RouterDeps{
		DB:            db,
		Redis:         rdb,
		JWTSecret:     cfg.JWTSecret,
		Logger:        log,
		AuthService:   authService,
		UserService:   userService,
		LeadService:   leadService,
		ImportService: importService,
		ReportService: reportService,
		ExportService: exportService,
		FileStore:     store,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
