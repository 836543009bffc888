package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notemate/config"
	"notemate/handler"
	"notemate/middleware"
	"notemate/repository"
	"notemate/services"
	"notemate/usecase"
	"notemate/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	shutdownTimeout = 10 * time.Second
	multipartSlack  = 1 << 20
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	reporting := utils.InitRollbar(cfg.RollbarToken, cfg.Env, cfg.Build)
	logData, err := utils.NewLogBuild().
		FromPath(cfg.LogFile).
		Level(cfg.LogLevel).
		Console(!cfg.IsProduction()).
		Rollbar(reporting).
		Make()
	if err != nil {
		log.Fatal().Err(err).Msg("building logger")
	}
	utils.InitLogger(logData)
	if logData.LogFile != nil {
		defer logData.LogFile.Close()
	}
	logger := logData.Logger
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	defer cancel()

	client, err := config.ConnectMongo(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.Database.DatabaseName)
	if err := repository.SetupIndexes(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("creating indexes")
	}
	logger.Info().Str("database", cfg.Database.DatabaseName).Msg("connected to mongodb")

	rdb, err := config.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	files, err := services.NewLocalFileStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("upload directory unavailable")
	}

	users := repository.GetUserRepo(db)
	subjects := repository.GetSubjectRepo(db)
	notes := repository.GetNotesRepo(db)

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTExpire)
	blacklist := services.NewTokenBlacklist(rdb)
	authSvc := usecase.NewAuthService(users, tokens, blacklist,
		services.NewTwoFactor(cfg.AppName),
		services.NewMailer(cfg.SendgridAPIKey, cfg.AppName, cfg.MailFrom),
		cfg.FrontendURL)

	h := handler.New(
		usecase.NewNotesService(notes, subjects, users, files, services.NewFeaturedCache(rdb), cfg.MaxFileSize, cfg.MaxFiles),
		usecase.NewSubjectsService(subjects),
		usecase.NewUsersService(users, notes),
		authSvc,
	)
	health := &handler.Health{
		Env:   cfg.Env,
		Build: cfg.Build,
		Database: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Redis: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
		StartedAt: time.Now(),
	}
	router := handler.NewRouter(h, middleware.NewAuth(tokens, blacklist, authSvc), health, handler.RouterConfig{
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
		MaxBodySize:  int64(cfg.MaxFiles)*cfg.MaxFileSize + multipartSlack,
		Production:   cfg.IsProduction(),
		ReportPanics: reporting,
		RateLimiter:  middleware.NewRateLimiter(rdb, cfg.RateLimitMax, cfg.RateLimitWindow),
	})

	go usecase.NewReconciler(subjects, cfg.ReconcileInterval).Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	wait(logger)
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

func wait(logger zerolog.Logger) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	sig := <-signalChan
	logger.Info().Str("signal", sig.String()).Msg("shutting down")
}
