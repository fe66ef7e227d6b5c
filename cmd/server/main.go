package main

import (
	"log"
	"net/http"

	"artmarket/docs"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"artmarket/internal/auth"
	"artmarket/internal/cache"
	"artmarket/internal/client"
	"artmarket/internal/config"
	"artmarket/internal/db"
	"artmarket/internal/handler"
	"artmarket/internal/media"
	"artmarket/internal/model"
	"artmarket/internal/repository"
	"artmarket/internal/router"
	"artmarket/internal/service"
	"artmarket/internal/web"
)

// @title Artwork Marketplace API
// @version 1.0
// @description Artwork marketplace with cookie session auth, image uploads, and search.
// @host localhost:8080
// @BasePath /api
// @schemes http
func main() {
	cfg := config.Load()
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	var logger *zap.Logger
	var err error
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	e := echo.New()
	e.Use(echomw.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("database init", zap.Error(err))
	}

	if err := gormDB.AutoMigrate(&model.User{}, &model.Artwork{}); err != nil {
		logger.Fatal("auto-migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	mediaHost := media.NewClient(cfg.MediaBaseURL, cfg.MediaAPIKey, logger)

	userRepo := repository.NewUserRepository(gormDB)
	artworkRepo := repository.NewArtworkRepository(gormDB)

	jwtService := auth.NewJWTService(cfg.JWTSecret)

	authService := service.NewAuthService(userRepo, jwtService)
	userService := service.NewUserService(userRepo, artworkRepo)
	artworkService := service.NewArtworkService(artworkRepo, mediaHost, cacheClient, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	artworkHandler := handler.NewArtworkHandler(artworkService, cfg.UploadDir, logger)

	router.Register(e, cfg, jwtService, authHandler, userHandler, artworkHandler)

	apiClient := client.New(cfg.APIBaseURL)
	if err := web.Register(e, apiClient, logger); err != nil {
		logger.Fatal("web init", zap.Error(err))
	}

	addr := ":" + cfg.ServerPort
	logger.Info("server starting", zap.String("addr", addr))
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server start", zap.Error(err))
	}
}
