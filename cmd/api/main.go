package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"

	"imagevault/internal/config"
	"imagevault/internal/database"
	"imagevault/internal/middleware"
	"imagevault/internal/modules/auth"
	"imagevault/internal/modules/upload"
	jwtsvc "imagevault/internal/pkg/jwt"
	"imagevault/internal/realtime"
	"imagevault/internal/repository"
	"imagevault/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logLevel := logger.Info
	if cfg.IsProduction() {
		logLevel = logger.Warn
	}
	db, err := database.ConnectWithLogLevel(cfg.DatabaseURL, logLevel)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := database.Migrate(db, cfg.DatabaseURL, repository.Models()...); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	ctx := context.Background()
	store, err := newStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("media store init failed: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	hub := realtime.NewHub()

	authHandler := auth.NewHandler(auth.NewService(userRepo, j))

	uploadService := upload.NewService(uploadRepo, store, hub, upload.Options{
		MaxFileSize:   cfg.MaxFileSize,
		MaxBatchFiles: cfg.MaxBatchFiles,
		StoreTimeout:  cfg.StoreTimeout,
	})
	uploadHandler := upload.NewHandler(uploadService, hub, j)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if local, ok := store.(*storage.LocalStorage); ok {
		r.Static(cfg.UploadPublicBase, local.Root())
	}

	api := r.Group("/api")
	api.Use(middleware.APIKey(cfg.APIKey))
	{
		requireAuth := middleware.JWTAuth(j)
		authHandler.RegisterRoutes(api, requireAuth)
		uploadHandler.RegisterRoutes(api, requireAuth)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s storage=%s)", cfg.Port, cfg.AppEnv, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("server stopped")
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverCloudinary:
		return storage.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	case config.DriverMinio:
		return storage.NewMinioStorage(ctx, storage.MinioConfig{
			Endpoint:   cfg.MinioEndpoint,
			AccessKey:  cfg.MinioAccessKey,
			SecretKey:  cfg.MinioSecretKey,
			Bucket:     cfg.MinioBucket,
			PublicBase: cfg.MinioPublicBase,
			UseSSL:     cfg.MinioUseSSL,
		})
	case config.DriverLocal:
		return storage.NewLocalStorage(cfg.UploadDir, cfg.UploadPublicBase)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
