package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lexdraft/doc-template-service/api"
	"github.com/lexdraft/doc-template-service/api/handler"
	"github.com/lexdraft/doc-template-service/api/middleware"
	appconfig "github.com/lexdraft/doc-template-service/config"
	"github.com/lexdraft/doc-template-service/internal/cache"
	"github.com/lexdraft/doc-template-service/internal/database"
	"github.com/lexdraft/doc-template-service/internal/repository"
	"github.com/lexdraft/doc-template-service/internal/services"
	"github.com/lexdraft/doc-template-service/internal/template"
	"github.com/lexdraft/doc-template-service/pkg/jobqueue"
	"github.com/lexdraft/doc-template-service/pkg/storage"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to config file")
		mode       = flag.String("mode", "release", "Run mode (debug/release)")
	)
	flag.Parse()

	// .env values feed the ${VAR} references in the config file.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := appconfig.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(*mode)

	logger := setupLogger(cfg.Log)
	logger.Info("Starting document template service...")

	db, err := database.Setup(&database.Config{
		Type:         cfg.Database.Type,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		MaxLifetime:  time.Hour,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	repo := repository.NewTemplateRepository(db)

	store, err := setupStorage(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	metaCache, err := setupMetadataCache(cfg.Cache, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}

	extractor, err := template.NewExtractor(template.MarkerSyntax{
		Open:  cfg.Template.MarkerOpen,
		Close: cfg.Template.MarkerClose,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize placeholder extractor: %v", err)
	}

	templateService := services.NewTemplateService(repo, store, metaCache, extractor, logger)
	engine := template.NewEngine(template.NewRegistry(logger), logger)
	generationService := services.NewGenerationService(repo, store, templateService, engine, logger)

	queue, err := setupQueue(cfg.Queue, generationService.Processor(), logger)
	if err != nil {
		logger.Fatalf("Failed to initialize job queue: %v", err)
	}
	defer queue.Close()

	r := api.SetupRouter(
		handler.NewTemplateHandler(templateService),
		handler.NewGenerateHandler(queue, generationService, templateService),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configures the shared logger, adding a rotating file sink when
// one is configured.
func setupLogger(cfg appconfig.LogConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.File != "" {
		fileSink := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, fileSink))
	}

	return logger
}

// setupStorage builds the configured storage backend.
func setupStorage(cfg appconfig.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "minio":
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
		})
	default:
		return storage.NewLocalStorage(storage.LocalConfig{Path: cfg.Path})
	}
}

// setupMetadataCache builds the template metadata cache. A disabled cache
// runs on the always-miss backend so callers need no special casing.
func setupMetadataCache(cfg appconfig.CacheConfig, logger *logrus.Logger) (*cache.MetadataCache, error) {
	ttl := time.Duration(cfg.TTL) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}

	cacheType := cfg.Type
	if !cfg.Enable {
		cacheType = "nop"
	}

	backend, err := cache.NewCache(cache.Config{
		Type:            cacheType,
		RedisAddr:       cfg.Address,
		RedisPassword:   cfg.Password,
		RedisDB:         cfg.DB,
		DefaultTTL:      ttl,
		CleanupInterval: 10 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	return cache.NewMetadataCache(backend, ttl, logger), nil
}

// setupQueue builds the generation job queue and, for the redis variant,
// starts its worker server.
func setupQueue(cfg appconfig.QueueConfig, processor jobqueue.Processor, logger *logrus.Logger) (jobqueue.Queue, error) {
	queueConfig := &jobqueue.Config{
		Workers:       cfg.Workers,
		Capacity:      cfg.Capacity,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RetryDelay:    time.Duration(cfg.RetryDelay) * time.Second,
	}

	logger.WithFields(logrus.Fields{
		"type":    cfg.Type,
		"workers": cfg.Workers,
	}).Info("Setting up generation job queue")

	switch cfg.Type {
	case "redis":
		queue, err := jobqueue.NewRedisQueue(queueConfig, processor, logger)
		if err != nil {
			return nil, err
		}
		if err := queue.Start(); err != nil {
			return nil, err
		}
		return queue, nil
	default:
		return jobqueue.NewMemoryQueue(queueConfig, processor, logger), nil
	}
}
