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

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/meeting-rag/pkg/validator"

	"github.com/johnquangdev/meeting-rag/internal/adapter/handler"
	"github.com/johnquangdev/meeting-rag/internal/adapter/repository"
	"github.com/johnquangdev/meeting-rag/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-rag/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-rag/internal/usecase/embedding"
	raguse "github.com/johnquangdev/meeting-rag/internal/usecase/rag"
	pkgai "github.com/johnquangdev/meeting-rag/pkg/ai"
	"github.com/johnquangdev/meeting-rag/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if err := database.Migrate(db, cfg.Database.Driver); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	vectorStore := repository.NewVectorStore(db)
	queueRepo := repository.NewEmbeddingQueueRepository(db)

	// Initialize AI clients
	log.Println("🤖 Initializing AI clients...")
	embeddingClient := pkgai.NewEmbeddingClient(&cfg.Embedding)
	generationClient := pkgai.NewGenerationClient(&cfg.Generation)

	// Embedding cache: Redis when enabled, in-memory otherwise
	var embedCache cache.EmbeddingCache
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis embedding cache...")
		redisStore, err := cache.NewRedisStore(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		embedCache = redisStore
	} else {
		log.Println("📦 Using in-memory embedding cache")
		embedCache = cache.NewMemoryStore()
	}
	embedder := cache.NewCachedEmbedder(embeddingClient, embedCache, cfg.Embedding.CacheTTL)

	// Initialize embedding pipeline
	log.Println("⚙️  Initializing embedding pipeline...")
	pipeline := embedding.NewPipeline(queueRepo, vectorStore, embedder, cfg.RAG.MaxRetries, logger)

	// Initialize retriever and RAG service
	log.Println("🔍 Initializing retriever...")
	retriever := raguse.NewRetriever(vectorStore, embedder, cfg.RAG, logger)
	ragService := raguse.NewService(vectorStore, queueRepo, pipeline, retriever, generationClient, cfg, logger)

	// Resume any items left pending by a previous run
	go func() {
		if err := pipeline.ProcessQueue(context.Background()); err != nil {
			logger.Error("❌ Startup queue drain failed", zap.Error(err))
		}
	}()

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	ragHandler := handler.NewRAG(ragService, logger)
	router := handler.NewRouter(cfg, ragHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
