package main

import (
	"context"
	"fmt"
	"log"

	"github.com/johnquangdev/meeting-rag/internal/adapter/repository"
	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
	"github.com/johnquangdev/meeting-rag/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-rag/internal/usecase/rag"
	"github.com/johnquangdev/meeting-rag/pkg/config"
)

// Seeds a demo meeting so the query endpoints have something to retrieve
// against in a fresh development database. Embeddings still need the real
// embedding service; run the queue retry endpoint after seeding.
func main() {
	log.Println("🚀 Seeding demo meeting...")

	// Load configuration from .env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	log.Println("📦 Connecting to database...")
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if err := database.Migrate(db, cfg.Database.Driver); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	store := repository.NewVectorStore(db)

	transcript := []entities.RawSegment{
		{Speaker: "Alice", Text: "Let's start with the release planning for next month.", TimestampMs: 0},
		{Speaker: "Bob", Text: "QA finished the regression suite yesterday with no blockers.", TimestampMs: 45000},
		{Speaker: "Alice", Text: "Great, then we decided to launch on Friday after the final QA pass.", TimestampMs: 180000},
		{Speaker: "Carol", Text: "Action item: I'll prepare the rollout checklist by Monday.", TimestampMs: 420000},
		{Speaker: "Bob", Text: "I will also update the status page templates before the launch.", TimestampMs: 480000},
	}

	preprocessor := rag.NewPreprocessor()
	chunker := rag.NewChunker()
	chunks := chunker.Chunk("demo-meeting", preprocessor.Preprocess(transcript))
	if len(chunks) == 0 {
		log.Fatal("demo transcript produced no chunks")
	}

	ctx := context.Background()
	if err := store.DeleteChunksForMeeting(ctx, "demo-meeting"); err != nil {
		log.Fatalf("Failed to clear previous demo data: %v", err)
	}
	if err := store.SaveChunks(ctx, chunks); err != nil {
		log.Fatalf("Failed to save demo chunks: %v", err)
	}
	if err := store.SaveSummary(ctx, entities.NewMeetingSummary("demo-meeting", "Release planning meeting: launch set for Friday, rollout checklist owned by Carol.")); err != nil {
		log.Fatalf("Failed to save demo summary: %v", err)
	}

	// Queue embedding work so the API's retry endpoint can pick it up.
	queueRepo := repository.NewEmbeddingQueueRepository(db)
	items := make([]*entities.EmbeddingQueueItem, 0, len(chunks)+1)
	for _, c := range chunks {
		items = append(items, entities.NewChunkQueueItem("demo-meeting", c.ID, cfg.RAG.MaxRetries))
	}
	items = append(items, entities.NewSummaryQueueItem("demo-meeting", cfg.RAG.MaxRetries))
	if err := queueRepo.Enqueue(ctx, items); err != nil {
		log.Fatalf("Failed to enqueue embedding items: %v", err)
	}

	fmt.Printf("✅ Seeded meeting %q with %d chunks\n", "demo-meeting", len(chunks))
	fmt.Println("👉 POST /v1/rag/queue/retry after starting the API to embed them")
}
