package repository

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
	domainrepo "github.com/johnquangdev/meeting-rag/internal/domain/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&entities.Chunk{},
		&entities.MeetingSummary{},
		&entities.EmbeddingQueueItem{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func saveChunkWithVec(t *testing.T, store domainrepo.VectorStore, meetingID string, index int, text string, vec []float32) *entities.Chunk {
	t.Helper()
	chunk := entities.NewChunk(meetingID, index, "Alice", text, int64(index)*60000, int64(index)*60000+30000, len(text)/4)
	if err := store.SaveChunks(context.Background(), []*entities.Chunk{chunk}); err != nil {
		t.Fatalf("failed to save chunk: %v", err)
	}
	if vec != nil {
		if err := store.StoreEmbedding(context.Background(), chunk.ID, vec); err != nil {
			t.Fatalf("failed to store embedding: %v", err)
		}
	}
	return chunk
}

func TestSearchSimilarRanksAndFilters(t *testing.T) {
	store := NewVectorStore(newTestDB(t))

	saveChunkWithVec(t, store, "m1", 0, "close match", []float32{1, 0.1, 0})
	saveChunkWithVec(t, store, "m1", 1, "partial match", []float32{1, 1, 0})
	saveChunkWithVec(t, store, "m1", 2, "orthogonal", []float32{0, 0, 1})

	query := []float32{1, 0, 0}
	results, err := store.SearchSimilar(context.Background(), query, domainrepo.SearchOptions{
		MeetingID:     "m1",
		Limit:         10,
		MinSimilarity: 0.5,
	})
	if err != nil {
		t.Fatalf("SearchSimilar failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results above the floor, got %d", len(results))
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not sorted by similarity descending")
	}
	if results[0].Chunk.Text != "close match" {
		t.Errorf("best match = %q", results[0].Chunk.Text)
	}
}

func TestSearchSimilarRaisingFloorNeverAddsResults(t *testing.T) {
	store := NewVectorStore(newTestDB(t))

	vecs := [][]float32{
		{1, 0, 0}, {1, 0.5, 0}, {1, 1, 0}, {0.2, 1, 0}, {0, 1, 0},
	}
	for i, v := range vecs {
		saveChunkWithVec(t, store, "m1", i, "chunk", v)
	}

	query := []float32{1, 0, 0}
	prev := len(vecs) + 1
	for _, floor := range []float64{0, 0.25, 0.5, 0.75, 0.9, 1.0} {
		results, err := store.SearchSimilar(context.Background(), query, domainrepo.SearchOptions{
			Limit:         10,
			MinSimilarity: floor,
		})
		if err != nil {
			t.Fatalf("SearchSimilar failed at floor %.2f: %v", floor, err)
		}
		if len(results) > prev {
			t.Errorf("raising floor to %.2f grew results from %d to %d", floor, prev, len(results))
		}
		prev = len(results)
	}
}

func TestSearchSimilarSkipsUnembeddedRows(t *testing.T) {
	store := NewVectorStore(newTestDB(t))

	saveChunkWithVec(t, store, "m1", 0, "embedded", []float32{1, 0})
	saveChunkWithVec(t, store, "m1", 1, "not embedded", nil)

	results, err := store.SearchSimilar(context.Background(), []float32{1, 0}, domainrepo.SearchOptions{
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("SearchSimilar failed: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.Text != "embedded" {
		t.Fatalf("unembedded row leaked into search: %+v", results)
	}

	pending, err := store.GetChunksWithoutEmbedding(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetChunksWithoutEmbedding failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Text != "not embedded" {
		t.Fatalf("unexpected unembedded set: %+v", pending)
	}
}

func TestSearchSimilarScopesByMeeting(t *testing.T) {
	store := NewVectorStore(newTestDB(t))

	saveChunkWithVec(t, store, "m1", 0, "mine", []float32{1, 0})
	saveChunkWithVec(t, store, "m2", 0, "other", []float32{1, 0})

	results, err := store.SearchSimilar(context.Background(), []float32{1, 0}, domainrepo.SearchOptions{
		MeetingID: "m1",
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("SearchSimilar failed: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.MeetingID != "m1" {
		t.Fatalf("meeting scope not applied: %+v", results)
	}
}

func TestSaveSummaryReplaces(t *testing.T) {
	store := NewVectorStore(newTestDB(t))

	if err := store.SaveSummary(context.Background(), entities.NewMeetingSummary("m1", "first version")); err != nil {
		t.Fatalf("SaveSummary failed: %v", err)
	}
	if err := store.StoreSummaryEmbedding(context.Background(), "m1", []float32{1, 0}); err != nil {
		t.Fatalf("StoreSummaryEmbedding failed: %v", err)
	}
	if err := store.SaveSummary(context.Background(), entities.NewMeetingSummary("m1", "second version")); err != nil {
		t.Fatalf("second SaveSummary failed: %v", err)
	}

	summary, err := store.GetSummary(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if summary.SummaryText != "second version" {
		t.Errorf("summary text = %q, want replacement", summary.SummaryText)
	}
	if summary.HasEmbedding() {
		t.Error("replaced summary kept the old embedding")
	}

	var count int64
	if err := store.(*vectorStore).db.Model(&entities.MeetingSummary{}).Where("meeting_id = ?", "m1").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one summary row, got %d", count)
	}
}

func TestDeleteChunksForMeeting(t *testing.T) {
	store := NewVectorStore(newTestDB(t))

	saveChunkWithVec(t, store, "m1", 0, "goes away", []float32{1, 0})
	saveChunkWithVec(t, store, "m2", 0, "stays", []float32{1, 0})

	has, err := store.HasEmbeddings(context.Background(), "m1")
	if err != nil {
		t.Fatalf("HasEmbeddings failed: %v", err)
	}
	if !has {
		t.Fatal("expected embeddings before delete")
	}

	if err := store.DeleteChunksForMeeting(context.Background(), "m1"); err != nil {
		t.Fatalf("DeleteChunksForMeeting failed: %v", err)
	}

	has, err = store.HasEmbeddings(context.Background(), "m1")
	if err != nil {
		t.Fatalf("HasEmbeddings failed: %v", err)
	}
	if has {
		t.Error("embeddings survived delete")
	}

	count, err := store.CountChunks(context.Background(), "m2")
	if err != nil {
		t.Fatalf("CountChunks failed: %v", err)
	}
	if count != 1 {
		t.Errorf("other meeting lost chunks: %d", count)
	}
}
