package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
)

// SearchOptions scopes and bounds a similarity search.
type SearchOptions struct {
	MeetingID     string // empty = all meetings
	Limit         int
	MinSimilarity float64
}

// ScoredChunk pairs a chunk with its cosine similarity to the query vector.
type ScoredChunk struct {
	Chunk      entities.Chunk
	Similarity float64
}

// ScoredSummary pairs a meeting summary with its cosine similarity.
type ScoredSummary struct {
	Summary    entities.MeetingSummary
	Similarity float64
}

// VectorStore is the durable store for chunks, summaries and their
// embeddings. Search is an exhaustive linear scan over rows with a non-NULL
// embedding; there is no index. That trade-off holds for thousands of rows,
// not millions.
type VectorStore interface {
	SaveChunks(ctx context.Context, chunks []*entities.Chunk) error
	SaveSummary(ctx context.Context, summary *entities.MeetingSummary) error

	StoreEmbedding(ctx context.Context, chunkID uuid.UUID, vec []float32) error
	StoreSummaryEmbedding(ctx context.Context, meetingID string, vec []float32) error

	SearchSimilar(ctx context.Context, queryVec []float32, opts SearchOptions) ([]ScoredChunk, error)
	SearchSummaries(ctx context.Context, queryVec []float32, limit int) ([]ScoredSummary, error)

	GetChunk(ctx context.Context, chunkID uuid.UUID) (*entities.Chunk, error)
	GetChunksWithoutEmbedding(ctx context.Context, meetingID string) ([]entities.Chunk, error)
	GetSummary(ctx context.Context, meetingID string) (*entities.MeetingSummary, error)

	DeleteChunksForMeeting(ctx context.Context, meetingID string) error
	HasEmbeddings(ctx context.Context, meetingID string) (bool, error)
	CountChunks(ctx context.Context, meetingID string) (int64, error)
}
