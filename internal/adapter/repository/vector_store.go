package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/johnquangdev/meeting-rag/errors"
	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
	repo "github.com/johnquangdev/meeting-rag/internal/domain/repositories"
	"github.com/johnquangdev/meeting-rag/pkg/vector"
)

type vectorStore struct {
	db *gorm.DB
}

// NewVectorStore creates a vector store backed by GORM
func NewVectorStore(db *gorm.DB) repo.VectorStore {
	return &vectorStore{db: db}
}

// SaveChunks inserts a full chunk set in a single transaction so a partial
// set is never visible to a concurrent reader.
func (r *vectorStore) SaveChunks(ctx context.Context, chunks []*entities.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&chunks).Error
	})
	if err != nil {
		return apperrors.ErrDBTransactionFailed(err)
	}
	return nil
}

// SaveSummary replaces the meeting summary (delete-then-insert, never patched).
func (r *vectorStore) SaveSummary(ctx context.Context, summary *entities.MeetingSummary) error {
	if summary == nil {
		return errors.New("summary cannot be nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", summary.MeetingID).Delete(&entities.MeetingSummary{}).Error; err != nil {
			return err
		}
		return tx.Create(summary).Error
	})
	if err != nil {
		return apperrors.ErrDBTransactionFailed(err)
	}
	return nil
}

// StoreEmbedding attaches a vector to an existing chunk row.
func (r *vectorStore) StoreEmbedding(ctx context.Context, chunkID uuid.UUID, vec []float32) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Chunk{}).
		Where("id = ?", chunkID).
		Update("embedding_blob", vector.EncodeBlob(vec))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("chunk %s not found", chunkID)
	}
	return nil
}

// StoreSummaryEmbedding attaches a vector to an existing summary row.
func (r *vectorStore) StoreSummaryEmbedding(ctx context.Context, meetingID string, vec []float32) error {
	result := r.db.WithContext(ctx).
		Model(&entities.MeetingSummary{}).
		Where("meeting_id = ?", meetingID).
		Update("embedding_blob", vector.EncodeBlob(vec))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("summary for meeting %s not found", meetingID)
	}
	return nil
}

// SearchSimilar scans every embedded chunk (optionally scoped to one meeting),
// keeps those at or above the similarity floor, and returns the top matches
// sorted by similarity descending.
func (r *vectorStore) SearchSimilar(ctx context.Context, queryVec []float32, opts repo.SearchOptions) ([]repo.ScoredChunk, error) {
	query := r.db.WithContext(ctx).Where("embedding_blob IS NOT NULL")
	if opts.MeetingID != "" {
		query = query.Where("meeting_id = ?", opts.MeetingID)
	}

	var chunks []entities.Chunk
	if err := query.Find(&chunks).Error; err != nil {
		return nil, err
	}

	var scored []repo.ScoredChunk
	for _, c := range chunks {
		vec, err := vector.DecodeBlob(c.EmbeddingBlob)
		if err != nil {
			return nil, fmt.Errorf("corrupt embedding for chunk %s: %w", c.ID, err)
		}
		sim := vector.Cosine(queryVec, vec)
		if sim < opts.MinSimilarity {
			continue
		}
		scored = append(scored, repo.ScoredChunk{Chunk: c, Similarity: sim})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if opts.Limit > 0 && len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}
	return scored, nil
}

// SearchSummaries ranks all embedded summaries with no similarity floor.
func (r *vectorStore) SearchSummaries(ctx context.Context, queryVec []float32, limit int) ([]repo.ScoredSummary, error) {
	var summaries []entities.MeetingSummary
	if err := r.db.WithContext(ctx).Where("embedding_blob IS NOT NULL").Find(&summaries).Error; err != nil {
		return nil, err
	}

	var scored []repo.ScoredSummary
	for _, s := range summaries {
		vec, err := vector.DecodeBlob(s.EmbeddingBlob)
		if err != nil {
			return nil, fmt.Errorf("corrupt embedding for summary %s: %w", s.MeetingID, err)
		}
		scored = append(scored, repo.ScoredSummary{Summary: s, Similarity: vector.Cosine(queryVec, vec)})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// GetChunk retrieves a chunk by ID, or nil if it no longer exists.
func (r *vectorStore) GetChunk(ctx context.Context, chunkID uuid.UUID) (*entities.Chunk, error) {
	var chunk entities.Chunk
	if err := r.db.WithContext(ctx).Where("id = ?", chunkID).First(&chunk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chunk, nil
}

// GetChunksWithoutEmbedding returns the meeting's chunks still waiting for a
// vector, ordered by chunk index.
func (r *vectorStore) GetChunksWithoutEmbedding(ctx context.Context, meetingID string) ([]entities.Chunk, error) {
	var chunks []entities.Chunk
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND embedding_blob IS NULL", meetingID).
		Order("chunk_index ASC").
		Find(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

// GetSummary retrieves the summary for a meeting, or nil if none exists.
func (r *vectorStore) GetSummary(ctx context.Context, meetingID string) (*entities.MeetingSummary, error) {
	var summary entities.MeetingSummary
	if err := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID).First(&summary).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

// DeleteChunksForMeeting removes a meeting's chunks and summary in one
// transaction; reprocessing is a full replace.
func (r *vectorStore) DeleteChunksForMeeting(ctx context.Context, meetingID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&entities.Chunk{}).Error; err != nil {
			return err
		}
		return tx.Where("meeting_id = ?", meetingID).Delete(&entities.MeetingSummary{}).Error
	})
	if err != nil {
		return apperrors.ErrDBTransactionFailed(err)
	}
	return nil
}

// HasEmbeddings reports whether any chunk of the meeting is embedded.
func (r *vectorStore) HasEmbeddings(ctx context.Context, meetingID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Chunk{}).
		Where("meeting_id = ? AND embedding_blob IS NOT NULL", meetingID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountChunks counts all chunk rows for a meeting, embedded or not.
func (r *vectorStore) CountChunks(ctx context.Context, meetingID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Chunk{}).
		Where("meeting_id = ?", meetingID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
