package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
	repo "github.com/johnquangdev/meeting-rag/internal/domain/repositories"
)

type embeddingQueueRepository struct {
	db *gorm.DB
}

// NewEmbeddingQueueRepository creates a queue repository backed by GORM
func NewEmbeddingQueueRepository(db *gorm.DB) repo.EmbeddingQueueRepository {
	return &embeddingQueueRepository{db: db}
}

// Enqueue inserts queue items in a single transaction.
func (r *embeddingQueueRepository) Enqueue(ctx context.Context, items []*entities.EmbeddingQueueItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&items).Error
	})
}

// NextPending returns the oldest pending item that still has retries left.
// Items at or over the cap stay pending in storage but are never selected
// again; they only show up in Status as failed.
func (r *embeddingQueueRepository) NextPending(ctx context.Context) (*entities.EmbeddingQueueItem, error) {
	var item entities.EmbeddingQueueItem
	if err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < max_retries", entities.QueueStatusPending).
		Order("created_at ASC").
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// MarkProcessing moves an item into the processing state.
func (r *embeddingQueueRepository) MarkProcessing(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.EmbeddingQueueItem{}).
		Where("id = ?", itemID).
		Update("status", entities.QueueStatusProcessing).Error
}

// MarkCompleted marks an item done and stamps processed_at.
func (r *embeddingQueueRepository) MarkCompleted(ctx context.Context, itemID uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entities.EmbeddingQueueItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"status":       entities.QueueStatusCompleted,
			"processed_at": now,
		}).Error
}

// RevertToPending returns a failed attempt to the durable queue with the
// retry count incremented and the error recorded.
func (r *embeddingQueueRepository) RevertToPending(ctx context.Context, itemID uuid.UUID, errMsg string) error {
	details, _ := json.Marshal(map[string]interface{}{
		"last_error": errMsg,
		"failed_at":  time.Now().Format(time.RFC3339),
	})
	return r.db.WithContext(ctx).
		Model(&entities.EmbeddingQueueItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"status":        entities.QueueStatusPending,
			"retry_count":   gorm.Expr("retry_count + 1"),
			"error_message": errMsg,
			"error_details": details,
		}).Error
}

// RequeueProcessing reverts rows a crashed run left in processing. The retry
// count stays untouched: the attempt never reached the embedding service, so
// it must not consume a retry.
func (r *embeddingQueueRepository) RequeueProcessing(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.EmbeddingQueueItem{}).
		Where("status = ?", entities.QueueStatusProcessing).
		Update("status", entities.QueueStatusPending)
	return res.RowsAffected, res.Error
}

// HasItemForChunk reports whether a queue item already targets the chunk.
func (r *embeddingQueueRepository) HasItemForChunk(ctx context.Context, chunkID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.EmbeddingQueueItem{}).
		Where("chunk_id = ? AND status IN ?", chunkID,
			[]entities.QueueStatus{entities.QueueStatusPending, entities.QueueStatusProcessing}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasSummaryItem reports whether a live summary item exists for the meeting.
func (r *embeddingQueueRepository) HasSummaryItem(ctx context.Context, meetingID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.EmbeddingQueueItem{}).
		Where("meeting_id = ? AND target = ? AND status IN ?", meetingID, entities.QueueTargetSummary,
			[]entities.QueueStatus{entities.QueueStatusPending, entities.QueueStatusProcessing}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteForMeeting removes all queue rows for a meeting (reprocessing only).
func (r *embeddingQueueRepository) DeleteForMeeting(ctx context.Context, meetingID string) error {
	return r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Delete(&entities.EmbeddingQueueItem{}).Error
}

// Status counts items per state. Pending excludes retry-exhausted items;
// those are reported as failed instead.
func (r *embeddingQueueRepository) Status(ctx context.Context) (*repo.QueueStatusCounts, error) {
	counts := &repo.QueueStatusCounts{}

	if err := r.db.WithContext(ctx).Model(&entities.EmbeddingQueueItem{}).
		Where("status = ? AND retry_count < max_retries", entities.QueueStatusPending).
		Count(&counts.Pending).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&entities.EmbeddingQueueItem{}).
		Where("status = ?", entities.QueueStatusProcessing).
		Count(&counts.Processing).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&entities.EmbeddingQueueItem{}).
		Where("status = ?", entities.QueueStatusCompleted).
		Count(&counts.Completed).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&entities.EmbeddingQueueItem{}).
		Where("status = ? AND retry_count >= max_retries", entities.QueueStatusPending).
		Count(&counts.Failed).Error; err != nil {
		return nil, err
	}
	return counts, nil
}
