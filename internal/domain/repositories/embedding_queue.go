package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
)

// QueueStatusCounts summarizes the embedding queue. Failed counts items still
// pending but at/over their retry cap; those are parked, not deleted.
type QueueStatusCounts struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// EmbeddingQueueRepository persists embedding work items.
type EmbeddingQueueRepository interface {
	Enqueue(ctx context.Context, items []*entities.EmbeddingQueueItem) error

	// NextPending returns the oldest pending item with retries left, or nil.
	NextPending(ctx context.Context) (*entities.EmbeddingQueueItem, error)

	MarkProcessing(ctx context.Context, itemID uuid.UUID) error
	MarkCompleted(ctx context.Context, itemID uuid.UUID) error

	// RevertToPending puts a failed attempt back on the queue with
	// retry_count incremented and the error recorded.
	RevertToPending(ctx context.Context, itemID uuid.UUID, errMsg string) error

	// RequeueProcessing returns items stuck in processing to pending. Only a
	// crashed run leaves processing rows behind, so this runs at drain start.
	RequeueProcessing(ctx context.Context) (int64, error)

	HasItemForChunk(ctx context.Context, chunkID uuid.UUID) (bool, error)
	HasSummaryItem(ctx context.Context, meetingID string) (bool, error)

	DeleteForMeeting(ctx context.Context, meetingID string) error
	Status(ctx context.Context) (*QueueStatusCounts, error)
}
