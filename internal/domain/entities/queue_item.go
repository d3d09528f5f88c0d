package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QueueStatus represents the status of an embedding queue item
type QueueStatus string

const (
	QueueStatusPending    QueueStatus = "pending"    // Waiting for an embedding attempt
	QueueStatusProcessing QueueStatus = "processing" // Embedding call in flight
	QueueStatusCompleted  QueueStatus = "completed"  // Vector stored
)

// QueueTarget says what an item embeds: a chunk or the meeting summary.
// A summary item carries a nil ChunkID.
type QueueTarget string

const (
	QueueTargetChunk   QueueTarget = "chunk"
	QueueTargetSummary QueueTarget = "summary"
)

// EmbeddingQueueItem is one pending embedding call. Items that fail more than
// MaxRetries times keep status pending but are excluded from the next-pending
// selection; GetQueueStatus reports them as failed. They are never deleted.
type EmbeddingQueueItem struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primary_key"`
	MeetingID string      `json:"meeting_id" gorm:"type:varchar(255);not null;index"`
	Target    QueueTarget `json:"target" gorm:"type:varchar(20);not null"`
	ChunkID   *uuid.UUID  `json:"chunk_id,omitempty" gorm:"type:uuid;index"`
	Status    QueueStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'pending'"`

	RetryCount   int            `json:"retry_count" gorm:"default:0"`
	MaxRetries   int            `json:"max_retries" gorm:"default:3"`
	ErrorMessage *string        `json:"error_message,omitempty" gorm:"type:text"`
	ErrorDetails datatypes.JSON `json:"error_details,omitempty" gorm:"type:jsonb"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// NewChunkQueueItem creates a pending item targeting one chunk.
func NewChunkQueueItem(meetingID string, chunkID uuid.UUID, maxRetries int) *EmbeddingQueueItem {
	return &EmbeddingQueueItem{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		Target:     QueueTargetChunk,
		ChunkID:    &chunkID,
		Status:     QueueStatusPending,
		MaxRetries: maxRetries,
		CreatedAt:  time.Now(),
	}
}

// NewSummaryQueueItem creates a pending item targeting the meeting summary.
func NewSummaryQueueItem(meetingID string, maxRetries int) *EmbeddingQueueItem {
	return &EmbeddingQueueItem{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		Target:     QueueTargetSummary,
		Status:     QueueStatusPending,
		MaxRetries: maxRetries,
		CreatedAt:  time.Now(),
	}
}

// IsFailed reports whether the item has exhausted its retries.
func (q *EmbeddingQueueItem) IsFailed() bool {
	return q.Status == QueueStatusPending && q.RetryCount >= q.MaxRetries
}

// TableName specifies the table name for GORM
func (EmbeddingQueueItem) TableName() string {
	return "embedding_queue"
}
