package entities

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is a token-bounded, speaker-coherent transcript fragment. It is the
// unit of embedding and retrieval.
type Chunk struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	MeetingID  string    `json:"meeting_id" gorm:"type:varchar(255);not null;index"`
	ChunkIndex int       `json:"chunk_index" gorm:"not null"`
	Speaker    string    `json:"speaker" gorm:"type:varchar(255);not null"`
	StartMs    int64     `json:"start_ms" gorm:"not null"`
	EndMs      int64     `json:"end_ms" gorm:"not null"`
	Text       string    `json:"text" gorm:"type:text;not null"`
	TokenCount int       `json:"token_count" gorm:"not null"`

	// EmbeddingBlob holds the vector as consecutive little-endian float32
	// values. NULL until the embedding queue fills it in; rows with a NULL
	// blob are invisible to similarity search.
	EmbeddingBlob []byte `json:"-" gorm:"column:embedding_blob"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// NewChunk creates a chunk with a fresh ID.
func NewChunk(meetingID string, index int, speaker, text string, startMs, endMs int64, tokenCount int) *Chunk {
	return &Chunk{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		ChunkIndex: index,
		Speaker:    speaker,
		StartMs:    startMs,
		EndMs:      endMs,
		Text:       text,
		TokenCount: tokenCount,
		CreatedAt:  time.Now(),
	}
}

// HasEmbedding reports whether the chunk has been embedded yet.
func (c *Chunk) HasEmbedding() bool {
	return len(c.EmbeddingBlob) > 0
}

// TableName specifies the table name for GORM
func (Chunk) TableName() string {
	return "chunks"
}
