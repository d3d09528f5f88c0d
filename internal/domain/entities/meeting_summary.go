package entities

import (
	"time"

	"github.com/google/uuid"
)

// MeetingSummary is the one-per-meeting summary used for cross-meeting
// retrieval. It is fully replaced (not patched) when a meeting is reprocessed.
type MeetingSummary struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	MeetingID   string    `json:"meeting_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	SummaryText string    `json:"summary_text" gorm:"type:text;not null"`

	// EmbeddingBlob follows the same encoding and NULL semantics as
	// Chunk.EmbeddingBlob.
	EmbeddingBlob []byte `json:"-" gorm:"column:embedding_blob"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewMeetingSummary creates a summary with a fresh ID.
func NewMeetingSummary(meetingID, summaryText string) *MeetingSummary {
	return &MeetingSummary{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		SummaryText: summaryText,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// HasEmbedding reports whether the summary has been embedded yet.
func (s *MeetingSummary) HasEmbedding() bool {
	return len(s.EmbeddingBlob) > 0
}

// TableName specifies the table name for GORM
func (MeetingSummary) TableName() string {
	return "meeting_summaries"
}
