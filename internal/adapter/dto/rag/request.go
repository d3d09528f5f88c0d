package rag

// TranscriptSegment is one raw speech segment in a process request.
type TranscriptSegment struct {
	Speaker     string `json:"speaker" validate:"required"`
	Text        string `json:"text" validate:"required"`
	TimestampMs int64  `json:"timestamp_ms" validate:"gte=0"`
}

// ProcessMeetingRequest carries a finished meeting's transcript.
type ProcessMeetingRequest struct {
	MeetingID  string              `json:"meeting_id" validate:"required,max=255"`
	Transcript []TranscriptSegment `json:"transcript" validate:"required,dive"`
	Summary    string              `json:"summary,omitempty"`
}

// QueryRequest asks a question about one meeting or across all meetings.
// MeetingID is required for meeting-scoped queries and optional for auto
// scope detection.
type QueryRequest struct {
	MeetingID string `json:"meeting_id,omitempty" validate:"max=255"`
	Query     string `json:"query" validate:"required,min=2,max=2000"`
}
