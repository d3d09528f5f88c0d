package entities

// RawSegment is a single speech segment as delivered by the transcription
// layer. Caller-owned and never persisted.
type RawSegment struct {
	Speaker     string `json:"speaker"`
	Text        string `json:"text"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// CleanedSegment is the preprocessed form of one or more merged raw segments.
// Transient: it only exists between preprocessing and chunking.
type CleanedSegment struct {
	Speaker      string `json:"speaker"`
	Text         string `json:"text"`
	StartMs      int64  `json:"start_ms"`
	EndMs        int64  `json:"end_ms"`
	IsQuestion   bool   `json:"is_question"`
	IsDecision   bool   `json:"is_decision"`
	IsActionItem bool   `json:"is_action_item"`
}
