package rag

// ProcessMeetingResponse reports how many chunks a transcript produced.
type ProcessMeetingResponse struct {
	MeetingID  string `json:"meeting_id"`
	ChunkCount int    `json:"chunk_count"`
}

// MeetingStatusResponse reports whether a meeting is ready for querying.
type MeetingStatusResponse struct {
	MeetingID string `json:"meeting_id"`
	Processed bool   `json:"processed"`
}

// QueueStatusResponse mirrors the embedding queue counters.
type QueueStatusResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}
