package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-rag/errors"
	ragdto "github.com/johnquangdev/meeting-rag/internal/adapter/dto/rag"
	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
	"github.com/johnquangdev/meeting-rag/internal/usecase/rag"
)

// RAG handles transcript processing and retrieval-augmented query endpoints.
type RAG struct {
	service rag.Service
	logger  *zap.Logger
}

// NewRAG constructs the RAG handler
func NewRAG(service rag.Service, logger *zap.Logger) *RAG {
	return &RAG{
		service: service,
		logger:  logger,
	}
}

// ProcessMeeting ingests a finished meeting's transcript.
// POST /v1/rag/meetings
func (h *RAG) ProcessMeeting(c echo.Context) error {
	var req ragdto.ProcessMeetingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument(err.Error()))
	}

	count, err := h.service.ProcessMeeting(c.Request().Context(), req.MeetingID, toRawSegments(req.Transcript), req.Summary)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, ragdto.ProcessMeetingResponse{
		MeetingID:  req.MeetingID,
		ChunkCount: count,
	})
}

// ReprocessMeeting replaces a meeting's stored chunks and re-runs processing.
// POST /v1/rag/meetings/reprocess
func (h *RAG) ReprocessMeeting(c echo.Context) error {
	var req ragdto.ProcessMeetingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument(err.Error()))
	}

	count, err := h.service.ReprocessMeeting(c.Request().Context(), req.MeetingID, toRawSegments(req.Transcript), req.Summary)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, ragdto.ProcessMeetingResponse{
		MeetingID:  req.MeetingID,
		ChunkCount: count,
	})
}

// Query answers a question as a server-sent event stream. Scope is detected
// from the query when a meeting id is present, global otherwise. The
// no-grounding sentinels surface before the stream starts, so callers can
// fall back to a non-RAG path.
// POST /v1/rag/query
func (h *RAG) Query(c echo.Context) error {
	var req ragdto.QueryRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument(err.Error()))
	}

	ctx := c.Request().Context()
	stream, err := h.service.Query(ctx, req.MeetingID, req.Query)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	for fragment := range stream {
		select {
		case <-ctx.Done():
			// Client gone; generation stops via the same context.
			return nil
		default:
		}
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", fragment); err != nil {
			return nil
		}
		resp.Flush()
	}

	fmt.Fprint(resp, "data: [DONE]\n\n")
	resp.Flush()
	return nil
}

// MeetingStatus reports whether a meeting has embedded chunks ready.
// GET /v1/rag/meetings/:id/status
func (h *RAG) MeetingStatus(c echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("meeting id is required"))
	}

	processed, err := h.service.IsMeetingProcessed(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, ragdto.MeetingStatusResponse{
		MeetingID: meetingID,
		Processed: processed,
	})
}

// QueueStatus exposes embedding queue counters.
// GET /v1/rag/queue/status
func (h *RAG) QueueStatus(c echo.Context) error {
	status, err := h.service.GetQueueStatus(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, ragdto.QueueStatusResponse{
		Pending:    status.Pending,
		Processing: status.Processing,
		Completed:  status.Completed,
		Failed:     status.Failed,
	})
}

// RetryQueue re-triggers a drain for queue items with retries left. The
// drain runs in the background; a drain already in flight makes this a no-op.
// POST /v1/rag/queue/retry
func (h *RAG) RetryQueue(c echo.Context) error {
	go func() {
		if err := h.service.RetryPendingEmbeddings(context.WithoutCancel(c.Request().Context())); err != nil {
			if h.logger != nil {
				h.logger.Error("❌ Queue retry failed", zap.Error(err))
			}
		}
	}()
	return HandleSuccess(h.logger, c, nil)
}

func toRawSegments(in []ragdto.TranscriptSegment) []entities.RawSegment {
	out := make([]entities.RawSegment, 0, len(in))
	for _, s := range in {
		out = append(out, entities.RawSegment{
			Speaker:     s.Speaker,
			Text:        s.Text,
			TimestampMs: s.TimestampMs,
		})
	}
	return out
}
