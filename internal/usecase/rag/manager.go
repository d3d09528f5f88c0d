package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-rag/errors"
	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
	domainrepo "github.com/johnquangdev/meeting-rag/internal/domain/repositories"
	"github.com/johnquangdev/meeting-rag/internal/usecase/embedding"
	pkgai "github.com/johnquangdev/meeting-rag/pkg/ai"
	"github.com/johnquangdev/meeting-rag/pkg/config"
)

// globalEmptyMessage is yielded by a global query that found nothing. Global
// queries never fail with the no-context sentinels; there is no narrower
// fallback for the caller to take.
const globalEmptyMessage = "I couldn't find anything relevant in your past meetings."

// Service is the RAG façade. Meeting-end events flow through ProcessMeeting;
// user questions flow through the Query methods and come back as a token
// stream from the generation service.
type Service interface {
	ProcessMeeting(ctx context.Context, meetingID string, transcript []entities.RawSegment, summary string) (int, error)
	ReprocessMeeting(ctx context.Context, meetingID string, transcript []entities.RawSegment, summary string) (int, error)

	QueryMeeting(ctx context.Context, meetingID, query string) (<-chan string, error)
	QueryGlobal(ctx context.Context, query string) (<-chan string, error)
	Query(ctx context.Context, currentMeetingID, query string) (<-chan string, error)

	IsReady() bool
	IsMeetingProcessed(ctx context.Context, meetingID string) (bool, error)
	GetQueueStatus(ctx context.Context) (*domainrepo.QueueStatusCounts, error)
	RetryPendingEmbeddings(ctx context.Context) error
}

type ragService struct {
	preprocessor *Preprocessor
	chunker      *Chunker
	retriever    *Retriever
	store        domainrepo.VectorStore
	queueRepo    domainrepo.EmbeddingQueueRepository
	pipeline     embedding.Pipeline
	generator    pkgai.Generator
	cfg          *config.Config
	logger       *zap.Logger
}

// NewService constructs the RAG service
func NewService(
	store domainrepo.VectorStore,
	queueRepo domainrepo.EmbeddingQueueRepository,
	pipeline embedding.Pipeline,
	retriever *Retriever,
	generator pkgai.Generator,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &ragService{
		preprocessor: NewPreprocessor(),
		chunker:      NewChunker(),
		retriever:    retriever,
		store:        store,
		queueRepo:    queueRepo,
		pipeline:     pipeline,
		generator:    generator,
		cfg:          cfg,
		logger:       logger,
	}
}

// IsReady reports whether both the embedding pipeline and the generation
// client are attached. Callers must check this and take a non-RAG path when
// it is false.
func (s *ragService) IsReady() bool {
	return s.pipeline != nil && s.pipeline.IsReady() && s.generator != nil
}

// ProcessMeeting turns a finished meeting's transcript into stored chunks and
// queues their embeddings. Returns the chunk count. Degenerate transcripts
// yield zero chunks, not an error.
func (s *ragService) ProcessMeeting(ctx context.Context, meetingID string, transcript []entities.RawSegment, summary string) (int, error) {
	if meetingID == "" {
		return 0, apperrors.ErrInvalidArgument("meeting id is required")
	}

	cleaned := s.preprocessor.Preprocess(transcript)
	chunks := s.chunker.Chunk(meetingID, cleaned)
	if len(chunks) == 0 {
		if s.logger != nil {
			s.logger.Info("📭 Transcript produced no chunks, skipping",
				zap.String("meeting_id", meetingID),
				zap.Int("raw_segments", len(transcript)),
			)
		}
		return 0, nil
	}

	if err := s.store.SaveChunks(ctx, chunks); err != nil {
		return 0, err
	}
	if strings.TrimSpace(summary) != "" {
		if err := s.store.SaveSummary(ctx, entities.NewMeetingSummary(meetingID, summary)); err != nil {
			return 0, err
		}
	}

	queued, err := s.pipeline.QueueMeeting(ctx, meetingID)
	if err != nil {
		return 0, fmt.Errorf("failed to queue embeddings: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("✅ Meeting processed",
			zap.String("meeting_id", meetingID),
			zap.Int("chunk_count", len(chunks)),
			zap.Int("queued", queued),
		)
	}

	// Drain in the background so meeting-end handling does not block on the
	// embedding service.
	go func() {
		if err := s.pipeline.ProcessQueue(context.WithoutCancel(ctx)); err != nil {
			if s.logger != nil {
				s.logger.Error("❌ Background queue drain failed", zap.Error(err))
			}
		}
	}()

	return len(chunks), nil
}

// ReprocessMeeting fully replaces a meeting's chunks, summary and queue rows
// before running the normal pipeline. Idempotent on unchanged input.
func (s *ragService) ReprocessMeeting(ctx context.Context, meetingID string, transcript []entities.RawSegment, summary string) (int, error) {
	if meetingID == "" {
		return 0, apperrors.ErrInvalidArgument("meeting id is required")
	}

	if err := s.store.DeleteChunksForMeeting(ctx, meetingID); err != nil {
		return 0, err
	}
	if err := s.queueRepo.DeleteForMeeting(ctx, meetingID); err != nil {
		return 0, err
	}

	if s.logger != nil {
		s.logger.Info("🔄 Reprocessing meeting", zap.String("meeting_id", meetingID))
	}
	return s.ProcessMeeting(ctx, meetingID, transcript, summary)
}

// QueryMeeting answers a question from one meeting's chunks. Fails with
// NO_MEETING_EMBEDDINGS when the meeting was never embedded and
// NO_RELEVANT_CONTEXT_FOUND when nothing matched; both tell the caller to
// fall back to a non-RAG context window.
func (s *ragService) QueryMeeting(ctx context.Context, meetingID, query string) (<-chan string, error) {
	if !s.IsReady() {
		return nil, apperrors.ErrRAGNotReady()
	}

	ready, err := s.store.HasEmbeddings(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, apperrors.ErrNoMeetingEmbeddings(meetingID)
	}

	retrieved, err := s.retriever.Retrieve(ctx, query, RetrieveOptions{MeetingID: meetingID})
	if err != nil {
		return nil, err
	}
	if retrieved.IsEmpty() {
		return nil, apperrors.ErrNoRelevantContext()
	}

	if s.logger != nil {
		s.logger.Info("🔍 Meeting query grounded",
			zap.String("meeting_id", meetingID),
			zap.String("intent", string(retrieved.Intent)),
			zap.Int("chunks", len(retrieved.Chunks)),
			zap.Int("context_tokens", retrieved.TokenCount),
		)
	}

	return s.generator.GenerateStream(ctx, buildPrompt(query, retrieved))
}

// QueryGlobal answers a question across all meetings. Never fails with the
// no-context sentinels; an empty result yields a fixed message directly.
func (s *ragService) QueryGlobal(ctx context.Context, query string) (<-chan string, error) {
	if !s.IsReady() {
		return nil, apperrors.ErrRAGNotReady()
	}

	retrieved, err := s.retriever.RetrieveGlobal(ctx, query, RetrieveOptions{})
	if err != nil {
		return nil, err
	}
	if retrieved.IsEmpty() {
		out := make(chan string, 1)
		out <- globalEmptyMessage
		close(out)
		return out, nil
	}

	if s.logger != nil {
		s.logger.Info("🔍 Global query grounded",
			zap.String("intent", string(retrieved.Intent)),
			zap.Int("chunks", len(retrieved.Chunks)),
		)
	}

	return s.generator.GenerateStream(ctx, buildPrompt(query, retrieved))
}

// Query routes to QueryMeeting or QueryGlobal based on the detected scope.
func (s *ragService) Query(ctx context.Context, currentMeetingID, query string) (<-chan string, error) {
	if DetectScope(query, currentMeetingID) == ScopeGlobal {
		return s.QueryGlobal(ctx, query)
	}
	return s.QueryMeeting(ctx, currentMeetingID, query)
}

// IsMeetingProcessed reports whether the meeting has at least one embedded
// chunk ready for retrieval.
func (s *ragService) IsMeetingProcessed(ctx context.Context, meetingID string) (bool, error) {
	return s.store.HasEmbeddings(ctx, meetingID)
}

// GetQueueStatus exposes embedding queue counters.
func (s *ragService) GetQueueStatus(ctx context.Context) (*domainrepo.QueueStatusCounts, error) {
	return s.pipeline.GetQueueStatus(ctx)
}

// RetryPendingEmbeddings re-triggers a queue drain for items with retries
// left.
func (s *ragService) RetryPendingEmbeddings(ctx context.Context) error {
	return s.pipeline.RetryPending(ctx)
}

// buildPrompt hands the generation service the assembled evidence plus the
// detected intent. Final answer phrasing lives with the caller's templates,
// not here.
func buildPrompt(query string, retrieved *RetrievedContext) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the meeting excerpts below.\n")
	b.WriteString("Question intent: ")
	b.WriteString(string(retrieved.Intent))
	b.WriteString("\n\nMeeting excerpts:\n")
	b.WriteString(retrieved.Context)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	return b.String()
}
