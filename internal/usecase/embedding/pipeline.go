package embedding

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
	domainrepo "github.com/johnquangdev/meeting-rag/internal/domain/repositories"
	pkgai "github.com/johnquangdev/meeting-rag/pkg/ai"
	"github.com/johnquangdev/meeting-rag/pkg/jobcontext"
)

// Pipeline turns queued chunks and summaries into stored vectors through the
// external embedding service.
type Pipeline interface {
	QueueMeeting(ctx context.Context, meetingID string) (int, error)
	ProcessQueue(ctx context.Context) error
	RetryPending(ctx context.Context) error
	GetQueueStatus(ctx context.Context) (*domainrepo.QueueStatusCounts, error)
	IsReady() bool
}

type pipeline struct {
	queueRepo  domainrepo.EmbeddingQueueRepository
	store      domainrepo.VectorStore
	embedder   pkgai.Embedder
	logger     *zap.Logger
	maxRetries int

	// Initial retry delay for a drain. Overridable in tests.
	backoffInitial time.Duration

	// Re-entrancy guard: only one queue drain runs per process. A second
	// trigger (meeting end vs manual retry) is a no-op, so an item's API
	// call is never double-spent.
	inFlight atomic.Bool
}

// NewPipeline constructs the embedding pipeline
func NewPipeline(
	queueRepo domainrepo.EmbeddingQueueRepository,
	store domainrepo.VectorStore,
	embedder pkgai.Embedder,
	maxRetries int,
	logger *zap.Logger,
) Pipeline {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &pipeline{
		queueRepo:      queueRepo,
		store:          store,
		embedder:       embedder,
		logger:         logger,
		maxRetries:     maxRetries,
		backoffInitial: 2 * time.Second,
	}
}

// IsReady reports whether the pipeline can reach an embedding service.
func (p *pipeline) IsReady() bool {
	return p.embedder != nil
}

// QueueMeeting enqueues one pending item per not-yet-embedded chunk plus
// exactly one item for the meeting summary. Returns the number of items
// actually enqueued.
func (p *pipeline) QueueMeeting(ctx context.Context, meetingID string) (int, error) {
	chunks, err := p.store.GetChunksWithoutEmbedding(ctx, meetingID)
	if err != nil {
		return 0, fmt.Errorf("failed to list unembedded chunks: %w", err)
	}

	var items []*entities.EmbeddingQueueItem
	for _, c := range chunks {
		exists, err := p.queueRepo.HasItemForChunk(ctx, c.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to check queue for chunk: %w", err)
		}
		if exists {
			continue
		}
		items = append(items, entities.NewChunkQueueItem(meetingID, c.ID, p.maxRetries))
	}

	summary, err := p.store.GetSummary(ctx, meetingID)
	if err != nil {
		return 0, fmt.Errorf("failed to load summary: %w", err)
	}
	if summary != nil && !summary.HasEmbedding() {
		exists, err := p.queueRepo.HasSummaryItem(ctx, meetingID)
		if err != nil {
			return 0, fmt.Errorf("failed to check queue for summary: %w", err)
		}
		if !exists {
			items = append(items, entities.NewSummaryQueueItem(meetingID, p.maxRetries))
		}
	}

	if len(items) == 0 {
		return 0, nil
	}

	if err := p.queueRepo.Enqueue(ctx, items); err != nil {
		return 0, fmt.Errorf("failed to enqueue items: %w", err)
	}

	if p.logger != nil {
		p.logger.Info("📋 Queued embedding items",
			zap.String("meeting_id", meetingID),
			zap.Int("count", len(items)),
		)
	}
	return len(items), nil
}

// ProcessQueue drains pending items sequentially. Only one run executes per
// process; a concurrent trigger returns immediately. Failures go back to the
// durable queue with retry_count incremented, never retried synchronously
// within the same attempt, so recovery survives process restarts.
func (p *pipeline) ProcessQueue(ctx context.Context) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		if p.logger != nil {
			p.logger.Info("⏭️ Queue drain already in flight, skipping trigger")
		}
		return nil
	}
	defer p.inFlight.Store(false)

	if p.embedder == nil {
		return fmt.Errorf("embedding client not configured")
	}

	// A crash can leave items stuck in processing; nothing else selects those
	// rows, so they are reclaimed here before draining.
	if requeued, err := p.queueRepo.RequeueProcessing(ctx); err != nil {
		return fmt.Errorf("failed to requeue stale processing items: %w", err)
	} else if requeued > 0 && p.logger != nil {
		p.logger.Info("♻️ Requeued items left in processing by a previous run",
			zap.Int64("count", requeued),
		)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.backoffInitial
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // the retry cap, not elapsed time, bounds the drain

	processed := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		item, err := p.queueRepo.NextPending(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch next pending item: %w", err)
		}
		if item == nil {
			break
		}

		if err := p.queueRepo.MarkProcessing(ctx, item.ID); err != nil {
			return fmt.Errorf("failed to mark item processing: %w", err)
		}

		if err := p.processItem(ctx, item); err != nil {
			if revertErr := p.queueRepo.RevertToPending(ctx, item.ID, err.Error()); revertErr != nil {
				return fmt.Errorf("failed to revert item to pending: %w", revertErr)
			}

			// Exponentially growing delay before the next iteration.
			delay := bo.NextBackOff()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		bo.Reset()
		processed++
		if err := p.queueRepo.MarkCompleted(ctx, item.ID); err != nil {
			return fmt.Errorf("failed to mark item completed: %w", err)
		}
	}

	if p.logger != nil && processed > 0 {
		p.logger.Info("✅ Embedding queue drained",
			zap.Int("processed", processed),
		)
	}
	return nil
}

// processItem embeds one item's text and stores the vector. Attempt metadata
// rides the job context so every log line below reports the same values the
// embed call saw.
func (p *pipeline) processItem(parentCtx context.Context, item *entities.EmbeddingQueueItem) (err error) {
	jobCtx, cancel := jobcontext.JobBegin(parentCtx, item.ID, string(item.Target), item.RetryCount)
	defer cancel()

	defer func() {
		if p.logger == nil {
			return
		}
		itemID, _ := jobcontext.GetItemID(jobCtx)
		target, _ := jobcontext.GetTarget(jobCtx)
		attempt, _ := jobcontext.GetAttempt(jobCtx)
		fields := []zap.Field{
			zap.String("item_id", itemID.String()),
			zap.String("meeting_id", item.MeetingID),
			zap.String("target", target),
			zap.Int("attempt", attempt),
			zap.Duration("elapsed", jobcontext.Elapsed(jobCtx)),
		}
		if err != nil {
			p.logger.Warn("⚠️ Embedding attempt failed", append(fields, zap.Error(err))...)
		} else {
			p.logger.Debug("🧩 Embedded queue item", fields...)
		}
	}()

	switch item.Target {
	case entities.QueueTargetChunk:
		if item.ChunkID == nil {
			return fmt.Errorf("chunk item %s has no chunk id", item.ID)
		}
		chunk, err := p.store.GetChunk(jobCtx, *item.ChunkID)
		if err != nil {
			return fmt.Errorf("failed to load chunk: %w", err)
		}
		if chunk == nil {
			return fmt.Errorf("chunk %s no longer exists", *item.ChunkID)
		}
		vec, err := p.embedder.Embed(jobCtx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embedding call failed: %w", err)
		}
		return p.store.StoreEmbedding(jobCtx, chunk.ID, vec)

	case entities.QueueTargetSummary:
		summary, err := p.store.GetSummary(jobCtx, item.MeetingID)
		if err != nil {
			return fmt.Errorf("failed to load summary: %w", err)
		}
		if summary == nil {
			return fmt.Errorf("summary for meeting %s no longer exists", item.MeetingID)
		}
		vec, err := p.embedder.Embed(jobCtx, summary.SummaryText)
		if err != nil {
			return fmt.Errorf("embedding call failed: %w", err)
		}
		return p.store.StoreSummaryEmbedding(jobCtx, item.MeetingID, vec)

	default:
		return fmt.Errorf("unknown queue target %q", item.Target)
	}
}

// RetryPending re-triggers a queue drain. Parked items (retry cap reached)
// stay excluded; this only picks up items with retries left.
func (p *pipeline) RetryPending(ctx context.Context) error {
	return p.ProcessQueue(ctx)
}

// GetQueueStatus returns pending/processing/completed/failed counts.
func (p *pipeline) GetQueueStatus(ctx context.Context) (*domainrepo.QueueStatusCounts, error) {
	return p.queueRepo.Status(ctx)
}
