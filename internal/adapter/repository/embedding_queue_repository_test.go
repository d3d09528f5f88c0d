package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
)

func TestQueueLifecycle(t *testing.T) {
	queue := NewEmbeddingQueueRepository(newTestDB(t))
	ctx := context.Background()

	chunkID := uuid.New()
	items := []*entities.EmbeddingQueueItem{
		entities.NewChunkQueueItem("m1", chunkID, 3),
		entities.NewSummaryQueueItem("m1", 3),
	}
	items[1].CreatedAt = items[0].CreatedAt.Add(time.Second)
	if err := queue.Enqueue(ctx, items); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	// Oldest first.
	next, err := queue.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.Target != entities.QueueTargetChunk {
		t.Fatalf("expected the chunk item first, got %+v", next)
	}
	if next.ChunkID == nil || *next.ChunkID != chunkID {
		t.Errorf("chunk id not preserved: %+v", next.ChunkID)
	}

	if err := queue.MarkProcessing(ctx, next.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := queue.MarkCompleted(ctx, next.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	next, err = queue.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.Target != entities.QueueTargetSummary {
		t.Fatalf("expected the summary item next, got %+v", next)
	}

	status, err := queue.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Completed != 1 || status.Pending != 1 {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestQueueRetryCapExcludesItem(t *testing.T) {
	queue := NewEmbeddingQueueRepository(newTestDB(t))
	ctx := context.Background()

	item := entities.NewChunkQueueItem("m1", uuid.New(), 2)
	if err := queue.Enqueue(ctx, []*entities.EmbeddingQueueItem{item}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		next, err := queue.NextPending(ctx)
		if err != nil {
			t.Fatalf("NextPending failed: %v", err)
		}
		if next == nil {
			t.Fatalf("expected a selectable item on attempt %d", attempt)
		}
		if err := queue.MarkProcessing(ctx, next.ID); err != nil {
			t.Fatalf("MarkProcessing failed: %v", err)
		}
		if err := queue.RevertToPending(ctx, next.ID, "service unavailable"); err != nil {
			t.Fatalf("RevertToPending failed: %v", err)
		}
	}

	// Cap reached: parked, not deleted.
	next, err := queue.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next != nil {
		t.Fatalf("capped item is still selectable: %+v", next)
	}

	status, err := queue.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Failed != 1 || status.Pending != 0 {
		t.Errorf("unexpected status after cap: %+v", status)
	}

	exists, err := queue.HasItemForChunk(ctx, *item.ChunkID)
	if err != nil {
		t.Fatalf("HasItemForChunk failed: %v", err)
	}
	if !exists {
		t.Error("parked item vanished from the queue")
	}
}

func TestQueueRevertRecordsError(t *testing.T) {
	queue := NewEmbeddingQueueRepository(newTestDB(t))
	ctx := context.Background()

	item := entities.NewSummaryQueueItem("m1", 3)
	if err := queue.Enqueue(ctx, []*entities.EmbeddingQueueItem{item}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := queue.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := queue.RevertToPending(ctx, item.ID, "timeout after 60s"); err != nil {
		t.Fatalf("RevertToPending failed: %v", err)
	}

	next, err := queue.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil {
		t.Fatal("reverted item should be selectable again")
	}
	if next.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", next.RetryCount)
	}
	if next.ErrorMessage == nil || *next.ErrorMessage != "timeout after 60s" {
		t.Errorf("error message not recorded: %v", next.ErrorMessage)
	}
	if len(next.ErrorDetails) == 0 {
		t.Error("error details not recorded")
	}
}

func TestQueueRequeueProcessing(t *testing.T) {
	queue := NewEmbeddingQueueRepository(newTestDB(t))
	ctx := context.Background()

	stuck := entities.NewChunkQueueItem("m1", uuid.New(), 3)
	done := entities.NewSummaryQueueItem("m1", 3)
	if err := queue.Enqueue(ctx, []*entities.EmbeddingQueueItem{stuck, done}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	// Simulate a run killed mid-item: one row stuck in processing, one done.
	if err := queue.MarkProcessing(ctx, stuck.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := queue.MarkProcessing(ctx, done.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := queue.MarkCompleted(ctx, done.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	requeued, err := queue.RequeueProcessing(ctx)
	if err != nil {
		t.Fatalf("RequeueProcessing failed: %v", err)
	}
	if requeued != 1 {
		t.Fatalf("requeued %d items, want 1", requeued)
	}

	next, err := queue.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != stuck.ID {
		t.Fatalf("stuck item not selectable after requeue: %+v", next)
	}
	if next.RetryCount != 0 {
		t.Errorf("requeue consumed a retry: count = %d", next.RetryCount)
	}

	status, err := queue.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Processing != 0 || status.Pending != 1 || status.Completed != 1 {
		t.Errorf("unexpected status after requeue: %+v", status)
	}
}

func TestQueueDeleteForMeeting(t *testing.T) {
	queue := NewEmbeddingQueueRepository(newTestDB(t))
	ctx := context.Background()

	if err := queue.Enqueue(ctx, []*entities.EmbeddingQueueItem{
		entities.NewChunkQueueItem("m1", uuid.New(), 3),
		entities.NewChunkQueueItem("m2", uuid.New(), 3),
	}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if err := queue.DeleteForMeeting(ctx, "m1"); err != nil {
		t.Fatalf("DeleteForMeeting failed: %v", err)
	}

	status, err := queue.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Pending != 1 {
		t.Errorf("expected only m2's item to remain, status %+v", status)
	}

	exists, err := queue.HasSummaryItem(ctx, "m1")
	if err != nil {
		t.Fatalf("HasSummaryItem failed: %v", err)
	}
	if exists {
		t.Error("m1 items survived delete")
	}
}
