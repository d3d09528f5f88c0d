package jobcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keyItemID       KeyContext = "item_id"
	keyTarget       KeyContext = "target"
	keyAttempt      KeyContext = "attempt"
	keyJobStartTime KeyContext = "job_start_time"
)

// embedCallTimeout bounds a single embedding-service call. Timeouts apply
// only at the external-call boundary, never inside retrieval math.
const embedCallTimeout = 60 * time.Second

// JobBegin initializes a context for one embedding attempt with metadata and
// timeout. A hung HTTP call must not stall the whole queue drain.
func JobBegin(parentCtx context.Context, itemID uuid.UUID, target string, attempt int) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parentCtx, embedCallTimeout)

	ctx = context.WithValue(ctx, keyItemID, itemID)
	ctx = context.WithValue(ctx, keyTarget, target)
	ctx = context.WithValue(ctx, keyAttempt, attempt)
	ctx = context.WithValue(ctx, keyJobStartTime, time.Now())

	return ctx, cancel
}

// GetItemID extracts the queue item ID from context
func GetItemID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keyItemID).(uuid.UUID)
	return id, ok
}

// GetTarget extracts the embedding target from context
func GetTarget(ctx context.Context) (string, bool) {
	target, ok := ctx.Value(keyTarget).(string)
	return target, ok
}

// GetAttempt extracts the attempt number from context
func GetAttempt(ctx context.Context) (int, bool) {
	attempt, ok := ctx.Value(keyAttempt).(int)
	return attempt, ok
}

// Elapsed returns time spent since the job began, or 0 if unknown.
func Elapsed(ctx context.Context) time.Duration {
	start, ok := ctx.Value(keyJobStartTime).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}
