package jobcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJobBeginCarriesAttemptMetadata(t *testing.T) {
	itemID := uuid.New()
	ctx, cancel := JobBegin(context.Background(), itemID, "chunk", 2)
	defer cancel()

	if got, ok := GetItemID(ctx); !ok || got != itemID {
		t.Errorf("item id = %v (ok=%v), want %v", got, ok, itemID)
	}
	if got, ok := GetTarget(ctx); !ok || got != "chunk" {
		t.Errorf("target = %q (ok=%v), want %q", got, ok, "chunk")
	}
	if got, ok := GetAttempt(ctx); !ok || got != 2 {
		t.Errorf("attempt = %d (ok=%v), want 2", got, ok)
	}
	if Elapsed(ctx) < 0 {
		t.Error("elapsed time is negative")
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("job context has no deadline")
	}
	if remaining := time.Until(deadline); remaining > embedCallTimeout {
		t.Errorf("deadline %v out past the call timeout", remaining)
	}
}

func TestAccessorsOnBareContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := GetItemID(ctx); ok {
		t.Error("bare context reported an item id")
	}
	if _, ok := GetTarget(ctx); ok {
		t.Error("bare context reported a target")
	}
	if _, ok := GetAttempt(ctx); ok {
		t.Error("bare context reported an attempt")
	}
	if Elapsed(ctx) != 0 {
		t.Error("bare context reported elapsed time")
	}
}
