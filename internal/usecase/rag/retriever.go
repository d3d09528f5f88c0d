package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	domainrepo "github.com/johnquangdev/meeting-rag/internal/domain/repositories"
	pkgai "github.com/johnquangdev/meeting-rag/pkg/ai"
	"github.com/johnquangdev/meeting-rag/pkg/config"
)

// recencyHalfLifeHours sets the decay horizon for the recency score: one week
// old scores exp(-1).
const recencyHalfLifeHours = 168.0

// summaryMatchBoost multiplies the final score of chunks whose meeting
// summary also matched the query in a global search.
const summaryMatchBoost = 1.2

// RetrieveOptions tunes one retrieval call. Zero values fall back to the
// configured defaults.
type RetrieveOptions struct {
	MeetingID     string
	MaxTokens     int
	TopK          int
	RecencyWeight float64
}

// RetrievedChunk is one selected chunk with its scores.
type RetrievedChunk struct {
	MeetingID  string
	Speaker    string
	StartMs    int64
	Text       string
	TokenCount int
	Similarity float64
	FinalScore float64
}

// RetrievedContext is the assembled grounding output of one retrieval call.
// An empty Context means no grounding was found; that is an expected outcome,
// not an error.
type RetrievedContext struct {
	Context    string
	Intent     Intent
	Chunks     []RetrievedChunk
	TokenCount int
}

// IsEmpty reports whether retrieval found no usable grounding.
func (rc *RetrievedContext) IsEmpty() bool {
	return len(rc.Chunks) == 0
}

// Retriever embeds queries and assembles token-bounded grounding context from
// the vector store.
type Retriever struct {
	store    domainrepo.VectorStore
	embedder pkgai.Embedder
	cfg      config.RAGConfig
	logger   *zap.Logger

	// now is swappable in tests so recency scores are deterministic.
	now func() time.Time
}

// NewRetriever constructs a retriever
func NewRetriever(store domainrepo.VectorStore, embedder pkgai.Embedder, cfg config.RAGConfig, logger *zap.Logger) *Retriever {
	return &Retriever{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *Retriever) applyDefaults(opts RetrieveOptions) RetrieveOptions {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = r.cfg.MaxContextTokens
	}
	if opts.TopK <= 0 {
		opts.TopK = r.cfg.TopK
	}
	if opts.RecencyWeight <= 0 {
		opts.RecencyWeight = r.cfg.RecencyWeight
	}
	return opts
}

// Retrieve embeds the query, ranks candidates by blended similarity and
// recency, and assembles a token-bounded context ordered as a timeline.
// A query-embedding failure yields an empty context, never an error: callers
// treat it as "no grounding" and fall back.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts RetrieveOptions) (*RetrievedContext, error) {
	opts = r.applyDefaults(opts)
	result := &RetrievedContext{Intent: ClassifyIntent(query)}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("⚠️ Query embedding failed, returning empty context", zap.Error(err))
		}
		return result, nil
	}

	// Over-fetch for re-ranking headroom.
	candidates, err := r.store.SearchSimilar(ctx, queryVec, domainrepo.SearchOptions{
		MeetingID:     opts.MeetingID,
		Limit:         opts.TopK * 2,
		MinSimilarity: r.cfg.MinSimilarity,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	selected := r.selectWithinBudget(r.score(candidates, opts.RecencyWeight, nil), opts)
	if len(selected) == 0 {
		return result, nil
	}

	// Context reads as a timeline, not as a ranking.
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].StartMs < selected[j].StartMs
	})

	var b strings.Builder
	for _, c := range selected {
		b.WriteString(formatChunkLine(c))
		b.WriteByte('\n')
		result.TokenCount += c.TokenCount
	}
	result.Chunks = selected
	result.Context = strings.TrimRight(b.String(), "\n")
	return result, nil
}

// RetrieveGlobal searches across all meetings, boosts chunks from meetings
// whose summary also matched, and groups the assembled context by meeting.
func (r *Retriever) RetrieveGlobal(ctx context.Context, query string, opts RetrieveOptions) (*RetrievedContext, error) {
	opts = r.applyDefaults(opts)
	opts.MeetingID = ""
	result := &RetrievedContext{Intent: ClassifyIntent(query)}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("⚠️ Query embedding failed, returning empty context", zap.Error(err))
		}
		return result, nil
	}

	summaryK := r.cfg.SummarySearchK
	if summaryK <= 0 {
		summaryK = 5
	}
	summaries, err := r.store.SearchSummaries(ctx, queryVec, summaryK)
	if err != nil {
		return nil, fmt.Errorf("summary search failed: %w", err)
	}
	matchedMeetings := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		if s.Similarity >= r.cfg.MinSimilarity {
			matchedMeetings[s.Summary.MeetingID] = true
		}
	}

	candidates, err := r.store.SearchSimilar(ctx, queryVec, domainrepo.SearchOptions{
		Limit:         opts.TopK * 2,
		MinSimilarity: r.cfg.MinSimilarity,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	selected := r.selectWithinBudget(r.score(candidates, opts.RecencyWeight, matchedMeetings), opts)
	if len(selected) == 0 {
		return result, nil
	}

	// Group by meeting, chunks in timeline order within each group.
	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].MeetingID != selected[j].MeetingID {
			return selected[i].MeetingID < selected[j].MeetingID
		}
		return selected[i].StartMs < selected[j].StartMs
	})

	var b strings.Builder
	currentMeeting := ""
	for _, c := range selected {
		if c.MeetingID != currentMeeting {
			if currentMeeting != "" {
				b.WriteByte('\n')
			}
			b.WriteString(fmt.Sprintf("=== Meeting %s ===\n", c.MeetingID))
			currentMeeting = c.MeetingID
		}
		b.WriteString(formatChunkLine(c))
		b.WriteByte('\n')
		result.TokenCount += c.TokenCount
	}
	result.Chunks = selected
	result.Context = strings.TrimRight(b.String(), "\n")
	return result, nil
}

// score blends similarity with recency decay. boostMeetings, when non-nil,
// marks meetings whose summary also matched the query.
func (r *Retriever) score(candidates []domainrepo.ScoredChunk, recencyWeight float64, boostMeetings map[string]bool) []RetrievedChunk {
	now := r.now()
	scored := make([]RetrievedChunk, 0, len(candidates))
	for _, c := range candidates {
		ageHours := now.Sub(c.Chunk.CreatedAt).Hours()
		if ageHours < 0 {
			ageHours = 0
		}
		recency := math.Exp(-ageHours / recencyHalfLifeHours)
		final := (1-recencyWeight)*c.Similarity + recencyWeight*recency
		if boostMeetings != nil && boostMeetings[c.Chunk.MeetingID] {
			final *= summaryMatchBoost
		}
		scored = append(scored, RetrievedChunk{
			MeetingID:  c.Chunk.MeetingID,
			Speaker:    c.Chunk.Speaker,
			StartMs:    c.Chunk.StartMs,
			Text:       c.Chunk.Text,
			TokenCount: c.Chunk.TokenCount,
			Similarity: c.Similarity,
			FinalScore: final,
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})
	return scored
}

// selectWithinBudget greedily fills the token budget in score order. It stops
// once topK chunks are selected, or once at least topK/2 are selected and the
// next candidate would overflow the budget.
func (r *Retriever) selectWithinBudget(scored []RetrievedChunk, opts RetrieveOptions) []RetrievedChunk {
	var selected []RetrievedChunk
	used := 0
	for _, c := range scored {
		if len(selected) >= opts.TopK {
			break
		}
		if used+c.TokenCount > opts.MaxTokens {
			if len(selected) >= opts.TopK/2 {
				break
			}
			continue
		}
		selected = append(selected, c)
		used += c.TokenCount
	}
	return selected
}

// formatChunkLine renders one chunk as "[MM:SS Speaker]: text".
func formatChunkLine(c RetrievedChunk) string {
	totalSeconds := c.StartMs / 1000
	return fmt.Sprintf("[%02d:%02d %s]: %s", totalSeconds/60, totalSeconds%60, c.Speaker, c.Text)
}
