package rag

import (
	"strings"

	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
)

const (
	// chunkSoftMinTokens is the point below which a chunk keeps growing even
	// past the hard maximum, so tiny fragments never become chunks of their
	// own.
	chunkSoftMinTokens = 100

	// chunkHardMaxTokens is the token ceiling for an emitted chunk. The one
	// exception is a single source segment already over the ceiling, which is
	// emitted whole rather than split.
	chunkHardMaxTokens = 400
)

// estimateTokens approximates token count as ceil(chars/4). Deliberately not
// a real tokenizer: chunk boundaries and budget math depend on this estimate,
// and swapping in a model tokenizer would silently move every boundary.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// Chunker groups cleaned segments into token-bounded, speaker-coherent
// chunks. Pure and deterministic: identical input yields identical chunks.
type Chunker struct{}

// NewChunker constructs a chunker
func NewChunker() *Chunker {
	return &Chunker{}
}

// Chunk emits chunks indexed 0..N-1 with no gaps. A new chunk starts when the
// speaker changes or when the running chunk is at the soft minimum and the
// next segment would push it over the hard maximum.
func (c *Chunker) Chunk(meetingID string, segments []entities.CleanedSegment) []*entities.Chunk {
	var chunks []*entities.Chunk

	var (
		texts   []string
		speaker string
		startMs int64
		endMs   int64
		curLen  int // byte length of the joined chunk text, separators included
	)

	flush := func() {
		if len(texts) == 0 {
			return
		}
		text := strings.Join(texts, " ")
		chunks = append(chunks, entities.NewChunk(
			meetingID, len(chunks), speaker, text, startMs, endMs, estimateTokens(text),
		))
		texts = texts[:0]
		curLen = 0
	}

	for _, seg := range segments {
		segTokens := estimateTokens(seg.Text)

		if len(texts) > 0 {
			// joinedLen is the chunk text length if this segment is appended,
			// counting the joining space. The boundary check must estimate the
			// same string the chunk will store, or a chunk admitted at the
			// ceiling could land just past it.
			joinedLen := curLen + 1 + len(seg.Text)
			if seg.Speaker != speaker {
				flush()
			} else if (curLen+3)/4 >= chunkSoftMinTokens && (joinedLen+3)/4 > chunkHardMaxTokens {
				flush()
			}
		}

		// An oversized segment arriving on an empty chunk is emitted as its
		// own unsplit chunk.
		if len(texts) == 0 && segTokens > chunkHardMaxTokens {
			chunks = append(chunks, entities.NewChunk(
				meetingID, len(chunks), seg.Speaker, seg.Text, seg.StartMs, seg.EndMs, segTokens,
			))
			continue
		}

		if len(texts) == 0 {
			speaker = seg.Speaker
			startMs = seg.StartMs
			curLen = len(seg.Text)
		} else {
			curLen += 1 + len(seg.Text)
		}
		texts = append(texts, seg.Text)
		endMs = seg.EndMs
	}
	flush()

	return chunks
}
