package rag

import (
	"regexp"
	"strings"

	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
)

// mergeGapMs joins consecutive segments from the same speaker when the pause
// between them is shorter than this.
const mergeGapMs = 5000

// minCleanedWords drops segments that carry no usable content after cleaning.
const minCleanedWords = 3

// fillerWords are discarded wherever they appear inside a segment.
var fillerWords = map[string]bool{
	"um": true, "uh": true, "uhm": true, "er": true, "ah": true,
	"hmm": true, "like": true, "basically": true, "actually": true,
	"literally": true, "anyway": true, "well": true,
}

// ackPhrases are whole-segment acknowledgements with no content of their own.
var ackPhrases = map[string]bool{
	"yeah": true, "yep": true, "yes": true, "no": true, "ok": true,
	"okay": true, "right": true, "sure": true, "mhm": true, "mm-hmm": true,
	"uh-huh": true, "got it": true, "makes sense": true, "sounds good": true,
	"exactly": true, "totally": true, "i see": true,
}

var (
	questionRe = regexp.MustCompile(`(?i)(\?\s*$|^(what|who|whom|whose|when|where|why|how|did|do|does|is|are|was|were|can|could|should|would|will|shall)\b)`)
	decisionRe = regexp.MustCompile(`(?i)\b(we (decided|agreed|settled|chose|went with)|decision is|the decision|let's go with|we're going with|we will go with|agreed (on|to|that)|final(ized)? (on|the)|settled on)\b`)
	actionRe   = regexp.MustCompile(`(?i)\b(action item|i'?ll (send|write|prepare|own|handle|set up|schedule|follow up|take)|you'?ll (send|write|prepare|own|handle)|needs? to (be )?(do|done|send|sent|finish|finished|review)|to-?do|follow[ -]up|take care of|assigned to|will (send|write|prepare|own|set up|schedule|draft|review)|by (monday|tuesday|wednesday|thursday|friday|tomorrow|next week|end of (day|week)))\b`)

	wordSplitRe   = regexp.MustCompile(`\s+`)
	trailingPunct = regexp.MustCompile(`[.,!?;:]+$`)
)

// Preprocessor cleans raw speech segments before chunking. All methods are
// pure; degenerate input yields an empty list, never an error.
type Preprocessor struct{}

// NewPreprocessor constructs a preprocessor
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Preprocess merges, cleans and tags raw transcript segments.
func (p *Preprocessor) Preprocess(segments []entities.RawSegment) []entities.CleanedSegment {
	merged := mergeSegments(segments)

	cleaned := make([]entities.CleanedSegment, 0, len(merged))
	for _, seg := range merged {
		text := cleanText(seg.Text)
		if wordCount(text) < minCleanedWords {
			continue
		}
		cleaned = append(cleaned, entities.CleanedSegment{
			Speaker:      seg.Speaker,
			Text:         text,
			StartMs:      seg.StartMs,
			EndMs:        seg.EndMs,
			IsQuestion:   questionRe.MatchString(text),
			IsDecision:   decisionRe.MatchString(text),
			IsActionItem: actionRe.MatchString(text),
		})
	}
	return cleaned
}

type mergedSegment struct {
	Speaker string
	Text    string
	StartMs int64
	EndMs   int64
}

// mergeSegments joins consecutive same-speaker segments separated by short
// pauses, so one spoken turn becomes one segment.
func mergeSegments(segments []entities.RawSegment) []mergedSegment {
	var out []mergedSegment
	for _, raw := range segments {
		speaker := strings.TrimSpace(raw.Speaker)
		text := strings.TrimSpace(raw.Text)
		if speaker == "" || text == "" {
			continue
		}

		if len(out) > 0 {
			last := &out[len(out)-1]
			if last.Speaker == speaker && raw.TimestampMs-last.EndMs < mergeGapMs {
				last.Text += " " + text
				last.EndMs = raw.TimestampMs
				continue
			}
		}
		out = append(out, mergedSegment{
			Speaker: speaker,
			Text:    text,
			StartMs: raw.TimestampMs,
			EndMs:   raw.TimestampMs,
		})
	}
	return out
}

// cleanText strips fillers and acknowledgements and collapses immediately
// repeated words.
func cleanText(text string) string {
	if ackPhrases[normalizeWord(text)] {
		return ""
	}

	words := wordSplitRe.Split(strings.TrimSpace(text), -1)
	out := make([]string, 0, len(words))
	prev := ""
	for _, w := range words {
		norm := normalizeWord(w)
		if norm == "" || fillerWords[norm] {
			continue
		}
		if norm == prev {
			continue
		}
		out = append(out, w)
		prev = norm
	}
	return strings.Join(out, " ")
}

func normalizeWord(w string) string {
	return trailingPunct.ReplaceAllString(strings.ToLower(strings.TrimSpace(w)), "")
}

func wordCount(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return len(wordSplitRe.Split(strings.TrimSpace(text), -1))
}
