package rag

import "regexp"

// Intent is the coarse query category used to bias retrieval and answer
// shaping.
type Intent string

const (
	IntentDecisionRecall Intent = "decision_recall"
	IntentSpeakerLookup  Intent = "speaker_lookup"
	IntentActionItems    Intent = "action_items"
	IntentSummary        Intent = "summary"
	IntentOpenQuestion   Intent = "open_question"
)

// Scope says whether a query is answered from one meeting or across all.
type Scope string

const (
	ScopeMeeting Scope = "meeting"
	ScopeGlobal  Scope = "global"
)

// Classifiers are ordered rule data rather than inline control flow, so they
// stay independently testable and swappable without touching retrieval.

type intentRule struct {
	intent Intent
	re     *regexp.Regexp
}

var intentRules = []intentRule{
	{IntentDecisionRecall, regexp.MustCompile(`(?i)\b(decide|decided|decision|agree|agreed|conclusion|conclude|settle|settled|final call|went with|chose)\b`)},
	{IntentSpeakerLookup, regexp.MustCompile(`(?i)\b(who (said|mentioned|asked|suggested|proposed|brought up)|what did \w+ say|according to \w+|\w+'s (point|comment|suggestion))\b`)},
	{IntentActionItems, regexp.MustCompile(`(?i)\b(action items?|to-?dos?|tasks?|assigned|assignments?|follow[ -]?ups?|next steps?|deliverables?|responsib)\b`)},
	{IntentSummary, regexp.MustCompile(`(?i)\b(summar|recap|overview|rundown|tl;?dr|main points|key (points|takeaways)|gist)\b`)},
}

// ClassifyIntent returns the first matching intent rule, or open_question.
func ClassifyIntent(query string) Intent {
	for _, rule := range intentRules {
		if rule.re.MatchString(query) {
			return rule.intent
		}
	}
	return IntentOpenQuestion
}

var (
	meetingScopeRe = regexp.MustCompile(`(?i)\b(this meeting|the meeting|current meeting|in (this|the) (call|session)|just now|earlier (today|in the meeting)|we just)\b`)
	globalScopeRe  = regexp.MustCompile(`(?i)\b(all (my )?meetings|any meeting|across meetings|every meeting|(previous|past|earlier|other) meetings|last (week|month)|search all|have (i|we) ever|in any (call|conversation))\b`)
)

// DetectScope classifies a query as meeting-scoped or global. Meeting-scoped
// phrases win over global ones; with neither present, the scope follows
// whether a current meeting id exists.
func DetectScope(query, currentMeetingID string) Scope {
	if meetingScopeRe.MatchString(query) {
		return ScopeMeeting
	}
	if globalScopeRe.MatchString(query) {
		return ScopeGlobal
	}
	if currentMeetingID != "" {
		return ScopeMeeting
	}
	return ScopeGlobal
}
