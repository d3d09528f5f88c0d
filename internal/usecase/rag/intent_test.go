package rag

import "testing"

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		query string
		want  Intent
	}{
		{"did we decide on a launch date?", IntentDecisionRecall},
		{"what did the team agree on for pricing?", IntentDecisionRecall},
		{"who said the deadline was unrealistic?", IntentSpeakerLookup},
		{"what did Alice say about the migration?", IntentSpeakerLookup},
		{"what are my action items?", IntentActionItems},
		{"list the follow-ups from yesterday", IntentActionItems},
		{"give me a recap of the standup", IntentSummary},
		{"summarize the quarterly review", IntentSummary},
		{"tell me about the budget", IntentOpenQuestion},
		{"", IntentOpenQuestion},
	}

	for _, tc := range cases {
		if got := ClassifyIntent(tc.query); got != tc.want {
			t.Errorf("ClassifyIntent(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestClassifyIntentOrderWins(t *testing.T) {
	// Matches both decision and summary vocabulary; the earlier rule wins.
	if got := ClassifyIntent("summarize what we decided"); got != IntentDecisionRecall {
		t.Errorf("expected the first matching rule to win, got %q", got)
	}
}

func TestDetectScope(t *testing.T) {
	cases := []struct {
		query     string
		meetingID string
		want      Scope
	}{
		{"what did we decide in this meeting?", "m1", ScopeMeeting},
		{"search all meetings for pricing discussion", "", ScopeGlobal},
		{"search all meetings for pricing discussion", "m1", ScopeGlobal},
		{"tell me about the budget", "", ScopeGlobal},
		{"tell me about the budget", "m1", ScopeMeeting},
		{"did this meeting cover every meeting from last week?", "m1", ScopeMeeting},
	}

	for _, tc := range cases {
		if got := DetectScope(tc.query, tc.meetingID); got != tc.want {
			t.Errorf("DetectScope(%q, %q) = %q, want %q", tc.query, tc.meetingID, got, tc.want)
		}
	}
}
