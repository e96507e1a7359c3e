// Package classifier derives sales intelligence from a transcript with keyword
// rules. It is the fallback when no language model is usable.
package classifier

import (
	"strings"
	"unicode/utf8"

	"lead_capture_backend/internal/shared/normalize"
)

const (
	IntentHot  = "Hot"
	IntentWarm = "Warm"
	IntentCold = "Cold"

	DefaultProductInterest = "General inquiry"
	BriefNotes             = "Brief conversation recorded"
	FollowUpMessage        = "Thank you for the conversation. Based on our discussion, I'll follow up with more information."

	notesMinRunes = 10
	notesMaxRunes = 100
	notesEllipsis = "..."
)

// Result is the heuristic view of a conversation.
type Result struct {
	Intent          string
	ProductInterest string
	Notes           string
	FollowUpMessage string
	ConfidenceScore int
}

type intentRule struct {
	keywords   []string
	intent     string
	confidence int
}

type interestRule struct {
	keywords []string
	interest string
}

// Rules are evaluated in order; the first match wins.
var intentRules = []intentRule{
	{keywords: []string{"budget", "buy", "purchase"}, intent: IntentHot, confidence: 70},
	{keywords: []string{"interested", "demo", "more info"}, intent: IntentWarm, confidence: 50},
}

var defaultIntent = intentRule{intent: IntentCold, confidence: 30}

var interestRules = []interestRule{
	{keywords: []string{"crm"}, interest: "CRM solution"},
	{keywords: []string{"software"}, interest: "Software solution"},
	{keywords: []string{"service"}, interest: "Service offering"},
}

// Classify is total and side-effect free.
func Classify(transcript string) Result {
	lower := strings.ToLower(transcript)

	intent := defaultIntent
	for _, rule := range intentRules {
		if containsAny(lower, rule.keywords) {
			intent = rule
			break
		}
	}

	interest := DefaultProductInterest
	for _, rule := range interestRules {
		if containsAny(lower, rule.keywords) {
			interest = rule.interest
			break
		}
	}

	return Result{
		Intent:          intent.intent,
		ProductInterest: interest,
		Notes:           Notes(transcript),
		FollowUpMessage: FollowUpMessage,
		ConfidenceScore: intent.confidence,
	}
}

// Notes summarizes a transcript by truncation, keeping its original casing.
func Notes(transcript string) string {
	if utf8.RuneCountInString(transcript) <= notesMinRunes {
		return BriefNotes
	}
	return normalize.Truncate(transcript, notesMaxRunes) + notesEllipsis
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
