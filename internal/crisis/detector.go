// Package crisis gates inbound messages on high-risk language before they
// reach the completion service.
package crisis

import (
	"strings"
)

// Verdict is the outcome of screening one message.
type Verdict int

const (
	// Clear means no configured crisis phrase was found.
	Clear Verdict = iota
	// Flagged means at least one crisis phrase matched.
	Flagged
)

// String returns a human-readable verdict name.
func (v Verdict) String() string {
	if v == Flagged {
		return "flagged"
	}
	return "clear"
}

// DefaultPhrases is the stock crisis phrase list. The gate is deliberately
// conservative: over-triggering beats under-triggering.
func DefaultPhrases() []string {
	return []string{
		"kill myself",
		"end it all",
		"suicide",
		"not want to live",
		"hurt myself",
		"self harm",
		"end my life",
		"want to die",
		"don't want to be here",
		"no reason to live",
	}
}

// Detector screens text against a fixed phrase list. It is pure and
// deterministic; Detect has no failure mode.
type Detector struct {
	phrases []string
}

// NewDetector creates a detector for the given phrases. Matching is
// case-insensitive substring; an empty list means nothing ever flags.
func NewDetector(phrases []string) *Detector {
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Detector{phrases: lowered}
}

// Detect returns Flagged if any configured phrase occurs in text.
func (d *Detector) Detect(text string) Verdict {
	lowered := strings.ToLower(text)
	for _, phrase := range d.phrases {
		if strings.Contains(lowered, phrase) {
			return Flagged
		}
	}
	return Clear
}
