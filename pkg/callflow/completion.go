package callflow

import "strings"

// Detector decides whether an assistant reply closes the conversation.
// Implementations are heuristics; a false negative keeps the call going and a
// false positive ends it early.
type Detector interface {
	Complete(reply string) bool
}

// KeywordDetector reports completion when the reply contains Thanks and at
// least one of SignOffs.
type KeywordDetector struct {
	Thanks   string
	SignOffs []string
}

// DefaultDetector matches the closing line the system prompt asks for.
func DefaultDetector() KeywordDetector {
	return KeywordDetector{
		Thanks:   "תודה",
		SignOffs: []string{"ניצור קשר", "יום טוב", "להתראות"},
	}
}

func (k KeywordDetector) Complete(reply string) bool {
	if !strings.Contains(reply, k.Thanks) {
		return false
	}
	for _, s := range k.SignOffs {
		if strings.Contains(reply, s) {
			return true
		}
	}
	return false
}
