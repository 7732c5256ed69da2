// Package notify delivers end-of-call summaries to operators.
//
// Delivery is best effort: failures are logged and counted, never returned to
// the call flow.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/papercomputeco/ivrdesk/pkg/session"
)

// Summary is everything an operator needs to follow up on a finished call.
type Summary struct {
	CallID  string
	Phone   string
	Turns   []session.Turn
	EndedAt time.Time
}

// Sink delivers a summary somewhere.
type Sink interface {
	Name() string
	Send(ctx context.Context, s Summary) error
}

// SpeakerLabel returns the display label used in summaries.
func SpeakerLabel(sp session.Speaker) string {
	if sp == session.Caller {
		return "👤 מתקשר"
	}
	return "🤖 מירי"
}

// Text renders the conversation one turn per line.
func (s Summary) Text() string {
	lines := make([]string, 0, len(s.Turns))
	for _, t := range s.Turns {
		lines = append(lines, fmt.Sprintf("%s: %s", SpeakerLabel(t.Speaker), t.Text))
	}
	return strings.Join(lines, "\n")
}
