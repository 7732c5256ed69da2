package transcript

import (
	"context"
	"fmt"

	"github.com/papercomputeco/ivrdesk/pkg/notify"
)

// Archive stores one node per turn of s and returns the head hash. An empty
// conversation is not archived and yields "".
func Archive(ctx context.Context, storer Storer, s notify.Summary) (string, error) {
	var parent *Node
	for i, t := range s.Turns {
		node := NewNode(Entry{
			CallID:  s.CallID,
			Phone:   s.Phone,
			Speaker: string(t.Speaker),
			Text:    t.Text,
		}, parent)

		if err := storer.Put(ctx, node); err != nil {
			return "", fmt.Errorf("storing turn %d: %w", i, err)
		}
		parent = node
	}

	if parent == nil {
		return "", nil
	}
	return parent.Hash, nil
}

// ArchiveSink is a notify.Sink that archives every finished call.
type ArchiveSink struct {
	storer Storer
}

func NewArchiveSink(storer Storer) *ArchiveSink {
	return &ArchiveSink{storer: storer}
}

func (a *ArchiveSink) Name() string { return "transcript" }

func (a *ArchiveSink) Send(ctx context.Context, s notify.Summary) error {
	_, err := Archive(ctx, a.storer, s)
	return err
}
