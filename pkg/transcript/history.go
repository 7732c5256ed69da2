package transcript

import "context"

// History is one archived conversation in chronological order.
type History struct {
	CallID   string         `json:"call_id"`
	Phone    string         `json:"phone,omitempty"`
	HeadHash string         `json:"head_hash"`
	Turns    []HistoryEntry `json:"turns"`
	Depth    int            `json:"depth"`
}

// HistoryEntry is one turn of a History.
type HistoryEntry struct {
	Hash       string  `json:"hash"`
	ParentHash *string `json:"parent_hash,omitempty"`
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
}

// BuildHistory returns the conversation ending at hash.
func BuildHistory(ctx context.Context, storer Storer, hash string) (*History, error) {
	path, err := storer.Ancestry(ctx, hash)
	if err != nil {
		return nil, err
	}

	turns := make([]HistoryEntry, len(path))
	for i, node := range path {
		turns[len(path)-1-i] = HistoryEntry{
			Hash:       node.Hash,
			ParentHash: node.ParentHash,
			Speaker:    node.Content.Speaker,
			Text:       node.Content.Text,
		}
	}

	head := path[0].Content
	return &History{
		CallID:   head.CallID,
		Phone:    head.Phone,
		HeadHash: hash,
		Turns:    turns,
		Depth:    len(turns),
	}, nil
}

// Histories returns one History per archived call. Leaves whose ancestry is
// broken are skipped and returned in skipped.
func Histories(ctx context.Context, storer Storer) (histories []*History, skipped []string, err error) {
	leaves, err := storer.Leaves(ctx)
	if err != nil {
		return nil, nil, err
	}

	histories = make([]*History, 0, len(leaves))
	for _, leaf := range leaves {
		h, err := BuildHistory(ctx, storer, leaf.Hash)
		if err != nil {
			skipped = append(skipped, leaf.Hash)
			continue
		}
		histories = append(histories, h)
	}
	return histories, skipped, nil
}
