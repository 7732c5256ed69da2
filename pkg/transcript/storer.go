package transcript

import "context"

// Storer persists transcript nodes.
type Storer interface {
	// Put stores a node. Storing an existing hash is a no-op.
	Put(ctx context.Context, node *Node) error

	// Get returns the node with hash, or ErrNotFound.
	Get(ctx context.Context, hash string) (*Node, error)

	// List returns every stored node.
	List(ctx context.Context) ([]*Node, error)

	// Leaves returns nodes without children: the last turn of each archived call.
	Leaves(ctx context.Context) ([]*Node, error)

	// Ancestry returns the path from a node back to the first turn (node first).
	Ancestry(ctx context.Context, hash string) ([]*Node, error)

	Close() error
}

// ErrNotFound is returned when a node doesn't exist in the store.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	if e.Hash == "" {
		return "transcript node not found"
	}
	return "transcript node not found: " + e.Hash
}

// ancestry walks parent links using get.
func ancestry(ctx context.Context, hash string, get func(context.Context, string) (*Node, error)) ([]*Node, error) {
	var path []*Node
	current := hash
	for {
		node, err := get(ctx, current)
		if err != nil {
			return nil, err
		}
		path = append(path, node)
		if node.ParentHash == nil {
			return path, nil
		}
		current = *node.ParentHash
	}
}
