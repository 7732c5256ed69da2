package transcript

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStorer keeps nodes in process memory.
type MemoryStorer struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	children map[string]int
	order    []string
}

func NewMemoryStorer() *MemoryStorer {
	return &MemoryStorer{
		nodes:    make(map[string]*Node),
		children: make(map[string]int),
	}
}

func (m *MemoryStorer) Put(_ context.Context, node *Node) error {
	if node == nil {
		return fmt.Errorf("cannot store nil node")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[node.Hash]; ok {
		return nil
	}
	m.nodes[node.Hash] = node
	m.order = append(m.order, node.Hash)
	if node.ParentHash != nil {
		m.children[*node.ParentHash]++
	}
	return nil
}

func (m *MemoryStorer) Get(_ context.Context, hash string) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.nodes[hash]
	if !ok {
		return nil, ErrNotFound{Hash: hash}
	}
	return node, nil
}

func (m *MemoryStorer) List(_ context.Context) ([]*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Node, 0, len(m.order))
	for _, h := range m.order {
		out = append(out, m.nodes[h])
	}
	return out, nil
}

func (m *MemoryStorer) Leaves(_ context.Context) ([]*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Node
	for _, h := range m.order {
		if m.children[h] == 0 {
			out = append(out, m.nodes[h])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out, nil
}

func (m *MemoryStorer) Ancestry(ctx context.Context, hash string) ([]*Node, error) {
	return ancestry(ctx, hash, m.Get)
}

func (m *MemoryStorer) Close() error {
	return nil
}
