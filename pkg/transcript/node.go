// Package transcript archives finished calls as hash-chained turn records.
//
// Each turn becomes a Node whose hash covers the turn and its parent's hash,
// so the head hash of a call identifies the whole conversation and any edit to
// an archived turn is detectable.
package transcript

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Entry is the archived content of one turn.
type Entry struct {
	CallID  string `json:"call_id"`
	Phone   string `json:"phone,omitempty"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Node is a single archived turn.
type Node struct {
	// Hash is SHA-256 over the entry and parent hash, hex-encoded
	Hash string `json:"hash"`

	// ParentHash is nil for the first turn of a call.
	ParentHash *string `json:"parent_hash"`

	Content Entry `json:"content"`
}

type hashInput struct {
	Content Entry  `json:"content"`
	Parent  string `json:"parent,omitempty"`
}

// NewNode creates a node for content chained after parent.
func NewNode(content Entry, parent *Node) *Node {
	n := &Node{Content: content}
	if parent != nil {
		h := parent.Hash
		n.ParentHash = &h
	}
	n.Hash = n.computeHash()
	return n
}

func (n *Node) computeHash() string {
	in := hashInput{Content: n.Content}
	if n.ParentHash != nil {
		in.Parent = *n.ParentHash
	}

	// Struct field order makes the encoding deterministic.
	data, err := json.Marshal(in)
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Verify reports whether the stored hash matches the node's content.
func (n *Node) Verify() bool {
	return n.Hash == n.computeHash()
}
