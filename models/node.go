package models

import "github.com/loomrun/incremental/structures"

// Node is the observable record of one computation: its last computed
// value and its Meta, which carries the node's process-unique identity
// (Meta.SeqID). incremental.Art[T] is a *Node[T].
type Node[T any] struct {
	// Value is the last computed result of this node's evaluation.
	Value T
	// Meta is this node's bookkeeping record.
	Meta *Meta
}

// NewConstant builds a constant cell: no interval, an Evaluate that is a
// deliberate no-op, and no owning binding to unmemo from.
func NewConstant[T any](value T) *Node[T] {
	node := &Node[T]{Value: value, Meta: NewMeta()}
	node.Meta.Evaluate = func() (bool, error) { return false, nil }
	return node
}
