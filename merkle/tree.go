package merkle

import (
	"fmt"
)

// Tree is an immutable binary merkle tree. The zero value is an unbuilt tree,
// every accessor on it returns ErrNotBuilt.
type Tree struct {
	alg Algorithm

	// levels[0] are the leaf digests, levels[len(levels)-1] holds only the
	// root. Padding duplicates are not stored.
	levels [][]Digest
}

func (t *Tree) built() bool {
	return t != nil && len(t.levels) > 0
}

// Root returns the root digest.
func (t *Tree) Root() (Digest, error) {
	if !t.built() {
		return Digest{}, ErrNotBuilt
	}
	return t.levels[len(t.levels)-1][0], nil
}

// LeafCount returns the number of leaves, 0 for an unbuilt tree.
func (t *Tree) LeafCount() int {
	if !t.built() {
		return 0
	}
	return len(t.levels[0])
}

// Height is the number of levels above the leaves. It equals the length of
// every proof produced from the tree.
func (t *Tree) Height() int {
	if !t.built() {
		return 0
	}
	return len(t.levels) - 1
}

// Algorithm reports the hash algorithm the tree was built with.
func (t *Tree) Algorithm() Algorithm {
	if t == nil {
		return ""
	}
	return t.alg
}

// Leaf returns the digest of leaf i.
func (t *Tree) Leaf(i int) (Digest, error) {
	if !t.built() {
		return Digest{}, ErrNotBuilt
	}
	if i < 0 || i >= len(t.levels[0]) {
		return Digest{}, fmt.Errorf("%w: index %d, leaf count %d", ErrIndexOutOfRange, i, len(t.levels[0]))
	}
	return t.levels[0][i], nil
}

// Leaves returns a copy of the leaf digests in tree order.
func (t *Tree) Leaves() []Digest {
	if !t.built() {
		return nil
	}
	return append([]Digest(nil), t.levels[0]...)
}

// Level returns a copy of the stored nodes at height h (0 is the leaves).
func (t *Tree) Level(h int) ([]Digest, error) {
	if !t.built() {
		return nil, ErrNotBuilt
	}
	if h < 0 || h >= len(t.levels) {
		return nil, fmt.Errorf("%w: height %d, tree height %d", ErrIndexOutOfRange, h, len(t.levels)-1)
	}
	return append([]Digest(nil), t.levels[h]...), nil
}
