package merkle

import (
	"fmt"
)

// Side records where a proof sibling sits relative to the node being proven.
// The zero value is invalid.
type Side uint8

const (
	Left  Side = 1
	Right Side = 2
)

func (s Side) Valid() bool {
	return s == Left || s == Right
}

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// ProofStep is one sibling on the path from a leaf to the root.
type ProofStep struct {
	Sibling Digest `json:"sibling"`
	Side    Side   `json:"side"`
}

// Proof is the ordered list of siblings from the leaf level upwards.
type Proof []ProofStep

// Validate checks the proof is structurally sound. It says nothing about
// whether the proof is correct for any particular leaf.
func (p Proof) Validate() error {
	for i, step := range p {
		if !step.Side.Valid() {
			return fmt.Errorf("%w: step %d has unknown side %d", ErrInvalidProof, i, uint8(step.Side))
		}
	}
	return nil
}

// ProofLen returns the length of every inclusion proof for a tree of
// leafCount leaves, ceil(log2(leafCount)). Duplicate-last padding gives every
// node a sibling, so the length does not depend on the leaf index.
func ProofLen(leafCount int) int {
	n := 0
	for leafCount > 1 {
		leafCount = (leafCount + 1) / 2
		n++
	}
	return n
}

// GenerateProof returns the inclusion proof for the leaf at leafIndex.
//
// For the 5 leaf tree
//
//	3                 14
//	             /          \
//	2          12            13
//	         /    \        /    \
//	1      9      10     11     (11)
//	      / \    /  \    / \
//	0    0   1  2    3  4  (4)
//
// (numbers are node identities, parenthesised nodes are padding duplicates)
// the proof for leaf 2 is [{3, Right}, {9, Left}, {13, Right}] and the proof
// for leaf 4 is [{4, Right}, {11, Right}, {12, Left}].
func GenerateProof(t *Tree, leafIndex int) (Proof, error) {
	if !t.built() {
		return nil, ErrNotBuilt
	}
	n := len(t.levels[0])
	if leafIndex < 0 || leafIndex >= n {
		return nil, fmt.Errorf("%w: index %d, leaf count %d", ErrIndexOutOfRange, leafIndex, n)
	}

	proof := make(Proof, 0, len(t.levels)-1)
	i := leafIndex
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling, side := siblingOf(i, len(level))
		proof = append(proof, ProofStep{Sibling: level[sibling], Side: side})
		i /= 2
	}
	return proof, nil
}

// Proof is GenerateProof for the receiver.
func (t *Tree) Proof(leafIndex int) (Proof, error) {
	return GenerateProof(t, leafIndex)
}

// ProofPath returns, for each level, the index of the node whose digest is
// the sibling for leafIndex. A padded sibling is reported as the node itself.
// It lets tooling audit individual proof elements against stored levels.
func ProofPath(leafCount, leafIndex int) ([]int, error) {
	if leafCount <= 0 {
		return nil, ErrEmptyDataset
	}
	if leafIndex < 0 || leafIndex >= leafCount {
		return nil, fmt.Errorf("%w: index %d, leaf count %d", ErrIndexOutOfRange, leafIndex, leafCount)
	}
	path := make([]int, 0, ProofLen(leafCount))
	for width, i := leafCount, leafIndex; width > 1; width, i = (width+1)/2, i/2 {
		sibling, _ := siblingOf(i, width)
		path = append(path, sibling)
	}
	return path, nil
}

// siblingOf applies the padding rule: the last node of an odd width level is
// its own sibling, on the right.
func siblingOf(i, width int) (int, Side) {
	if i&1 == 1 {
		return i - 1, Left
	}
	if i+1 >= width {
		return i, Right
	}
	return i + 1, Right
}
