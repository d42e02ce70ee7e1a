package merkle

import (
	"fmt"
	"hash"

	"github.com/forestrie/go-merklekv/leaf"

	"golang.org/x/sync/errgroup"
)

// Build constructs the tree over the ordered leaf digests. The input is copied,
// later changes to leaves do not affect the tree.
func Build(leaves []Digest, opts ...Option) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyDataset
	}
	o := newBuildOptions(opts...)
	newHasher, err := o.Algorithm.Factory()
	if err != nil {
		return nil, err
	}

	level := append([]Digest(nil), leaves...)
	t := &Tree{
		alg:    o.Algorithm,
		levels: make([][]Digest, 0, ProofLen(len(leaves))+1),
	}
	t.levels = append(t.levels, level)

	for len(level) > 1 {
		level = hashLevel(newHasher, level, o)
		t.levels = append(t.levels, level)
	}
	return t, nil
}

// BuildFromLeafBytes hashes each canonical leaf encoding and builds the tree.
func BuildFromLeafBytes(leafBytes [][]byte, opts ...Option) (*Tree, error) {
	if len(leafBytes) == 0 {
		return nil, ErrEmptyDataset
	}
	o := newBuildOptions(opts...)
	hasher, err := o.Algorithm.NewHasher()
	if err != nil {
		return nil, err
	}
	leaves := make([]Digest, len(leafBytes))
	for i, b := range leafBytes {
		leaves[i] = HashLeaf(hasher, b)
	}
	return Build(leaves, opts...)
}

// hashLevel returns the parents of level, applying the duplicate-last rule
// when len(level) is odd.
func hashLevel(newHasher HashFactory, level []Digest, o BuildOptions) []Digest {
	nparents := (len(level) + 1) / 2
	parents := make([]Digest, nparents)

	if o.Workers <= 1 || nparents < o.ParallelThreshold {
		hashParents(newHasher(), level, parents, 0, nparents)
		return parents
	}

	chunk := (nparents + o.Workers - 1) / o.Workers
	g := errgroup.Group{}
	g.SetLimit(o.Workers)
	for from := 0; from < nparents; from += chunk {
		from, to := from, min(from+chunk, nparents)
		g.Go(func() error {
			// each worker writes a disjoint range of parents
			hashParents(newHasher(), level, parents, from, to)
			return nil
		})
	}
	// hashing can't fail
	_ = g.Wait()
	return parents
}

func hashParents(hasher hash.Hash, level []Digest, parents []Digest, from, to int) {
	for p := from; p < to; p++ {
		left := level[2*p]
		right := left
		if 2*p+1 < len(level) {
			right = level[2*p+1]
		}
		parents[p] = HashPair(hasher, left, right)
	}
}

// BuildFromRecords encodes each record with the canonical leaf encoding and
// builds the tree in record order.
func BuildFromRecords(records []leaf.Record, opts ...Option) (*Tree, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	leafBytes := make([][]byte, len(records))
	for i, r := range records {
		b, err := r.Encode()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		leafBytes[i] = b
	}
	return BuildFromLeafBytes(leafBytes, opts...)
}
