package integrity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forestrie/go-merklekv/anchor"
	"github.com/forestrie/go-merklekv/leaf"
	"github.com/forestrie/go-merklekv/merkle"
	"github.com/google/uuid"
)

// Commitment is the owner's retained view of one committed dataset. It is
// immutable and safe for concurrent use.
type Commitment struct {
	id      string
	tree    *merkle.Tree
	records []leaf.Record
	// index maps each key to its leaf position
	index map[string]int
}

// ProofResponse is what a ProofSource returns for a key. None of it is
// trusted by the client, every field is checked against the anchored
// checkpoint.
type ProofResponse struct {
	CommitmentID string           `json:"commitment_id"`
	Key          string           `json:"key"`
	Index        int              `json:"index"`
	LeafCount    int              `json:"leaf_count"`
	Algorithm    merkle.Algorithm `json:"algorithm"`
	Proof        merkle.Proof     `json:"proof"`
}

// DecodeProofResponse decodes the JSON form of a ProofResponse. A malformed
// proof is rejected with merkle.ErrInvalidProof.
func DecodeProofResponse(data []byte) (ProofResponse, error) {
	var raw struct {
		ProofResponse
		Proof json.RawMessage `json:"proof"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ProofResponse{}, fmt.Errorf("%w: %v", merkle.ErrInvalidProof, err)
	}
	resp := raw.ProofResponse
	var err error
	if resp.Proof, err = merkle.DecodeProofJSON(raw.Proof); err != nil {
		return ProofResponse{}, err
	}
	return resp, nil
}

// ProofSource serves inclusion proofs by key from the commitment an anchored
// checkpoint names.
type ProofSource interface {
	ProofFor(ctx context.Context, commitmentID, key string) (ProofResponse, error)
}

// newCommitment validates records and builds the tree over them.
func newCommitment(id string, records []leaf.Record, opts ...merkle.Option) (*Commitment, error) {
	if len(records) == 0 {
		return nil, merkle.ErrEmptyDataset
	}
	index := make(map[string]int, len(records))
	leafBytes := make([][]byte, len(records))
	for i, r := range records {
		if prev, ok := index[r.Key]; ok {
			return nil, fmt.Errorf("%w: %q at %d and %d", ErrDuplicateKey, r.Key, prev, i)
		}
		index[r.Key] = i
		b, err := r.Encode()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		leafBytes[i] = b
	}
	tree, err := merkle.BuildFromLeafBytes(leafBytes, opts...)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Commitment{
		id:      id,
		tree:    tree,
		records: append([]leaf.Record(nil), records...),
		index:   index,
	}, nil
}

func (c *Commitment) ID() string { return c.id }

func (c *Commitment) Root() merkle.Digest {
	// a commitment always holds a built tree
	root, _ := c.tree.Root()
	return root
}

func (c *Commitment) LeafCount() int { return c.tree.LeafCount() }

func (c *Commitment) Algorithm() merkle.Algorithm { return c.tree.Algorithm() }

func (c *Commitment) Tree() *merkle.Tree { return c.tree }

// Records returns a copy of the committed records in leaf order.
func (c *Commitment) Records() []leaf.Record {
	return append([]leaf.Record(nil), c.records...)
}

// IndexOf returns the leaf index of key.
func (c *Commitment) IndexOf(key string) (int, bool) {
	i, ok := c.index[key]
	return i, ok
}

// ProofFor makes a Commitment usable directly as a ProofSource. Proofs for
// any other commitment id are refused.
func (c *Commitment) ProofFor(ctx context.Context, commitmentID, key string) (ProofResponse, error) {
	if commitmentID != c.id {
		return ProofResponse{}, fmt.Errorf("%w: %s", ErrUnknownCommitment, commitmentID)
	}
	return c.Proof(ctx, key)
}

// Proof returns the inclusion proof for key. It never blocks.
func (c *Commitment) Proof(_ context.Context, key string) (ProofResponse, error) {
	i, ok := c.index[key]
	if !ok {
		return ProofResponse{}, fmt.Errorf("%w: %q", ErrKeyNotCommitted, key)
	}
	proof, err := c.tree.Proof(i)
	if err != nil {
		return ProofResponse{}, err
	}
	return ProofResponse{
		CommitmentID: c.id,
		Key:          key,
		Index:        i,
		LeafCount:    c.tree.LeafCount(),
		Algorithm:    c.tree.Algorithm(),
		Proof:        proof,
	}, nil
}

// Checkpoint returns the anchor entry for the commitment, stamped with now.
func (c *Commitment) Checkpoint(now time.Time) anchor.Checkpoint {
	root := c.Root()
	return anchor.Checkpoint{
		CommitmentID: c.id,
		Root:         root[:],
		LeafCount:    uint64(c.LeafCount()),
		Algorithm:    string(c.Algorithm()),
		Timestamp:    now.UnixMilli(),
	}
}
