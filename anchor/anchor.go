// Package anchor publishes checkpoints, the (root, leaf count) commitments
// clients verify against, to an append only log.
//
// Two anchors are provided. CBORAnchor writes plain deterministic CBOR and
// trusts the log it writes to. SignedAnchor wraps each checkpoint in a COSE
// Sign1 envelope so a reader can detect entries not produced by the owner's
// key.
package anchor

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/forestrie/go-merklekv/merkle"
)

var (
	ErrAnchorUnavailable = errors.New("the anchor is unavailable")
	ErrNoCheckpoint      = errors.New("no checkpoint has been anchored")
	ErrSignatureInvalid  = errors.New("the checkpoint signature did not verify")
	ErrCheckpointInvalid = errors.New("the checkpoint is not well formed")
)

// Checkpoint is the anchored commitment to one tree.
type Checkpoint struct {
	// CommitmentID identifies the commitment the root was produced for.
	CommitmentID string `cbor:"1,keyasint" json:"commitment_id"`
	Root         []byte `cbor:"2,keyasint" json:"root"`
	// LeafCount is anchored alongside the root. Duplicate-last padding means
	// [a, b, c] and [a, b, c, c] share a root, the count tells them apart.
	LeafCount uint64 `cbor:"3,keyasint" json:"leaf_count"`
	Algorithm string `cbor:"4,keyasint" json:"algorithm"`
	// Timestamp is the unix time (milliseconds) the checkpoint was published.
	// It is not committed to by Root.
	Timestamp int64 `cbor:"5,keyasint" json:"timestamp"`
}

type jsonCheckpoint Checkpoint

// MarshalJSON writes Root as lowercase hex, the text form of every digest.
func (c Checkpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		jsonCheckpoint
		Root string `json:"root"`
	}{jsonCheckpoint(c), hex.EncodeToString(c.Root)})
}

func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	var v struct {
		jsonCheckpoint
		Root string `json:"root"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	root, err := hex.DecodeString(v.Root)
	if err != nil {
		return fmt.Errorf("%w: root: %v", ErrCheckpointInvalid, err)
	}
	*c = Checkpoint(v.jsonCheckpoint)
	c.Root = root
	return nil
}

// RootDigest returns Root as a digest.
func (c Checkpoint) RootDigest() (merkle.Digest, error) {
	return merkle.DigestFromBytes(c.Root)
}

// Validate checks the checkpoint is complete.
func (c Checkpoint) Validate() error {
	if len(c.Root) != merkle.DigestSize {
		return fmt.Errorf("%w: root is %d bytes", ErrCheckpointInvalid, len(c.Root))
	}
	if c.LeafCount == 0 {
		return fmt.Errorf("%w: zero leaf count", ErrCheckpointInvalid)
	}
	if _, err := merkle.ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("%w: %v", ErrCheckpointInvalid, err)
	}
	return nil
}

type Publisher interface {
	// Publish appends the checkpoint. Earlier checkpoints are never modified.
	Publish(ctx context.Context, cp Checkpoint) error
}

type Reader interface {
	// Current returns the most recently published checkpoint, ErrNoCheckpoint
	// if there is none.
	Current(ctx context.Context) (Checkpoint, error)
}

type Anchor interface {
	Publisher
	Reader
}

// HistoryReader is implemented by anchors that can list every checkpoint,
// oldest first.
type HistoryReader interface {
	History(ctx context.Context) ([]Checkpoint, error)
}
