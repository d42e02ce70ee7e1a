package integrity

import (
	"fmt"

	"github.com/forestrie/go-merklekv/leaf"
	"github.com/forestrie/go-merklekv/merkle"
	"github.com/fxamacker/cbor/v2"
)

const snapshotVersion = 1

// snapshot is the persisted form of a Commitment. The tree is not stored,
// it is rebuilt from the leaf digests on restore.
type snapshot struct {
	Version   uint8         `cbor:"1,keyasint"`
	ID        string        `cbor:"2,keyasint"`
	Algorithm string        `cbor:"3,keyasint"`
	Records   []leaf.Record `cbor:"4,keyasint"`
	Leaves    [][]byte      `cbor:"5,keyasint"`
	Root      []byte        `cbor:"6,keyasint"`
}

var (
	snapshotEncMode cbor.EncMode
	snapshotDecMode cbor.DecMode
)

func init() {
	var err error
	if snapshotEncMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if snapshotDecMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// MarshalBinary encodes the commitment so the owner can keep serving proofs
// across restarts.
func (c *Commitment) MarshalBinary() ([]byte, error) {
	s := snapshot{
		Version:   snapshotVersion,
		ID:        c.id,
		Algorithm: string(c.Algorithm()),
		Records:   c.records,
		Leaves:    make([][]byte, c.LeafCount()),
	}
	for i, d := range c.tree.Leaves() {
		s.Leaves[i] = append([]byte(nil), d[:]...)
	}
	root := c.Root()
	s.Root = root[:]
	return snapshotEncMode.Marshal(s)
}

// UnmarshalCommitment restores a commitment written by MarshalBinary. The
// records are re-encoded and the tree rebuilt, a snapshot that does not
// reproduce its own leaves and root is rejected with ErrSnapshotCorrupt.
func UnmarshalCommitment(data []byte, opts ...merkle.Option) (*Commitment, error) {
	var s snapshot
	if err := snapshotDecMode.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: version %d", ErrSnapshotCorrupt, s.Version)
	}
	alg, err := merkle.ParseAlgorithm(s.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if len(s.Records) != len(s.Leaves) {
		return nil, fmt.Errorf("%w: %d records, %d leaves", ErrSnapshotCorrupt, len(s.Records), len(s.Leaves))
	}
	wantRoot, err := merkle.DigestFromBytes(s.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: root: %v", ErrSnapshotCorrupt, err)
	}

	c, err := newCommitment(s.ID, s.Records, append(opts, merkle.WithAlgorithm(alg))...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	for i, d := range c.tree.Leaves() {
		if string(d[:]) != string(s.Leaves[i]) {
			return nil, fmt.Errorf("%w: leaf %d does not match record %q", ErrSnapshotCorrupt, i, s.Records[i].Key)
		}
	}
	if c.Root() != wantRoot {
		return nil, fmt.Errorf("%w: rebuilt root %s, want %s", ErrSnapshotCorrupt, c.Root(), wantRoot)
	}
	return c, nil
}

// pendingSnapshot is a commitment that has not been anchored yet, and the
// phase it stopped in.
type pendingSnapshot struct {
	Uploaded   bool   `cbor:"1,keyasint"`
	Commitment []byte `cbor:"2,keyasint"`
}

// MarshalPending encodes the pending commitment so Retry can be run by
// another process. It returns nil when nothing is pending.
func (p *Protocol) MarshalPending() ([]byte, error) {
	c, uploaded := p.Pending()
	if c == nil {
		return nil, nil
	}
	data, err := c.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return snapshotEncMode.Marshal(pendingSnapshot{Uploaded: uploaded, Commitment: data})
}

// RestorePending resumes a commitment written by MarshalPending.
func (p *Protocol) RestorePending(data []byte, opts ...merkle.Option) error {
	var s pendingSnapshot
	if err := snapshotDecMode.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	c, err := UnmarshalCommitment(s.Commitment, opts...)
	if err != nil {
		return err
	}
	p.Resume(c, s.Uploaded)
	return nil
}
