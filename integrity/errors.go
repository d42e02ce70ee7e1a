package integrity

import (
	"errors"

	"github.com/forestrie/go-merklekv/anchor"
	"github.com/forestrie/go-merklekv/store"
)

var (
	ErrDuplicateKey    = errors.New("duplicate key in commitment")
	ErrKeyNotCommitted = errors.New("key is not part of the commitment")
	ErrSnapshotCorrupt = errors.New("commitment snapshot is corrupt")
	ErrNoCommitment    = errors.New("nothing has been committed")
	ErrNothingToRetry  = errors.New("there is no failed commitment to retry")
	// ErrUnknownCommitment is returned for proofs of a commitment the proof
	// source does not hold.
	ErrUnknownCommitment = errors.New("commitment is not held by the proof source")

	// re-exported from the collaborators
	ErrStoreUnavailable  = store.ErrStoreUnavailable
	ErrAnchorUnavailable = anchor.ErrAnchorUnavailable
)
