package merkle

import "errors"

var (
	ErrEmptyDataset     = errors.New("a merkle tree requires at least one leaf")
	ErrNotBuilt         = errors.New("the merkle tree has not been built")
	ErrIndexOutOfRange  = errors.New("leaf index out of range")
	ErrInvalidProof     = errors.New("the proof is malformed")
	ErrInvalidDigest    = errors.New("the digest is malformed")
	ErrUnknownAlgorithm = errors.New("unknown hash algorithm")
)
