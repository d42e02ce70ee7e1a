package integrity

import (
	"context"
	"errors"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklekv/anchor"
	"github.com/forestrie/go-merklekv/leaf"
	"github.com/forestrie/go-merklekv/merkle"
	"github.com/forestrie/go-merklekv/store"
)

// QueryResult is the outcome of QueryAndVerify. Value is whatever the store
// returned, it is only trustworthy when Verified is true.
type QueryResult struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Found    bool   `json:"found"`
	Verified bool   `json:"verified"`
	// Index and Root are set once a proof and checkpoint were obtained
	Index        int           `json:"index"`
	Root         merkle.Digest `json:"root"`
	CommitmentID string        `json:"commitment_id,omitempty"`
}

// Client verifies values read from the untrusted store. It trusts only the
// anchor.
type Client struct {
	log    logger.Logger
	store  store.Reader
	anchor anchor.Reader
	proofs ProofSource
}

func NewClient(log logger.Logger, st store.Reader, an anchor.Reader, proofs ProofSource) *Client {
	return &Client{
		log:    log,
		store:  st,
		anchor: an,
		proofs: proofs,
	}
}

// QueryAndVerify reads key from the store and verifies the value against the
// anchored checkpoint.
//
// An absent value, a missing checkpoint, a key or commitment the proof source
// does not hold and a value that does not verify all give Verified false with
// a nil error.
// Store and anchor failures are returned so the caller can retry.
func (c *Client) QueryAndVerify(ctx context.Context, key string) (QueryResult, error) {
	result := QueryResult{Key: key}

	value, found, err := c.store.Get(ctx, key)
	if err != nil {
		return result, err
	}
	if !found {
		return result, nil
	}
	result.Value, result.Found = value, true

	cp, err := c.anchor.Current(ctx)
	if errors.Is(err, anchor.ErrNoCheckpoint) {
		c.log.Infof("query %q: %v", key, err)
		return result, nil
	}
	if err != nil {
		return result, err
	}
	root, err := cp.RootDigest()
	if err != nil {
		return result, err
	}
	result.Root, result.CommitmentID = root, cp.CommitmentID

	resp, err := c.proofs.ProofFor(ctx, cp.CommitmentID, key)
	if errors.Is(err, ErrKeyNotCommitted) || errors.Is(err, ErrUnknownCommitment) {
		c.log.Infof("query %q: %v", key, err)
		return result, nil
	}
	if err != nil {
		return result, err
	}
	result.Index = resp.Index

	result.Verified, err = VerifyRecord(key, value, resp, cp)
	if err != nil {
		return result, err
	}
	if !result.Verified {
		c.log.Infof("query %q: value does not verify against commitment %s", key, cp.CommitmentID)
	}
	return result, nil
}

// VerifyRecord reports whether (key, value) is committed to by cp, using the
// untrusted proof response. The response must describe a tree of the anchored
// size and algorithm, and its sides must match its claimed index.
//
// A value that cannot be leaf encoded can not have been committed, it
// verifies false. Only a structurally malformed proof is an error.
func VerifyRecord(key, value string, resp ProofResponse, cp anchor.Checkpoint) (bool, error) {
	if err := resp.Proof.Validate(); err != nil {
		return false, err
	}
	root, err := cp.RootDigest()
	if err != nil {
		return false, err
	}
	alg, err := merkle.ParseAlgorithm(cp.Algorithm)
	if err != nil {
		return false, err
	}
	if resp.Algorithm.String() != alg.String() || resp.Key != key {
		return false, nil
	}

	n := int(cp.LeafCount)
	if resp.LeafCount != n || len(resp.Proof) != merkle.ProofLen(n) {
		return false, nil
	}
	if !sidesMatchIndex(resp.Proof, n, resp.Index) {
		return false, nil
	}

	leafBytes, err := leaf.Encode(key, value)
	if err != nil {
		return false, nil
	}
	hasher, err := alg.NewHasher()
	if err != nil {
		return false, err
	}
	return merkle.Verify(hasher, leafBytes, resp.Proof, root)
}

// sidesMatchIndex checks each proof step sits on the side the leaf index
// implies.
func sidesMatchIndex(proof merkle.Proof, leafCount, leafIndex int) bool {
	path, err := merkle.ProofPath(leafCount, leafIndex)
	if err != nil || len(path) != len(proof) {
		return false
	}
	for level, sibling := range path {
		want := merkle.Right
		if sibling < leafIndex>>level {
			want = merkle.Left
		}
		if proof[level].Side != want {
			return false
		}
	}
	return true
}
