package integrity

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklekv/anchor"
	"github.com/forestrie/go-merklekv/leaf"
	"github.com/forestrie/go-merklekv/merkle"
	"github.com/forestrie/go-merklekv/store"
)

// Protocol is the owner and client wired to the same store and anchor. The
// Protocol is the client's ProofSource, proofs come from whichever held
// commitment the anchored checkpoint names.
type Protocol struct {
	log    logger.Logger
	owner  *Owner
	client *Client

	latest atomic.Pointer[Commitment]

	// mu guards pending, a commitment whose upload or publish failed or is
	// still in progress, and previous, the commitment latest replaced.
	mu       sync.Mutex
	pending  *Commitment
	uploaded bool
	previous *Commitment

	// held indexes latest, previous and pending by id. A checkpoint is
	// visible in the anchor before Publish returns, so a query can name the
	// pending commitment, and one that read the checkpoint just before a
	// commit completed can still name the previous one.
	heldMu sync.RWMutex
	held   map[string]*Commitment
}

func NewProtocol(log logger.Logger, st store.Store, an anchor.Anchor, opts ...OwnerOption) *Protocol {
	p := &Protocol{
		log:   log,
		owner: NewOwner(log, st, an, opts...),
		held:  map[string]*Commitment{},
	}
	p.client = NewClient(log, st, an, p)
	return p
}

func (p *Protocol) Owner() *Owner { return p.owner }

func (p *Protocol) Client() *Client { return p.client }

// Latest returns the most recent fully committed commitment, nil if there is
// none.
func (p *Protocol) Latest() *Commitment { return p.latest.Load() }

// Adopt makes c the commitment proofs are served from. It is used to resume
// from a snapshot.
func (p *Protocol) Adopt(c *Commitment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest.Store(c)
	p.previous = nil
	p.hold(c, p.pending)
}

// Pending returns the commitment awaiting Retry and whether its records are
// already uploaded. c is nil when nothing is pending.
func (p *Protocol) Pending() (c *Commitment, uploaded bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending, p.uploaded
}

// Resume makes c the pending commitment, as if an earlier Commit had failed
// after (uploaded true) or before its upload. Retry completes it.
func (p *Protocol) Resume(c *Commitment, uploaded bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending, p.uploaded = c, uploaded
	p.hold(c, p.latest.Load(), p.previous)
}

// Commit builds, uploads and anchors records and returns the new root. If
// upload or publish fails the commitment is held as pending, Retry resumes
// from the failed phase. Latest keeps returning the previous commitment until
// the new one is anchored.
func (p *Protocol) Commit(ctx context.Context, records []leaf.Record) (merkle.Digest, error) {
	c, err := p.owner.Build(records)
	if err != nil {
		return merkle.Digest{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending, p.uploaded = c, false
	p.hold(c, p.latest.Load(), p.previous)
	return p.complete(ctx)
}

// Retry resumes a commitment whose upload or publish failed.
func (p *Protocol) Retry(ctx context.Context) (merkle.Digest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return merkle.Digest{}, ErrNothingToRetry
	}
	return p.complete(ctx)
}

// complete runs the outstanding phases of the pending commitment. p.mu must
// be held.
func (p *Protocol) complete(ctx context.Context) (merkle.Digest, error) {
	c := p.pending
	if !p.uploaded {
		if err := p.owner.Upload(ctx, c); err != nil {
			p.log.Infof("commit pending: %v", err)
			return c.Root(), err
		}
		p.uploaded = true
	}
	if err := p.owner.Publish(ctx, c); err != nil {
		p.log.Infof("commit pending: %v", err)
		return c.Root(), err
	}
	if prev := p.latest.Load(); prev != c {
		p.previous = prev
	}
	p.latest.Store(c)
	p.pending, p.uploaded = nil, false
	p.hold(c, p.previous)
	p.log.Infof("committed %d records, commitment %s, root %s", c.LeafCount(), c.ID(), c.Root())
	return c.Root(), nil
}

// hold replaces the set of commitments proofs can be served from. p.mu must
// be held.
func (p *Protocol) hold(cs ...*Commitment) {
	held := make(map[string]*Commitment, len(cs))
	for _, c := range cs {
		if c != nil {
			held[c.ID()] = c
		}
	}
	p.heldMu.Lock()
	p.held = held
	p.heldMu.Unlock()
}

// QueryAndVerify reads key from the store and verifies it against the anchor.
func (p *Protocol) QueryAndVerify(ctx context.Context, key string) (QueryResult, error) {
	return p.client.QueryAndVerify(ctx, key)
}

// Proof serves proofs from the latest commitment.
func (p *Protocol) Proof(ctx context.Context, key string) (ProofResponse, error) {
	c := p.latest.Load()
	if c == nil {
		return ProofResponse{}, ErrNoCommitment
	}
	return c.Proof(ctx, key)
}

// ProofFor serves the proof for key from the held commitment named
// commitmentID.
func (p *Protocol) ProofFor(ctx context.Context, commitmentID, key string) (ProofResponse, error) {
	p.heldMu.RLock()
	c, ok := p.held[commitmentID]
	p.heldMu.RUnlock()
	if !ok {
		return ProofResponse{}, fmt.Errorf("%w: %s", ErrUnknownCommitment, commitmentID)
	}
	return c.Proof(ctx, key)
}
