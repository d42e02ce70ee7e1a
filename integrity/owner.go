package integrity

import (
	"context"
	"fmt"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklekv/anchor"
	"github.com/forestrie/go-merklekv/leaf"
	"github.com/forestrie/go-merklekv/merkle"
	"github.com/forestrie/go-merklekv/store"
)

// Owner commits datasets: it builds the tree, uploads the records and
// anchors the root.
type Owner struct {
	log    logger.Logger
	store  store.Writer
	anchor anchor.Publisher

	buildOpts []merkle.Option
	now       func() time.Time
}

type OwnerOption func(*Owner)

// WithBuildOptions sets the hash algorithm and parallelism used for new
// commitments.
func WithBuildOptions(opts ...merkle.Option) OwnerOption {
	return func(o *Owner) {
		o.buildOpts = append(o.buildOpts, opts...)
	}
}

// WithClock replaces time.Now for checkpoint timestamps.
func WithClock(now func() time.Time) OwnerOption {
	return func(o *Owner) {
		o.now = now
	}
}

func NewOwner(log logger.Logger, st store.Writer, an anchor.Publisher, opts ...OwnerOption) *Owner {
	o := &Owner{
		log:    log,
		store:  st,
		anchor: an,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Build validates the records and builds their commitment. It has no side
// effects. Records are committed in the order given, keys must be unique.
func (o *Owner) Build(records []leaf.Record) (*Commitment, error) {
	start := o.now()
	c, err := newCommitment("", records, o.buildOpts...)
	if err != nil {
		return nil, err
	}
	o.log.Debugf("built commitment %s: %d leaves, height %d, %v", c.ID(), c.LeafCount(), c.tree.Height(), o.now().Sub(start))
	return c, nil
}

// Upload writes every committed record to the store.
func (o *Owner) Upload(ctx context.Context, c *Commitment) error {
	if err := store.PutAll(ctx, o.store, c.records); err != nil {
		return fmt.Errorf("upload commitment %s: %w", c.ID(), err)
	}
	o.log.Debugf("uploaded %d records for commitment %s", len(c.records), c.ID())
	return nil
}

// Publish anchors the commitment's checkpoint. It may be retried on its own
// after a failure, the records need not be uploaded again.
func (o *Owner) Publish(ctx context.Context, c *Commitment) error {
	if err := o.anchor.Publish(ctx, c.Checkpoint(o.now())); err != nil {
		return fmt.Errorf("publish commitment %s: %w", c.ID(), err)
	}
	return nil
}

// Commit runs Build, Upload and Publish in turn. When Upload or Publish fails
// the built commitment is still returned with the error so the failed phase
// can be retried.
func (o *Owner) Commit(ctx context.Context, records []leaf.Record) (*Commitment, error) {
	c, err := o.Build(records)
	if err != nil {
		return nil, err
	}
	if err = o.Upload(ctx, c); err != nil {
		o.log.Infof("commit: %v", err)
		return c, err
	}
	if err = o.Publish(ctx, c); err != nil {
		o.log.Infof("commit: %v", err)
		return c, err
	}
	o.log.Infof("committed %d records, commitment %s, root %s", c.LeafCount(), c.ID(), c.Root())
	return c, nil
}
