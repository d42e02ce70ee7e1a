package integrity

import (
	"context"
	"fmt"

	"github.com/forestrie/go-merklekv/anchor"
	"github.com/forestrie/go-merklekv/kvtesting"
	"github.com/forestrie/go-merklekv/store"
)

// flakyStore fails puts and gets while failing is set.
type flakyStore struct {
	kvtesting.TestCallCounter
	*store.MemoryStore
	failing bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: store.NewMemoryStore()}
}

func (s *flakyStore) Put(ctx context.Context, key, value string) error {
	s.IncMethodCall("Put")
	if s.failing {
		return fmt.Errorf("%w: put %q: connection refused", store.ErrStoreUnavailable, key)
	}
	return s.MemoryStore.Put(ctx, key, value)
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.IncMethodCall("Get")
	if s.failing {
		return "", false, fmt.Errorf("%w: get %q: connection refused", store.ErrStoreUnavailable, key)
	}
	return s.MemoryStore.Get(ctx, key)
}

// flakyAnchor fails publish and current while failing is set.
type flakyAnchor struct {
	kvtesting.TestCallCounter
	anchor.Anchor
	failing bool
}

func (a *flakyAnchor) Publish(ctx context.Context, cp anchor.Checkpoint) error {
	a.IncMethodCall("Publish")
	if a.failing {
		return fmt.Errorf("%w: rpc timeout", anchor.ErrAnchorUnavailable)
	}
	return a.Anchor.Publish(ctx, cp)
}

func (a *flakyAnchor) Current(ctx context.Context) (anchor.Checkpoint, error) {
	a.IncMethodCall("Current")
	if a.failing {
		return anchor.Checkpoint{}, fmt.Errorf("%w: rpc timeout", anchor.ErrAnchorUnavailable)
	}
	return a.Anchor.Current(ctx)
}

// staticProofs serves a fixed response, used to hand the client forged proofs.
type staticProofs struct {
	resp ProofResponse
	err  error
}

func (s staticProofs) ProofFor(context.Context, string, string) (ProofResponse, error) {
	return s.resp, s.err
}

// gatedAnchor appends a checkpoint, then holds Publish open until release is
// closed. published is closed once the checkpoint is visible.
type gatedAnchor struct {
	anchor.Anchor
	published chan struct{}
	release   chan struct{}
}

func (a *gatedAnchor) Publish(ctx context.Context, cp anchor.Checkpoint) error {
	if err := a.Anchor.Publish(ctx, cp); err != nil {
		return err
	}
	if a.published != nil {
		close(a.published)
		<-a.release
	}
	return nil
}
