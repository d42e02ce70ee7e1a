package anchor

import (
	"context"
	"fmt"

	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
	"github.com/datatrails/go-datatrails-common/logger"
)

// CBORAnchor stores checkpoints as plain CBOR. It is only as tamper resistant
// as the EntryLog underneath it.
type CBORAnchor struct {
	log     logger.Logger
	entries EntryLog
	codec   dtcbor.CBORCodec
}

func NewCBORAnchor(log logger.Logger, entries EntryLog) (*CBORAnchor, error) {
	codec, err := NewCheckpointCodec()
	if err != nil {
		return nil, err
	}
	return &CBORAnchor{log: log, entries: entries, codec: codec}, nil
}

func (a *CBORAnchor) Publish(ctx context.Context, cp Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}
	data, err := a.codec.MarshalCBOR(cp)
	if err != nil {
		return err
	}
	seq, err := a.entries.Append(ctx, data)
	if err != nil {
		return err
	}
	a.log.Infof("anchored checkpoint %d: commitment %s, %d leaves", seq, cp.CommitmentID, cp.LeafCount)
	return nil
}

func (a *CBORAnchor) Current(ctx context.Context) (Checkpoint, error) {
	data, found, err := a.entries.Last(ctx)
	if err != nil {
		return Checkpoint{}, err
	}
	if !found {
		return Checkpoint{}, ErrNoCheckpoint
	}
	return a.decode(data)
}

func (a *CBORAnchor) History(ctx context.Context) ([]Checkpoint, error) {
	all, err := a.entries.Entries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Checkpoint, 0, len(all))
	for i, data := range all {
		cp, err := a.decode(data)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, cp)
	}
	return out, nil
}

func (a *CBORAnchor) decode(data []byte) (Checkpoint, error) {
	var cp Checkpoint
	if err := a.codec.UnmarshalInto(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %v", ErrCheckpointInvalid, err)
	}
	if err := cp.Validate(); err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}
