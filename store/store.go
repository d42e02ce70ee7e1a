// Package store provides the untrusted key/value store records are uploaded to
// after they are committed.
//
// Nothing read back from a Store is trusted. Clients verify every value
// against an anchored root before relying on it.
package store

import (
	"context"
	"errors"

	"github.com/forestrie/go-merklekv/leaf"
)

var (
	ErrStoreUnavailable = errors.New("the store is unavailable")
)

type Reader interface {
	// Get returns the current value for key. found is false, with a nil
	// error, when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
}

type Writer interface {
	Put(ctx context.Context, key, value string) error
}

type Store interface {
	Reader
	Writer
}

// BatchWriter is implemented by stores that can write many records
// atomically.
type BatchWriter interface {
	PutBatch(ctx context.Context, records []leaf.Record) error
}

// PutAll writes every record, using a single batch when the store supports
// it. The first failing key is named in the returned error.
func PutAll(ctx context.Context, w Writer, records []leaf.Record) error {
	if bw, ok := w.(BatchWriter); ok {
		return bw.PutBatch(ctx, records)
	}
	for _, r := range records {
		if err := w.Put(ctx, r.Key, r.Value); err != nil {
			return err
		}
	}
	return nil
}
