package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklekv/leaf"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const (
	DefaultKeyPrefix = "kv/"
)

type LevelDBOption func(*LevelDB)

// WithKeyPrefix namespaces every record key. It lets the record store share a
// database with other data.
func WithKeyPrefix(prefix string) LevelDBOption {
	return func(s *LevelDB) {
		s.prefix = []byte(prefix)
	}
}

// LevelDB is a persistent Store. All writes are synchronous.
type LevelDB struct {
	log    logger.Logger
	db     *leveldb.DB
	prefix []byte
	owned  bool
}

// OpenLevelDB opens (creating if needed) the database at path. The returned
// store owns the handle and Close closes it.
func OpenLevelDB(log logger.Logger, path string, opts ...LevelDBOption) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, path, err)
	}
	s := NewLevelDB(log, db, opts...)
	s.owned = true
	return s, nil
}

// NewLevelDB wraps an open database. The caller keeps ownership of db.
func NewLevelDB(log logger.Logger, db *leveldb.DB, opts ...LevelDBOption) *LevelDB {
	s := &LevelDB{
		log:    log,
		db:     db,
		prefix: []byte(DefaultKeyPrefix),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *LevelDB) dbKey(key string) []byte {
	k := make([]byte, 0, len(s.prefix)+len(key))
	k = append(k, s.prefix...)
	return append(k, key...)
}

func (s *LevelDB) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	v, err := s.db.Get(s.dbKey(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %q: %v", ErrStoreUnavailable, key, err)
	}
	return string(v), true, nil
}

func (s *LevelDB) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: put %q: %v", ErrStoreUnavailable, key, err)
	}
	if err := s.db.Put(s.dbKey(key), []byte(value), &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("%w: put %q: %v", ErrStoreUnavailable, key, err)
	}
	return nil
}

// PutBatch writes all records in one synchronous leveldb batch.
func (s *LevelDB) PutBatch(ctx context.Context, records []leaf.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	b := new(leveldb.Batch)
	for _, r := range records {
		b.Put(s.dbKey(r.Key), []byte(r.Value))
	}
	if err := s.db.Write(b, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("%w: batch of %d records: %v", ErrStoreUnavailable, len(records), err)
	}
	s.log.Debugf("store: wrote %d records", len(records))
	return nil
}

// Close releases the database if this store opened it.
func (s *LevelDB) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
