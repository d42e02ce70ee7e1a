package anchor

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	entryKeyPrefix = "anchor/"
	seqBytes       = 8
)

// EntryLog is an append only log of opaque entries. Entries are numbered from
// zero in append order.
type EntryLog interface {
	Append(ctx context.Context, entry []byte) (uint64, error)
	// Last returns the most recent entry, found is false for an empty log.
	Last(ctx context.Context) (entry []byte, found bool, err error)
	Entries(ctx context.Context) ([][]byte, error)
}

// MemoryLog is an EntryLog held in memory.
type MemoryLog struct {
	mu      sync.RWMutex
	entries [][]byte
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Append(ctx context.Context, entry []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAnchorUnavailable, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, append([]byte(nil), entry...))
	return uint64(len(l.entries) - 1), nil
}

func (l *MemoryLog) Last(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrAnchorUnavailable, err)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return nil, false, nil
	}
	return append([]byte(nil), l.entries[len(l.entries)-1]...), true, nil
}

func (l *MemoryLog) Entries(ctx context.Context) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnchorUnavailable, err)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([][]byte, len(l.entries))
	for i, e := range l.entries {
		out[i] = append([]byte(nil), e...)
	}
	return out, nil
}

// LevelDBLog is a persistent EntryLog. Entries are keyed by their big endian
// sequence number so iteration order is append order.
type LevelDBLog struct {
	log logger.Logger
	db  *leveldb.DB

	// mu serialises appends so sequence numbers are never reused.
	mu   sync.Mutex
	next uint64
}

func OpenLevelDBLog(log logger.Logger, path string) (*LevelDBLog, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrAnchorUnavailable, path, err)
	}
	l := &LevelDBLog{log: log, db: db}

	it := db.NewIterator(util.BytesPrefix([]byte(entryKeyPrefix)), nil)
	if it.Last() {
		l.next = binary.BigEndian.Uint64(it.Key()[len(entryKeyPrefix):]) + 1
	}
	err = it.Error()
	it.Release()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: scan %s: %v", ErrAnchorUnavailable, path, err)
	}
	log.Debugf("anchor log %s: %d entries", path, l.next)
	return l, nil
}

func entryKey(seq uint64) []byte {
	k := make([]byte, 0, len(entryKeyPrefix)+seqBytes)
	k = append(k, entryKeyPrefix...)
	return binary.BigEndian.AppendUint64(k, seq)
}

func (l *LevelDBLog) Append(ctx context.Context, entry []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAnchorUnavailable, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.next
	if err := l.db.Put(entryKey(seq), entry, &opt.WriteOptions{Sync: true}); err != nil {
		return 0, fmt.Errorf("%w: append %d: %v", ErrAnchorUnavailable, seq, err)
	}
	l.next++
	return seq, nil
}

func (l *LevelDBLog) Last(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrAnchorUnavailable, err)
	}
	it := l.db.NewIterator(util.BytesPrefix([]byte(entryKeyPrefix)), nil)
	defer it.Release()
	if !it.Last() {
		if err := it.Error(); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrAnchorUnavailable, err)
		}
		return nil, false, nil
	}
	return append([]byte(nil), it.Value()...), true, nil
}

func (l *LevelDBLog) Entries(ctx context.Context) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnchorUnavailable, err)
	}
	it := l.db.NewIterator(util.BytesPrefix([]byte(entryKeyPrefix)), nil)
	defer it.Release()
	var out [][]byte
	for it.Next() {
		out = append(out, append([]byte(nil), it.Value()...))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnchorUnavailable, err)
	}
	return out, nil
}

func (l *LevelDBLog) Close() error {
	return l.db.Close()
}
