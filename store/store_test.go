package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklekv/leaf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
)

// recordingWriter counts individual puts so PutAll's fallback can be checked.
type recordingWriter struct {
	puts []string
}

func (w *recordingWriter) Put(_ context.Context, key, _ string) error {
	w.puts = append(w.puts, key)
	return nil
}

func newLevelDB(t *testing.T, opts ...LevelDBOption) *LevelDB {
	logger.New("NOOP")
	s, err := OpenLevelDB(logger.Sugar.WithServiceName("store"), filepath.Join(t.TempDir(), "store"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	stores := map[string]func(t *testing.T) Store{
		"memory":  func(t *testing.T) Store { return NewMemoryStore() },
		"leveldb": func(t *testing.T) Store { return newLevelDB(t) },
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)

			_, found, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, s.Put(ctx, "k1", "a"))
			require.NoError(t, s.Put(ctx, "empty", ""))

			v, found, err := s.Get(ctx, "k1")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "a", v)

			v, found, err = s.Get(ctx, "empty")
			require.NoError(t, err)
			assert.True(t, found, "an empty value is still present")
			assert.Equal(t, "", v)

			// the store is untrusted, overwrites are allowed
			require.NoError(t, s.Put(ctx, "k1", "zzz"))
			v, _, err = s.Get(ctx, "k1")
			require.NoError(t, err)
			assert.Equal(t, "zzz", v)

			require.NoError(t, PutAll(ctx, s, []leaf.Record{{Key: "k2", Value: "b"}, {Key: "k3", Value: "c"}}))
			v, found, err = s.Get(ctx, "k3")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "c", v)
		})
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, s := range map[string]Store{"memory": NewMemoryStore(), "leveldb": newLevelDB(t)} {
		_, _, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrStoreUnavailable, name)
		err = s.Put(ctx, "k", "v")
		assert.ErrorIs(t, err, ErrStoreUnavailable, name)
	}
}

func TestPutAllFallback(t *testing.T) {
	w := &recordingWriter{}
	err := PutAll(context.Background(), w, []leaf.Record{{Key: "a"}, {Key: "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, w.puts)
}

func TestLevelDBKeyPrefix(t *testing.T) {
	ctx := context.Background()
	logger.New("NOOP")

	db, err := leveldb.OpenFile(filepath.Join(t.TempDir(), "shared"), nil)
	require.NoError(t, err)
	defer db.Close()

	a := NewLevelDB(logger.Sugar.WithServiceName("store"), db, WithKeyPrefix("a/"))
	b := NewLevelDB(logger.Sugar.WithServiceName("store"), db, WithKeyPrefix("b/"))
	require.NoError(t, a.Put(ctx, "k", "from-a"))

	_, found, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	raw, err := db.Get([]byte("a/k"), nil)
	require.NoError(t, err)
	assert.Equal(t, "from-a", string(raw))

	// a borrowed handle is not closed
	require.NoError(t, a.Close())
	_, err = db.Get([]byte("a/k"), nil)
	require.NoError(t, err)
}

func TestLevelDBPersists(t *testing.T) {
	ctx := context.Background()
	logger.New("NOOP")
	path := filepath.Join(t.TempDir(), "store")

	s, err := OpenLevelDB(logger.Sugar.WithServiceName("store"), path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", "v"))
	require.NoError(t, s.Close())

	s, err = OpenLevelDB(logger.Sugar.WithServiceName("store"), path)
	require.NoError(t, err)
	defer s.Close()
	v, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)
}
