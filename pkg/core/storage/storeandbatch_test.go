package storage

import (
	"bytes"
	"reflect"
	"runtime"
	"sort"
	"testing"

	"github.com/nspcc-dev/starkroot/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dbSetup struct {
	name   string
	create func(testing.TB) Store
}

type dbTestFunction func(*testing.T, Store)

func testStoreGetNonExistent(t *testing.T, s Store) {
	key := []byte("sparse")

	_, err := s.Get(key)
	assert.Equal(t, err, ErrKeyNotFound)
}

func testStorePutChangeSet(t *testing.T, s Store) {
	require.NoError(t, s.PutChangeSet(map[string][]byte{
		"foo": []byte("bar"),
		"baz": []byte("qux"),
	}))
	v, err := s.Get([]byte("foo"))
	require.NoError(t, err)
	require.Equal(t, []byte("bar"), v)

	require.NoError(t, s.PutChangeSet(map[string][]byte{
		"foo": []byte("rab"),
		"baz": nil,
	}))
	v, err = s.Get([]byte("foo"))
	require.NoError(t, err)
	require.Equal(t, []byte("rab"), v)
	_, err = s.Get([]byte("baz"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func pushSeekDataSet(t *testing.T, s Store) []KeyValue {
	// Use the same set of kvs to test Seek with different prefix/start values.
	kvs := []KeyValue{
		{[]byte("10"), []byte("bar")},
		{[]byte("11"), []byte("bara")},
		{[]byte("20"), []byte("barb")},
		{[]byte("21"), []byte("barc")},
		{[]byte("22"), []byte("bard")},
		{[]byte("30"), []byte("bare")},
		{[]byte("31"), []byte("barf")},
	}
	puts := make(map[string][]byte, len(kvs))
	for _, v := range kvs {
		puts[string(v.Key)] = v.Value
	}
	require.NoError(t, s.PutChangeSet(puts))
	return kvs
}

func testStoreSeek(t *testing.T, s Store) {
	kvs := pushSeekDataSet(t, s)
	check := func(t *testing.T, goodprefix, start []byte, goodkvs []KeyValue, backwards bool, cont func(k, v []byte) bool) {
		// Seek result expected to be sorted in an ascending (for forwards seeking) or descending (for backwards seeking) way.
		sort.Slice(goodkvs, func(i, j int) bool {
			res := bytes.Compare(goodkvs[i].Key, goodkvs[j].Key)
			if backwards {
				return res > 0
			}
			return res < 0
		})

		rng := SeekRange{
			Prefix:    goodprefix,
			Start:     start,
			Backwards: backwards,
		}
		actual := make([]KeyValue, 0, len(goodkvs))
		s.Seek(rng, func(k, v []byte) bool {
			actual = append(actual, KeyValue{
				Key:   bytes.Clone(k),
				Value: bytes.Clone(v),
			})
			if cont == nil {
				return true
			}
			return cont(k, v)
		})
		assert.Equal(t, goodkvs, actual)
	}

	t.Run("non-empty prefix, empty start", func(t *testing.T) {
		t.Run("forwards", func(t *testing.T) {
			goodprefix := []byte("2")
			goodkvs := []KeyValue{kvs[2], kvs[3], kvs[4]}
			check(t, goodprefix, nil, goodkvs, false, nil)
		})
		t.Run("backwards", func(t *testing.T) {
			goodprefix := []byte("2")
			goodkvs := []KeyValue{kvs[2], kvs[3], kvs[4]}
			check(t, goodprefix, nil, goodkvs, true, nil)
		})
		t.Run("early stop", func(t *testing.T) {
			goodprefix := []byte("2")
			goodkvs := []KeyValue{kvs[2], kvs[3]}
			check(t, goodprefix, nil, goodkvs, false, func(k, v []byte) bool {
				return string(k) < "21"
			})
		})
	})

	t.Run("non-empty prefix, non-empty start", func(t *testing.T) {
		goodprefix := []byte("2")
		start := []byte("1")
		goodkvs := []KeyValue{kvs[3], kvs[4]}
		check(t, goodprefix, start, goodkvs, false, nil)
	})

	t.Run("empty prefix, non-empty start", func(t *testing.T) {
		start := []byte("21")
		goodkvs := []KeyValue{kvs[3], kvs[4], kvs[5], kvs[6]}
		check(t, nil, start, goodkvs, false, nil)
	})

	t.Run("empty prefix, empty start", func(t *testing.T) {
		t.Run("forwards", func(t *testing.T) {
			goodkvs := make([]KeyValue, len(kvs))
			copy(goodkvs, kvs)
			check(t, nil, nil, goodkvs, false, nil)
		})
		t.Run("backwards", func(t *testing.T) {
			goodkvs := make([]KeyValue, len(kvs))
			copy(goodkvs, kvs)
			check(t, nil, nil, goodkvs, true, nil)
		})
	})

	t.Run("missing prefix", func(t *testing.T) {
		check(t, []byte("4"), nil, []KeyValue{}, false, nil)
		check(t, []byte("4"), nil, []KeyValue{}, true, nil)
	})
}

func TestAllDBs(t *testing.T) {
	var DBs = []dbSetup{
		{"BoltDB", newBoltStoreForTesting},
		{"LevelDB", newLevelDBForTesting},
		{"Memory", func(testing.TB) Store { return NewMemoryStore() }},
	}
	var tests = []dbTestFunction{testStoreGetNonExistent, testStorePutChangeSet, testStoreSeek}
	for _, db := range DBs {
		for _, test := range tests {
			s := db.create(t)
			twrapper := func(t *testing.T) {
				test(t, s)
			}
			fname := runtime.FuncForPC(reflect.ValueOf(test).Pointer()).Name()
			t.Run(db.name+"/"+fname, twrapper)
			require.NoError(t, s.Close())
		}
	}
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(dbconfig.DBConfiguration{Type: dbconfig.InMemoryDB})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	s, err = NewStore(dbconfig.DBConfiguration{})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	_, err = NewStore(dbconfig.DBConfiguration{Type: "badger"})
	require.Error(t, err)
}

func TestAppendKey(t *testing.T) {
	require.Equal(t, []byte{0x03, 0x01, 0xaa, 0x01}, AppendKey(DataTrieNode, []byte{0xaa}, []byte{0x01}))
	require.Equal(t, []byte{0x04, 0x00, 0, 0, 0, 0, 0, 0, 1, 2}, AppendIndexKey(DataTrieHash, nil, 0x0102))

	// Scopes sharing a prefix don't share keys.
	short := AppendKey(DataTrieLeaf, []byte("a"), []byte{0, 1})
	long := AppendKey(DataTrieLeaf, []byte{'a', 0}, []byte{1})
	require.NotEqual(t, short, long)

	require.Panics(t, func() { AppendKey(DataTrieLeaf, make([]byte, MaxScopeLen+1), nil) })
	require.NotPanics(t, func() { AppendKey(DataTrieLeaf, make([]byte, MaxScopeLen), nil) })
}

func TestMemoryStoreLen(t *testing.T) {
	s := NewMemoryStore()
	require.Equal(t, 0, s.Len())
	require.NoError(t, s.PutChangeSet(map[string][]byte{"a": {1}, "b": {2}}))
	require.Equal(t, 2, s.Len())
}
