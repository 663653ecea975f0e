package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	f, err := NewFile(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewMemory(),
		"file":   f,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get("missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set("a", []byte("one")))
			got, err := store.Get("a")
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), got)

			require.NoError(t, store.Set("a", []byte("two")))
			got, err = store.Get("a")
			require.NoError(t, err)
			assert.Equal(t, []byte("two"), got)

			require.NoError(t, store.Delete("a"))
			_, err = store.Get("a")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing key is not an error.
			assert.NoError(t, store.Delete("a"))
		})
	}
}

func TestStoreKeysByPrefix(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set("scheduleCache_2023_semester1_F", []byte("[]")))
			require.NoError(t, store.Set("scheduleCache_2023_semester2_F", []byte("[]")))
			require.NoError(t, store.Set("scheduleCacheTimestamp_2023_semester1_F", []byte("1")))
			require.NoError(t, store.Set("other", []byte("x")))

			keys, err := store.Keys("scheduleCache_")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{
				"scheduleCache_2023_semester1_F",
				"scheduleCache_2023_semester2_F",
			}, keys)

			keys, err = store.Keys("nosuchprefix_")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	src := []byte("abc")
	require.NoError(t, m.Set("k", src))
	src[0] = 'z'

	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	got[0] = 'z'
	again, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestFilePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	f, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Set("scheduleGroupsOrder", []byte("[3,1,2]")))
	require.NoError(t, f.Set("doomed", []byte("x")))
	require.NoError(t, f.Delete("doomed"))

	reopened, err := NewFile(path)
	require.NoError(t, err)

	got, err := reopened.Get("scheduleGroupsOrder")
	require.NoError(t, err)
	assert.Equal(t, []byte("[3,1,2]"), got)

	_, err = reopened.Get("doomed")
	assert.ErrorIs(t, err, ErrNotFound)
}
