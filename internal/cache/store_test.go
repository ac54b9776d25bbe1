package cache_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/wpforge/internal/cache"
)

func openTestStore(testInstance *testing.T) *cache.Store {
	testInstance.Helper()
	store, openError := cache.Open(filepath.Join(testInstance.TempDir(), "nested", "cache.db"))
	require.NoError(testInstance, openError)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, store.Close())
	})
	return store
}

func TestStoreRoundTripsEntries(testInstance *testing.T) {
	store := openTestStore(testInstance)
	executionContext := context.Background()

	_, found, getError := store.Get(executionContext, "styles", "digest")
	require.NoError(testInstance, getError)
	require.False(testInstance, found)

	require.NoError(testInstance, store.Put(executionContext, "styles", "digest", []byte("body{}")))
	require.NoError(testInstance, store.Put(executionContext, "styles", "digest", []byte("a{}")))
	require.NoError(testInstance, store.Put(executionContext, "scripts", "digest", nil))

	value, found, getError := store.Get(executionContext, "styles", "digest")
	require.NoError(testInstance, getError)
	require.True(testInstance, found)
	require.Equal(testInstance, "a{}", string(value))

	value, found, getError = store.Get(executionContext, "scripts", "digest")
	require.NoError(testInstance, getError)
	require.True(testInstance, found)
	require.Empty(testInstance, value)

	count, countError := store.Count(executionContext)
	require.NoError(testInstance, countError)
	require.Equal(testInstance, int64(2), count)
}

func TestStoreClearRemovesEverything(testInstance *testing.T) {
	store := openTestStore(testInstance)
	executionContext := context.Background()
	require.NoError(testInstance, store.Put(executionContext, "styles", "one", []byte("1")))
	require.NoError(testInstance, store.Put(executionContext, "scripts", "two", []byte("2")))

	removed, clearError := store.Clear(executionContext)
	require.NoError(testInstance, clearError)
	require.Equal(testInstance, int64(2), removed)

	_, found, getError := store.Get(executionContext, "styles", "one")
	require.NoError(testInstance, getError)
	require.False(testInstance, found)
}

func TestStoreReopensExistingDatabase(testInstance *testing.T) {
	databasePath := filepath.Join(testInstance.TempDir(), "cache.db")
	store, openError := cache.Open(databasePath)
	require.NoError(testInstance, openError)
	require.NoError(testInstance, store.Put(context.Background(), "styles", "key", []byte("kept")))
	require.NoError(testInstance, store.Close())

	reopened, reopenError := cache.Open(databasePath)
	require.NoError(testInstance, reopenError)
	defer reopened.Close()

	value, found, getError := reopened.Get(context.Background(), "styles", "key")
	require.NoError(testInstance, getError)
	require.True(testInstance, found)
	require.Equal(testInstance, "kept", string(value))
	require.Equal(testInstance, databasePath, reopened.Path())
}

func TestNilStoreIsDisabled(testInstance *testing.T) {
	var store *cache.Store
	executionContext := context.Background()

	require.NoError(testInstance, store.Put(executionContext, "styles", "key", []byte("value")))
	_, found, getError := store.Get(executionContext, "styles", "key")
	require.NoError(testInstance, getError)
	require.False(testInstance, found)

	removed, clearError := store.Clear(executionContext)
	require.NoError(testInstance, clearError)
	require.Zero(testInstance, removed)
	require.NoError(testInstance, store.Close())
	require.Empty(testInstance, store.Path())
}

func TestOpenRequiresPath(testInstance *testing.T) {
	_, openError := cache.Open("  ")
	require.ErrorIs(testInstance, openError, cache.ErrCachePathMissing)
}

func TestKeySeparatesPartBoundaries(testInstance *testing.T) {
	require.Equal(testInstance, cache.Key([]byte("ab"), []byte("c")), cache.Key([]byte("ab"), []byte("c")))
	require.NotEqual(testInstance, cache.Key([]byte("ab"), []byte("c")), cache.Key([]byte("a"), []byte("bc")))
	require.Len(testInstance, cache.Key([]byte("x")), 64)
}
