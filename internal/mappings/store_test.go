package mappings

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/budgetbook/internal/model"
)

func mapping(fragment, cat, sub string) model.CategoryMapping {
	return model.CategoryMapping{MerchantFragment: fragment, Category: cat, SubCategory: sub}
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("csv", func(t *testing.T) {
		fn(t, NewFileStore(t.TempDir()))
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "mappings.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func TestStore_EmptyLog(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ms, err := s.LoadAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, ms)
	})
}

func TestStore_PreservesAppendOrder(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		want := []model.CategoryMapping{
			mapping("Amazon", "Shopping", "Online"),
			mapping("Amazon Prime", "Shopping", "Subscriptions"),
			mapping("Bakery, Corner", "Food", "Groceries"),
		}
		for _, m := range want {
			require.NoError(t, s.Append(ctx, m))
		}

		got, err := s.LoadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestStore_RejectsMalformed(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		assert.Error(t, s.Append(ctx, mapping("", "Food", "Groceries")))
		assert.Error(t, s.Append(ctx, mapping("Shop", " ", "Groceries")))
		assert.Error(t, s.Append(ctx, mapping("Shop\nEvil", "Food", "Groceries")))

		got, err := s.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, got, "rejected mappings must not be written")
	})
}

func TestFileStore_CacheInvalidatedOnAppend(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	require.NoError(t, s.Append(ctx, mapping("Shell", "Transport", "Fuel")))
	first, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Mutating the returned slice must not leak into the cache.
	first[0].Category = "Changed"

	require.NoError(t, s.Append(ctx, mapping("Rewe", "Food", "Groceries")))
	second, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "Transport", second[0].Category)
}

func TestFileStore_SeesAppendsFromAnotherStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	server := NewFileStore(dir)
	cli := NewFileStore(dir)

	got, err := server.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, cli.Append(ctx, mapping("Shell", "Transport", "Fuel")))
	got, err = server.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, cli.Append(ctx, mapping("Rewe", "Food", "Groceries")))
	got, err = server.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Rewe", got[1].MerchantFragment)
}

func TestFileStore_WritesHeaderOnce(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(dir)

	require.NoError(t, s.Append(ctx, mapping("A", "Food", "Groceries")))
	require.NoError(t, s.Append(ctx, mapping("B", "Food", "Groceries")))

	data, err := os.ReadFile(filepath.Join(dir, FilePath))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header))
	assert.Equal(t, Header+"\nA,Food,Groceries\nB,Food,Groceries\n", string(data))
}

func TestFileStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, mapping("Shop", "Food", "Groceries")))
		}()
	}
	wg.Wait()

	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestReadMappings_CorruptRow(t *testing.T) {
	_, err := readMappings(strings.NewReader(Header + "\nShop,,Groceries\n"))
	assert.ErrorContains(t, err, "row 2")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, closeFn, err := Open(BackendCSV, dir, "")
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	assert.NoError(t, closeFn())

	s, closeFn, err = Open(BackendSQLite, dir, filepath.Join(dir, "mappings", "mappings.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	assert.NoError(t, closeFn())

	_, _, err = Open("postgres", dir, "")
	assert.ErrorContains(t, err, "unknown mappings backend")
}
