package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testVector returns a deterministic 1536-dim vector seeded by base.
func testVector(base float32) []float32 {
	v := make([]float32, Dimension)
	for i := range v {
		v[i] = base
	}
	v[0] = 1 // keep vectors non-degenerate and distinguishable
	return v
}

func openTestStore(t *testing.T) *sqliteStore {
	t.Helper()
	s, err := openSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_UpsertAndCount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	records := []Record{
		{FilePath: "a.py", ChunkIndex: 0, Text: "def first():", Embedding: testVector(0.1)},
		{FilePath: "a.py", ChunkIndex: 1, Text: "def second():", Embedding: testVector(0.2)},
		{FilePath: "b.md", ChunkIndex: 0, Text: "# Title", Embedding: testVector(0.3)},
	}
	require.NoError(t, s.Upsert(ctx, records))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSQLite_UpsertRejectsWrongDimension(t *testing.T) {
	s := openTestStore(t)

	err := s.Upsert(context.Background(), []Record{
		{FilePath: "a.py", ChunkIndex: 0, Text: "x", Embedding: []float32{1, 2, 3}},
	})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSQLite_DeleteByFile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []Record{
		{FilePath: "a.py", ChunkIndex: 0, Text: "a0", Embedding: testVector(0.1)},
		{FilePath: "a.py", ChunkIndex: 1, Text: "a1", Embedding: testVector(0.2)},
		{FilePath: "b.py", ChunkIndex: 0, Text: "b0", Embedding: testVector(0.3)},
	}))

	deleted, err := s.DeleteByFile(ctx, "a.py")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Deleting a path with no records is a no-op, not an error.
	deleted, err = s.DeleteByFile(ctx, "missing.py")
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestSQLite_SearchOrderingAndDeterminism(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	near := testVector(0.5)
	far := testVector(-0.5)
	require.NoError(t, s.Upsert(ctx, []Record{
		{FilePath: "near.py", ChunkIndex: 0, Text: "close", Embedding: near},
		{FilePath: "far.py", ChunkIndex: 0, Text: "distant", Embedding: far},
	}))

	results, err := s.Search(ctx, near, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near.py", results[0].FilePath)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)

	// Repeated calls return the same order.
	again, err := s.Search(ctx, near, 2)
	require.NoError(t, err)
	assert.Equal(t, results, again)

	// Smaller top-k is a prefix of larger top-k.
	one, err := s.Search(ctx, near, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, results[0], one[0])
}

func TestSQLite_SearchEmptyStore(t *testing.T) {
	s := openTestStore(t)

	results, err := s.Search(context.Background(), testVector(0.1), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLite_SearchValidatesInput(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Search(ctx, []float32{1, 2}, 5)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = s.Search(ctx, testVector(0.1), 0)
	require.Error(t, err)
}

func TestSQLite_Purge(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []Record{
		{FilePath: "a.py", ChunkIndex: 0, Text: "a0", Embedding: testVector(0.1)},
	}))
	require.NoError(t, s.Purge(ctx))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHandle_OpenMissingWithoutCreate(t *testing.T) {
	dir := t.TempDir() + "/nonexistent/.docucat"

	_, err := Open(dir, Options{})
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestHandle_ExclusiveLock(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, Options{Create: true, Exclusive: true})
	require.NoError(t, err)
	defer first.Close()

	_, err = Open(dir, Options{Exclusive: true})
	require.ErrorIs(t, err, ErrStoreBusy)
}

func TestHandle_InitializedLifecycle(t *testing.T) {
	dir := t.TempDir()

	h, err := Open(dir, Options{Create: true})
	require.NoError(t, err)
	defer h.Close()

	ok, err := h.Initialized()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, h.WriteCheckpoint(testSHA))

	ok, err = h.Initialized()
	require.NoError(t, err)
	assert.True(t, ok)

	sha, err := h.Checkpoint()
	require.NoError(t, err)
	assert.Equal(t, testSHA, sha)

	require.NoError(t, h.Purge(context.Background()))

	ok, err = h.Initialized()
	require.NoError(t, err)
	assert.False(t, ok)
}
