package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSHA = "0123456789abcdef0123456789abcdef01234567"

func TestValidSHA(t *testing.T) {
	assert.True(t, ValidSHA(testSHA))
	assert.True(t, ValidSHA("ABCDEF0123456789abcdef0123456789abcdef01"))
	assert.False(t, ValidSHA(""))
	assert.False(t, ValidSHA("abc123"))                                   // too short
	assert.False(t, ValidSHA(testSHA+"ab"))                               // too long
	assert.False(t, ValidSHA("0123456789abcdef0123456789abcdef0123456g")) // non-hex
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeCheckpoint(dir, testSHA))

	sha, err := readCheckpoint(dir)
	require.NoError(t, err)
	assert.Equal(t, testSHA, sha)
}

func TestCheckpoint_Missing(t *testing.T) {
	_, err := readCheckpoint(t.TempDir())
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestCheckpoint_Corrupted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CheckpointFile), []byte("{not json"), 0o644))

	_, err := readCheckpoint(dir)
	require.ErrorIs(t, err, ErrCorrupted)
}

func TestCheckpoint_InvalidSHAInFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CheckpointFile),
		[]byte(`{"last_update_sha": "not-a-sha"}`), 0o644))

	_, err := readCheckpoint(dir)
	require.ErrorIs(t, err, ErrCorrupted)
}

func TestWriteCheckpoint_RejectsInvalidSHA(t *testing.T) {
	require.Error(t, writeCheckpoint(t.TempDir(), "short"))
}

func TestSortScored_TieBreak(t *testing.T) {
	results := []ScoredRecord{
		{Record: Record{FilePath: "b.py", ChunkIndex: 0}, Score: 0.5},
		{Record: Record{FilePath: "a.py", ChunkIndex: 2}, Score: 0.5},
		{Record: Record{FilePath: "a.py", ChunkIndex: 1}, Score: 0.5},
		{Record: Record{FilePath: "z.py", ChunkIndex: 9}, Score: 0.9},
	}

	sortScored(results)

	assert.Equal(t, "z.py", results[0].FilePath)
	assert.Equal(t, "a.py", results[1].FilePath)
	assert.Equal(t, 1, results[1].ChunkIndex)
	assert.Equal(t, "a.py", results[2].FilePath)
	assert.Equal(t, 2, results[2].ChunkIndex)
	assert.Equal(t, "b.py", results[3].FilePath)
}
