// Package store persists text chunks with embeddings and answers similarity
// queries. A store is a directory holding the chunk collection, the sync
// checkpoint file, and an advisory lock; the chunk collection itself is
// backend-agnostic (embedded SQLite index or a Qdrant server).
package store

import "context"

const (
	// DirName is the per-repository index directory.
	DirName = ".docucat"

	// Dimension is the fixed embedding size for every record in a store.
	Dimension = 1536
)

// Record is one indexed chunk. (FilePath, ChunkIndex) is unique within a
// store; callers delete a file's records before inserting replacements.
type Record struct {
	FilePath   string
	ChunkIndex int
	Text       string
	Embedding  []float32
}

// ScoredRecord is a search hit with its cosine similarity, higher is better.
type ScoredRecord struct {
	Record
	Score float64
}

// ChunkStore is the persistent chunk collection.
//
// Search orders by descending cosine similarity; ties break by ascending
// (FilePath, ChunkIndex) so repeated queries are deterministic and larger
// top-k results are prefix-consistent with smaller ones.
type ChunkStore interface {
	// Upsert inserts records. Callers are responsible for deleting stale
	// records for a file first; the store does not deduplicate.
	Upsert(ctx context.Context, records []Record) error

	// DeleteByFile removes every record for the path and returns how many
	// were deleted. A path with no records is not an error.
	DeleteByFile(ctx context.Context, path string) (int, error)

	// Search returns the topK records closest to vector.
	Search(ctx context.Context, vector []float32, topK int) ([]ScoredRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Purge removes every record. Only forced reinitialization calls this.
	Purge(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
