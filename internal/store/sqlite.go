package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// dbFile is the embedded index inside the store directory.
const dbFile = "chunks.db"

const sqliteDDL = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS chunks (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path   TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    text        TEXT NOT NULL,
    UNIQUE(file_path, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[1536] distance_metric=cosine
);
`

// sqliteStore implements ChunkStore on SQLite + sqlite-vec, both tables in a
// single database file inside the store directory.
type sqliteStore struct {
	db *sql.DB
}

// openSQLite opens or creates the embedded index. An existing database file
// that cannot be opened or lacks a usable schema is reported as ErrCorrupted
// rather than silently re-created.
func openSQLite(dir string) (*sqliteStore, error) {
	path := filepath.Join(dir, dbFile)
	_, statErr := os.Stat(path)
	existed := statErr == nil

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if _, err := db.Exec(sqliteDDL); err != nil {
		db.Close()
		if existed {
			return nil, fmt.Errorf("%w: index schema: %v", ErrCorrupted, err)
		}
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Embedding) != 0 && len(r.Embedding) != Dimension {
			return fmt.Errorf("%w: %s[%d] has %d dimensions, expected %d",
				ErrDimensionMismatch, r.FilePath, r.ChunkIndex, len(r.Embedding), Dimension)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertChunk, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (file_path, chunk_index, text) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer insertChunk.Close()

	insertVec, err := tx.PrepareContext(ctx,
		"INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer insertVec.Close()

	for _, r := range records {
		res, err := insertChunk.ExecContext(ctx, r.FilePath, r.ChunkIndex, r.Text)
		if err != nil {
			return fmt.Errorf("insert chunk %s[%d]: %w", r.FilePath, r.ChunkIndex, err)
		}
		if len(r.Embedding) == 0 {
			continue
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		blob, err := sqlite_vec.SerializeFloat32(r.Embedding)
		if err != nil {
			return fmt.Errorf("serialize embedding for %s[%d]: %w", r.FilePath, r.ChunkIndex, err)
		}
		if _, err := insertVec.ExecContext(ctx, id, blob); err != nil {
			return fmt.Errorf("insert embedding for %s[%d]: %w", r.FilePath, r.ChunkIndex, err)
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) DeleteByFile(ctx context.Context, path string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM chunks WHERE file_path = ?", path)
	if err != nil {
		return 0, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, "DELETE FROM vec_chunks WHERE chunk_id = ?", id); err != nil {
			return 0, err
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE file_path = ?", path); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *sqliteStore) Search(ctx context.Context, vector []float32, topK int) ([]ScoredRecord, error) {
	if len(vector) != Dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), Dimension)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d", topK)
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("serialize query vector: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.file_path, c.chunk_index, c.text, v.distance
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, blob, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var results []ScoredRecord
	for rows.Next() {
		var r ScoredRecord
		var distance float64
		if err := rows.Scan(&r.FilePath, &r.ChunkIndex, &r.Text, &distance); err != nil {
			return nil, err
		}
		// vec0 cosine distance is 1 - similarity.
		r.Score = 1 - distance
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortScored(results)
	return results, nil
}

func (s *sqliteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

func (s *sqliteStore) Purge(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vec_chunks"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// sortScored orders by descending score, then ascending (file_path,
// chunk_index) so equal-score results are deterministic across calls.
func sortScored(results []ScoredRecord) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].FilePath != results[j].FilePath {
			return results[i].FilePath < results[j].FilePath
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
}

var _ ChunkStore = (*sqliteStore)(nil)
