// Package syncer drives the chunk index through full builds and incremental
// updates while keeping the checkpoint honest: the recorded commit only
// advances when every file that needed work was processed successfully.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shuangxuetwelve/docu-cat/internal/chunker"
	"github.com/shuangxuetwelve/docu-cat/internal/embedding"
	"github.com/shuangxuetwelve/docu-cat/internal/repo"
	"github.com/shuangxuetwelve/docu-cat/internal/store"
)

// embedTimeout bounds the embedding calls for a single file so one stuck
// request cannot hang a whole run.
const embedTimeout = 60 * time.Second

// FileSource lists and reads the files of the repository being indexed.
// Eligible applies the same exclusion rules ListFiles applies (ignore
// patterns, skipped directories, size cap) to a single path, so incremental
// runs and full builds agree on what is indexable.
type FileSource interface {
	ListFiles(ctx context.Context) ([]string, error)
	ReadFile(ctx context.Context, path string) (string, error)
	Exists(ctx context.Context, path string) (bool, error)
	Eligible(ctx context.Context, path string) (bool, error)
}

// Differ answers commit questions: the current head and the paths that
// changed between two commits.
type Differ interface {
	Head(ctx context.Context) (string, error)
	ChangedPaths(ctx context.Context, fromSHA, toSHA string) ([]string, error)
}

// Embedder turns chunk texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string, intent embedding.Intent) ([][]float32, error)
}

// StoreHandle is the slice of store.Handle the engine needs.
type StoreHandle interface {
	Chunks() store.ChunkStore
	Checkpoint() (string, error)
	WriteCheckpoint(sha string) error
	Initialized() (bool, error)
	Purge(ctx context.Context) error
}

// Engine runs index builds against one repository and one store.
type Engine struct {
	source   FileSource
	differ   Differ
	splitter *chunker.Splitter
	embedder Embedder
	store    StoreHandle
	logger   *slog.Logger
}

// NewEngine wires an Engine from its collaborators. A nil logger falls back
// to slog.Default().
func NewEngine(source FileSource, differ Differ, splitter *chunker.Splitter, embedder Embedder, handle StoreHandle, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source:   source,
		differ:   differ,
		splitter: splitter,
		embedder: embedder,
		store:    handle,
		logger:   logger,
	}
}

// FileFailure records one file the run could not process.
type FileFailure struct {
	Path   string
	Reason string
}

// Result summarizes one Init or Update run.
type Result struct {
	Mode               string // "init" or "update"
	OldSHA             string // empty for init
	NewSHA             string
	FilesScanned       int
	FilesProcessed     int
	FilesSkipped       int
	FilesFailed        int
	ChunksDeleted      int
	ChunksAdded        int
	Failures           []FileFailure
	CheckpointAdvanced bool
	Duration           time.Duration
}

// Init builds the index from scratch. With force it first purges any
// existing index; without it an already initialized store is an error.
// The checkpoint is written only when every file succeeded.
func (e *Engine) Init(ctx context.Context, force bool) (*Result, error) {
	start := time.Now()

	initialized, err := e.store.Initialized()
	if err != nil {
		return nil, err
	}
	if initialized && !force {
		return nil, store.ErrAlreadyInitialized
	}
	if force {
		if err := e.store.Purge(ctx); err != nil {
			return nil, fmt.Errorf("purge index: %w", err)
		}
	}

	// Capture the head before reading any file so a commit landing mid-run
	// leaves the checkpoint behind rather than ahead of the indexed content.
	head, err := e.differ.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve head commit: %w", err)
	}

	paths, err := e.source.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	sort.Strings(paths)

	result := &Result{Mode: "init", NewSHA: head, FilesScanned: len(paths)}
	e.logger.Info("initial index build started", "head", head, "files", len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !chunker.Supported(path) {
			result.FilesSkipped++
			continue
		}
		added, err := e.indexFile(ctx, path)
		switch {
		case errors.Is(err, repo.ErrBinary):
			result.FilesSkipped++
		case err != nil:
			e.recordFailure(result, path, err)
		default:
			result.FilesProcessed++
			result.ChunksAdded += added
		}
	}

	e.finish(result, head)
	result.Duration = time.Since(start)
	return result, nil
}

// Update brings the index from the checkpointed commit to targetSHA, or to
// the current head when targetSHA is empty. Only files reported changed
// between the two commits are touched; an empty change set still advances
// the checkpoint. The checkpoint moves only when every changed file was
// handled successfully.
func (e *Engine) Update(ctx context.Context, targetSHA string) (*Result, error) {
	start := time.Now()

	oldSHA, err := e.store.Checkpoint()
	if err != nil {
		return nil, err
	}

	target := targetSHA
	if target == "" {
		target, err = e.differ.Head(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve head commit: %w", err)
		}
	}

	result := &Result{Mode: "update", OldSHA: oldSHA, NewSHA: target}
	if target == oldSHA {
		e.logger.Info("index already at target commit", "commit", target)
		result.CheckpointAdvanced = true
		result.Duration = time.Since(start)
		return result, nil
	}

	changed, err := e.differ.ChangedPaths(ctx, oldSHA, target)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", oldSHA, target, err)
	}
	sort.Strings(changed)
	result.FilesScanned = len(changed)
	e.logger.Info("incremental update started", "from", oldSHA, "to", target, "changed", len(changed))

	for _, path := range changed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Old chunks go first so a modified file is fully replaced and a
		// deleted file leaves nothing behind.
		deleted, err := e.store.Chunks().DeleteByFile(ctx, path)
		if err != nil {
			e.recordFailure(result, path, fmt.Errorf("delete stale chunks: %w", err))
			continue
		}
		result.ChunksDeleted += deleted

		exists, err := e.source.Exists(ctx, path)
		if err != nil {
			e.recordFailure(result, path, fmt.Errorf("stat: %w", err))
			continue
		}
		if !exists {
			result.FilesProcessed++
			continue
		}
		eligible, err := e.source.Eligible(ctx, path)
		if err != nil {
			e.recordFailure(result, path, fmt.Errorf("check eligibility: %w", err))
			continue
		}
		if !eligible || !chunker.Supported(path) {
			result.FilesSkipped++
			continue
		}

		added, err := e.indexFile(ctx, path)
		switch {
		case errors.Is(err, repo.ErrBinary):
			result.FilesSkipped++
		case err != nil:
			e.recordFailure(result, path, err)
		default:
			result.FilesProcessed++
			result.ChunksAdded += added
		}
	}

	e.finish(result, target)
	result.Duration = time.Since(start)
	return result, nil
}

// indexFile reads, chunks, embeds, and stores one file and returns the number
// of chunks written. Any previously stored chunks for the path are removed
// first so a retried file never keeps stale rows.
func (e *Engine) indexFile(ctx context.Context, path string) (int, error) {
	content, err := e.source.ReadFile(ctx, path)
	if err != nil {
		return 0, err
	}

	if _, err := e.store.Chunks().DeleteByFile(ctx, path); err != nil {
		return 0, fmt.Errorf("delete stale chunks: %w", err)
	}

	texts, ok := e.splitter.SplitFile(path, content)
	if !ok || len(texts) == 0 {
		return 0, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()
	vectors, err := e.embedder.Embed(embedCtx, texts, embedding.IntentDocument)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embed: got %d vectors for %d chunks", len(vectors), len(texts))
	}

	records := make([]store.Record, len(texts))
	for i, text := range texts {
		records[i] = store.Record{
			FilePath:   path,
			ChunkIndex: i,
			Text:       text,
			Embedding:  vectors[i],
		}
	}
	if err := e.store.Chunks().Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	return len(records), nil
}

func (e *Engine) recordFailure(result *Result, path string, err error) {
	result.FilesFailed++
	result.Failures = append(result.Failures, FileFailure{Path: path, Reason: err.Error()})
	e.logger.Warn("file not indexed", "path", path, "error", err)
}

// finish advances the checkpoint when the run was clean and logs the outcome
// either way. A dirty run leaves the old checkpoint so the next update
// revisits the failed files.
func (e *Engine) finish(result *Result, sha string) {
	if result.FilesFailed > 0 {
		e.logger.Warn("checkpoint not advanced",
			"mode", result.Mode, "failed", result.FilesFailed, "commit", sha)
		return
	}
	if err := e.store.WriteCheckpoint(sha); err != nil {
		result.FilesFailed++
		result.Failures = append(result.Failures, FileFailure{Path: store.CheckpointFile, Reason: err.Error()})
		e.logger.Error("checkpoint write failed", "error", err)
		return
	}
	result.CheckpointAdvanced = true
	e.logger.Info("index run complete",
		"mode", result.Mode,
		"commit", sha,
		"processed", result.FilesProcessed,
		"skipped", result.FilesSkipped,
		"chunks_added", result.ChunksAdded,
		"chunks_deleted", result.ChunksDeleted)
}
