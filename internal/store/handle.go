package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFile guards the store against concurrent synchronization runs.
const LockFile = ".lock"

// Backend selects the chunk collection implementation.
type Backend string

const (
	// BackendSQLite is the embedded index, stored inside the store
	// directory. The default.
	BackendSQLite Backend = "sqlite"

	// BackendQdrant keeps chunks in a Qdrant server; the checkpoint and
	// lock still live in the local store directory.
	BackendQdrant Backend = "qdrant"
)

// Options configure Open.
type Options struct {
	Backend Backend

	// Create makes the store directory when absent. Initialization sets
	// it; update and query paths require the directory to exist.
	Create bool

	// Exclusive acquires the advisory write lock. Synchronization runs
	// set it; read-only opens do not.
	Exclusive bool

	// Qdrant connection settings, used only with BackendQdrant.
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string
}

// Handle is an open store: the directory, its chunk collection, and (for
// exclusive opens) the advisory lock. Every operation takes an explicit
// handle; there is no process-wide store state.
type Handle struct {
	dir    string
	chunks ChunkStore
	lock   *flock.Flock
}

// Dir returns the store directory for a repository root.
func Dir(repoRoot string) string {
	return filepath.Join(repoRoot, DirName)
}

// Open opens (or with opts.Create, creates) the store directory and its
// chunk collection. A second exclusive open while the lock is held fails
// fast with ErrStoreBusy.
func Open(dir string, opts Options) (*Handle, error) {
	if opts.Backend == "" {
		opts.Backend = BackendSQLite
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if !opts.Create {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNotInitialized, dir)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat store directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", ErrCorrupted, dir)
	}

	h := &Handle{dir: dir}

	if opts.Exclusive {
		h.lock = flock.New(filepath.Join(dir, LockFile))
		locked, err := h.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire store lock: %w", err)
		}
		if !locked {
			return nil, ErrStoreBusy
		}
	}

	chunks, err := openBackend(dir, opts)
	if err != nil {
		h.unlock()
		return nil, err
	}
	h.chunks = chunks
	return h, nil
}

func openBackend(dir string, opts Options) (ChunkStore, error) {
	switch opts.Backend {
	case BackendSQLite:
		return openSQLite(dir)
	case BackendQdrant:
		return openQdrant(opts.QdrantHost, opts.QdrantPort, opts.QdrantCollection)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// Chunks returns the chunk collection.
func (h *Handle) Chunks() ChunkStore { return h.chunks }

// Checkpoint returns the commit the store reflects. ErrNotInitialized when
// no checkpoint exists, ErrCorrupted when one exists but cannot be read.
func (h *Handle) Checkpoint() (string, error) {
	return readCheckpoint(h.dir)
}

// WriteCheckpoint records the commit the store now reflects.
func (h *Handle) WriteCheckpoint(sha string) error {
	return writeCheckpoint(h.dir, sha)
}

// Initialized reports whether the store has a readable checkpoint. A store
// directory without a checkpoint is treated as uninitialized, forcing the
// full-initialization path.
func (h *Handle) Initialized() (bool, error) {
	_, err := h.Checkpoint()
	if errors.Is(err, ErrNotInitialized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Purge discards every chunk and the checkpoint. This is the only
// destructive path in the system; only forced reinitialization calls it.
func (h *Handle) Purge(ctx context.Context) error {
	if err := h.chunks.Purge(ctx); err != nil {
		return fmt.Errorf("purge chunks: %w", err)
	}
	err := os.Remove(filepath.Join(h.dir, CheckpointFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}

// Close releases the chunk collection and the lock, if held.
func (h *Handle) Close() error {
	err := h.chunks.Close()
	h.unlock()
	return err
}

func (h *Handle) unlock() {
	if h.lock != nil {
		_ = h.lock.Unlock()
		h.lock = nil
	}
}
