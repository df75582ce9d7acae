package store

import "errors"

var (
	// ErrNotInitialized means no store exists yet; the caller should run a
	// full initialization first.
	ErrNotInitialized = errors.New("store not initialized, run init first")

	// ErrAlreadyInitialized means a non-forced init found an existing store.
	ErrAlreadyInitialized = errors.New("store already initialized")

	// ErrCorrupted means store artifacts exist but cannot be read. It is
	// deliberately distinct from ErrNotInitialized so corruption is never
	// mistaken for a fresh repository.
	ErrCorrupted = errors.New("store corrupted")

	// ErrStoreBusy means another synchronization run holds the store lock.
	ErrStoreBusy = errors.New("store busy: another sync run holds the lock")

	// ErrDimensionMismatch means a vector of the wrong size reached the
	// store.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnreachable means a remote backend could not be contacted.
	ErrUnreachable = errors.New("vector index unreachable")
)
