package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CheckpointFile holds the commit the store currently reflects, as JSON:
//
//	{"last_update_sha": "<40-hex commit id>"}
const CheckpointFile = "store.json"

type checkpoint struct {
	LastUpdateSHA string `json:"last_update_sha"`
}

// ValidSHA reports whether s is a full 40-hex-character commit identifier.
func ValidSHA(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// readCheckpoint loads the checkpoint from dir. A missing file is
// ErrNotInitialized; a present but unparsable or invalid file is ErrCorrupted.
func readCheckpoint(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, CheckpointFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotInitialized
	}
	if err != nil {
		return "", fmt.Errorf("%w: read checkpoint: %v", ErrCorrupted, err)
	}

	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return "", fmt.Errorf("%w: parse checkpoint: %v", ErrCorrupted, err)
	}
	if !ValidSHA(cp.LastUpdateSHA) {
		return "", fmt.Errorf("%w: checkpoint holds invalid commit id %q", ErrCorrupted, cp.LastUpdateSHA)
	}
	return cp.LastUpdateSHA, nil
}

// writeCheckpoint persists the checkpoint atomically (temp file + rename) so
// a crash never leaves a half-written checkpoint behind.
func writeCheckpoint(dir, sha string) error {
	if !ValidSHA(sha) {
		return fmt.Errorf("invalid commit id %q", sha)
	}

	data, err := json.Marshal(checkpoint{LastUpdateSHA: sha})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(dir, CheckpointFile+".*")
	if err != nil {
		return fmt.Errorf("create checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, CheckpointFile)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}
