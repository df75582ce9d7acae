// Package repo enumerates and reads a repository's text-bearing files,
// honoring ignore rules and excluding the index's own directory.
package repo

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrBinary signals that a file is binary and must be skipped, not indexed.
// It is a skip signal, not a failure.
var ErrBinary = errors.New("binary file")

// maxFileSize is the largest file considered for indexing (1 MiB).
const maxFileSize = 1 << 20

// IgnoreFile lists extra directory patterns to skip, one per line.
const IgnoreFile = ".docucatignore"

// defaultSkipDirs are never traversed, in addition to hidden directories and
// the store directory itself.
var defaultSkipDirs = []string{
	".git",
	".docucat",
	"__pycache__",
	"node_modules",
	".venv",
	"venv",
	"env",
	".pytest_cache",
	".tox",
	"dist",
	"build",
	"vendor",
	".egg-info",
}

// Source lists and reads repository files. It is the engine's file
// enumeration and content boundary.
type Source struct {
	root    string
	ignores []string
}

// NewSource creates a Source rooted at the repository directory.
func NewSource(root string) (*Source, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve repository root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("repository root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %s is not a directory", abs)
	}
	return &Source{root: abs, ignores: loadIgnorePatterns(abs)}, nil
}

// Root returns the absolute repository root.
func (s *Source) Root() string { return s.root }

// ListFiles walks the repository and returns repository-relative paths
// (slash-separated) of every candidate file, in walk order. Ignored and
// oversized files, symlinks, hidden directories, and the store directory are
// excluded.
func (s *Source) ListFiles(ctx context.Context) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, the walk continues
		}

		if d.IsDir() {
			if path == s.root {
				return nil
			}
			name := d.Name()
			rel, _ := filepath.Rel(s.root, path)
			if s.skipDir(name, filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.Name() == IgnoreFile {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxFileSize {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk repository: %w", err)
	}
	return paths, nil
}

// ReadFile returns the content of a repository-relative path. Binary content
// (NUL byte within the first 8 KiB) returns ErrBinary.
func (s *Source) ReadFile(ctx context.Context, relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(relPath)))
	if err != nil {
		return "", err
	}

	probe := data
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		return "", fmt.Errorf("%s: %w", relPath, ErrBinary)
	}
	return string(data), nil
}

// Eligible reports whether a repository-relative path would be picked up by
// ListFiles: not under a skipped or ignored directory, not a symlink or the
// ignore file itself, and within the size cap. Incremental runs consult it
// so a changed-but-excluded file is not indexed through the side door.
func (s *Source) Eligible(ctx context.Context, relPath string) (bool, error) {
	rel := filepath.ToSlash(filepath.Clean(filepath.FromSlash(relPath)))
	parts := strings.Split(rel, "/")
	for i := 0; i < len(parts)-1; i++ {
		if s.skipDir(parts[i], strings.Join(parts[:i+1], "/")) {
			return false, nil
		}
	}
	if parts[len(parts)-1] == IgnoreFile {
		return false, nil
	}

	info, err := os.Lstat(filepath.Join(s.root, filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular() && info.Size() <= maxFileSize, nil
}

// Exists reports whether a repository-relative path currently exists as a
// regular file.
func (s *Source) Exists(ctx context.Context, relPath string) (bool, error) {
	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(relPath)))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (s *Source) skipDir(name, relPath string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, p := range defaultSkipDirs {
		if name == p {
			return true
		}
	}
	for _, p := range s.ignores {
		if name == p || strings.HasPrefix(relPath, p) {
			return true
		}
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}

// loadIgnorePatterns reads the optional ignore file from the repository root.
func loadIgnorePatterns(root string) []string {
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}
