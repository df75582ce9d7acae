// Package gitx provides the commit-diff boundary for local repositories by
// shelling out to git, the same diff the repository's own tooling sees.
package gitx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotARepository is returned when the directory is not inside a git
// work tree.
var ErrNotARepository = errors.New("not a git repository")

// Repo runs git commands against one repository.
type Repo struct {
	dir string
}

// Open verifies dir is a git work tree and returns a Repo for it.
func Open(ctx context.Context, dir string) (*Repo, error) {
	r := &Repo{dir: dir}
	out, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(out) != "true" {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, dir)
	}
	return r, nil
}

// Head returns the full commit id of HEAD.
func (r *Repo) Head(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ChangedPaths returns every path added, modified, or deleted between two
// commits. Renames appear as a delete of the old path and an add of the new
// one; no content-level rename tracking is attempted.
func (r *Repo) ChangedPaths(ctx context.Context, fromSHA, toSHA string) ([]string, error) {
	out, err := r.run(ctx, "diff", "--name-only", "--no-renames", fromSHA, toSHA)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", short(fromSHA), short(toSHA), err)
	}

	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
