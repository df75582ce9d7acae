package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/google/go-github/v81/github"
)

// Provider answers commit-diff and content questions for one hosted
// repository at a pinned commit.
type Provider struct {
	client *Client
	owner  string
	repo   string
	ref    string // commit or branch the content calls are pinned to
}

// NewProvider creates a Provider for owner/repo. ref pins content reads to a
// commit; an empty ref reads the default branch head.
func NewProvider(client *Client, owner, repo, ref string) *Provider {
	return &Provider{client: client, owner: owner, repo: repo, ref: ref}
}

// Head returns the repository's most recent commit id.
func (p *Provider) Head(ctx context.Context) (string, error) {
	commits, _, err := p.client.Repositories.ListCommits(ctx, p.owner, p.repo,
		&github.CommitsListOptions{
			ListOptions: github.ListOptions{PerPage: 1},
		})
	if err != nil {
		return "", fmt.Errorf("list commits: %w", err)
	}
	if len(commits) == 0 || commits[0].SHA == nil {
		return "", fmt.Errorf("no commits found in %s/%s", p.owner, p.repo)
	}
	return *commits[0].SHA, nil
}

// ChangedPaths returns every path added, modified, or deleted between two
// commits. A renamed file contributes both its old and new path, matching
// the delete-plus-add treatment of renames.
func (p *Provider) ChangedPaths(ctx context.Context, fromSHA, toSHA string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	opts := &github.ListOptions{PerPage: 100}
	for {
		comparison, resp, err := p.client.Repositories.CompareCommits(
			ctx, p.owner, p.repo, fromSHA, toSHA, opts)
		if err != nil {
			return nil, fmt.Errorf("compare %s..%s: %w", fromSHA, toSHA, err)
		}
		for _, f := range comparison.Files {
			add(f.GetFilename())
			add(f.GetPreviousFilename())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return paths, nil
}

// ListFiles returns every file path in the repository tree at the pinned ref.
func (p *Provider) ListFiles(ctx context.Context) ([]string, error) {
	ref := p.ref
	if ref == "" {
		head, err := p.Head(ctx)
		if err != nil {
			return nil, err
		}
		ref = head
	}

	tree, _, err := p.client.Git.GetTree(ctx, p.owner, p.repo, ref, true)
	if err != nil {
		return nil, fmt.Errorf("get tree at %s: %w", ref, err)
	}
	if tree.GetTruncated() {
		return nil, fmt.Errorf("tree at %s is truncated, repository too large for the trees API", ref)
	}

	var paths []string
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" {
			paths = append(paths, entry.GetPath())
		}
	}
	return paths, nil
}

// ReadFile fetches a file's content at the pinned ref.
func (p *Provider) ReadFile(ctx context.Context, path string) (string, error) {
	opts := &github.RepositoryContentGetOptions{Ref: p.ref}
	fileContent, _, _, err := p.client.Repositories.GetContents(ctx, p.owner, p.repo, path, opts)
	if err != nil {
		return "", fmt.Errorf("get contents of %s: %w", path, err)
	}
	if fileContent == nil {
		return "", fmt.Errorf("no file content returned for %s", path)
	}

	if fileContent.Content == nil {
		return "", fmt.Errorf("empty content for %s", path)
	}
	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return "", fmt.Errorf("decode content of %s: %w", path, err)
	}
	return string(content), nil
}

// Eligible always reports true: hosted enumeration lists every blob in the
// tree, so no path that exists is excluded from indexing.
func (p *Provider) Eligible(ctx context.Context, path string) (bool, error) {
	return true, nil
}

// Exists reports whether a file is present at the pinned ref.
func (p *Provider) Exists(ctx context.Context, path string) (bool, error) {
	opts := &github.RepositoryContentGetOptions{Ref: p.ref}
	fileContent, _, resp, err := p.client.Repositories.GetContents(ctx, p.owner, p.repo, path, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("get contents of %s: %w", path, err)
	}
	return fileContent != nil, nil
}
