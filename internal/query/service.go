// Package query answers similarity questions against an existing chunk index.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shuangxuetwelve/docu-cat/internal/embedding"
	"github.com/shuangxuetwelve/docu-cat/internal/store"
)

// DefaultTopK is the number of matches returned when the caller does not ask
// for a specific count.
const DefaultTopK = 10

var (
	ErrEmptyQuery  = errors.New("query text is empty")
	ErrInvalidTopK = errors.New("top-k must be a positive integer")
)

// Embedder turns one query string into a vector.
type Embedder interface {
	EmbedOne(ctx context.Context, text string, intent embedding.Intent) ([]float32, error)
}

// Handle is the slice of store.Handle the service needs.
type Handle interface {
	Chunks() store.ChunkStore
	Checkpoint() (string, error)
}

// Service embeds query text and retrieves the closest stored chunks.
type Service struct {
	embedder Embedder
	store    Handle
	logger   *slog.Logger
}

// NewService wires a Service. A nil logger falls back to slog.Default().
func NewService(embedder Embedder, handle Handle, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{embedder: embedder, store: handle, logger: logger}
}

// Match is one retrieved chunk with its similarity score.
type Match struct {
	FilePath   string  `json:"file_path"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Search returns up to topK chunks closest to the query text, best first.
// topK must be positive; callers that mean "the default" pass DefaultTopK.
// Input is validated before any embedding call is made.
func (s *Service) Search(ctx context.Context, text string, topK int) ([]Match, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopK, topK)
	}

	if _, err := s.store.Checkpoint(); err != nil {
		return nil, err
	}

	vector, err := s.embedder.EmbedOne(ctx, text, embedding.IntentQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := s.store.Chunks().Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	matches := make([]Match, len(scored))
	for i, r := range scored {
		matches[i] = Match{
			FilePath:   r.FilePath,
			ChunkIndex: r.ChunkIndex,
			Text:       r.Text,
			Score:      r.Score,
		}
	}
	s.logger.Debug("query answered", "top_k", topK, "matches", len(matches))
	return matches, nil
}

// Status reports the indexed commit and the number of stored chunks.
type Status struct {
	Commit string `json:"commit"`
	Chunks int    `json:"chunks"`
}

// Info returns the index status. An uninitialized or corrupted store
// surfaces the store's own error.
func (s *Service) Info(ctx context.Context) (*Status, error) {
	sha, err := s.store.Checkpoint()
	if err != nil {
		return nil, err
	}
	count, err := s.store.Chunks().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	return &Status{Commit: sha, Chunks: count}, nil
}
