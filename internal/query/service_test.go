package query

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuangxuetwelve/docu-cat/internal/embedding"
	"github.com/shuangxuetwelve/docu-cat/internal/store"
)

const testSHA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

type fakeEmbedder struct {
	calls  int
	intent embedding.Intent
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string, intent embedding.Intent) ([]float32, error) {
	f.calls++
	f.intent = intent
	return f.vector, f.err
}

type fakeChunks struct {
	store.ChunkStore
	results   []store.ScoredRecord
	count     int
	gotVector []float32
	gotTopK   int
}

func (f *fakeChunks) Search(ctx context.Context, vector []float32, topK int) ([]store.ScoredRecord, error) {
	f.gotVector = vector
	f.gotTopK = topK
	if topK < len(f.results) {
		return f.results[:topK], nil
	}
	return f.results, nil
}

func (f *fakeChunks) Count(ctx context.Context) (int, error) { return f.count, nil }

type fakeHandle struct {
	chunks *fakeChunks
	sha    string
}

func (f *fakeHandle) Chunks() store.ChunkStore { return f.chunks }

func (f *fakeHandle) Checkpoint() (string, error) {
	if f.sha == "" {
		return "", store.ErrNotInitialized
	}
	return f.sha, nil
}

func testService(embedder *fakeEmbedder, handle *fakeHandle) *Service {
	return NewService(embedder, handle, slog.New(slog.DiscardHandler))
}

func TestSearch_ReturnsRankedMatches(t *testing.T) {
	chunks := &fakeChunks{results: []store.ScoredRecord{
		{Record: store.Record{FilePath: "a.py", ChunkIndex: 0, Text: "alpha"}, Score: 0.91},
		{Record: store.Record{FilePath: "b.py", ChunkIndex: 2, Text: "beta"}, Score: 0.54},
	}}
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	svc := testService(embedder, &fakeHandle{chunks: chunks, sha: testSHA})

	matches, err := svc.Search(context.Background(), "how does alpha work", 5)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "a.py", matches[0].FilePath)
	assert.Equal(t, 0.91, matches[0].Score)
	assert.Equal(t, 2, matches[1].ChunkIndex)
	assert.Equal(t, embedding.IntentQuery, embedder.intent)
	assert.Equal(t, embedder.vector, chunks.gotVector)
	assert.Equal(t, 5, chunks.gotTopK)
}

func TestSearch_ValidatesBeforeEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc := testService(embedder, &fakeHandle{chunks: &fakeChunks{}, sha: testSHA})

	_, err := svc.Search(context.Background(), "valid", -3)
	assert.ErrorIs(t, err, ErrInvalidTopK)

	_, err = svc.Search(context.Background(), "valid", 0)
	assert.ErrorIs(t, err, ErrInvalidTopK, "zero is not a positive count")

	_, err = svc.Search(context.Background(), "   \n", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	assert.Zero(t, embedder.calls, "invalid input must not reach the embedder")
}

func TestSearch_UninitializedStore(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc := testService(embedder, &fakeHandle{chunks: &fakeChunks{}})

	_, err := svc.Search(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, store.ErrNotInitialized)
	assert.Zero(t, embedder.calls)
}

func TestSearch_EmbedderErrorPropagates(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("quota exhausted")}
	svc := testService(embedder, &fakeHandle{chunks: &fakeChunks{}, sha: testSHA})

	_, err := svc.Search(context.Background(), "anything", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exhausted")
}

func TestInfo_ReportsCommitAndCount(t *testing.T) {
	svc := testService(&fakeEmbedder{}, &fakeHandle{chunks: &fakeChunks{count: 42}, sha: testSHA})

	status, err := svc.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testSHA, status.Commit)
	assert.Equal(t, 42, status.Chunks)
}

func TestInfo_UninitializedStore(t *testing.T) {
	svc := testService(&fakeEmbedder{}, &fakeHandle{chunks: &fakeChunks{}})

	_, err := svc.Info(context.Background())
	assert.ErrorIs(t, err, store.ErrNotInitialized)
}
