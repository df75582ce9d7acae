package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// DefaultCollection is the Qdrant collection used when none is configured.
const DefaultCollection = "docu_cat_chunks"

// pointNamespace makes point IDs a pure function of (file_path, chunk_index),
// so re-upserting a chunk overwrites rather than duplicates it.
var pointNamespace = uuid.MustParse("8b5a1f86-1c6e-4f0a-9f43-3ac1d1f6f9de")

// qdrantStore implements ChunkStore against a Qdrant server. The checkpoint
// and lock stay in the local store directory; only chunk data is remote.
type qdrantStore struct {
	client     *qdrant.Client
	collection string
}

// openQdrant connects, verifies health with exponential backoff, and ensures
// the collection exists with cosine distance and a file_path payload index.
func openQdrant(host string, port int, collection string) (*qdrantStore, error) {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 6334
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &qdrantStore{client: client, collection: collection}

	ctx := context.Background()
	if err := s.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if err := s.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func (s *qdrantStore) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		result, err := s.client.HealthCheck(ctx)
		if err != nil {
			return err
		}
		if result == nil || result.Title == "" {
			return fmt.Errorf("health check returned invalid response")
		}
		return nil
	}, backoff.WithContext(b, ctx))
}

// ensureCollection is idempotent.
func (s *qdrantStore) ensureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	// Without this index, delete-by-file filters scan the whole collection.
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      "file_path",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("create file_path index: %w", err)
	}
	return nil
}

// pointID derives the deterministic UUID for a chunk.
func pointID(path string, index int) string {
	return uuid.NewSHA1(pointNamespace, fmt.Appendf(nil, "%s#%d", path, index)).String()
}

func (s *qdrantStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Embedding) != Dimension {
			return fmt.Errorf("%w: %s[%d] has %d dimensions, expected %d",
				ErrDimensionMismatch, r.FilePath, r.ChunkIndex, len(r.Embedding), Dimension)
		}
	}

	// Batch upserts in groups of 100.
	const batchSize = 100
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))
		batch := records[i:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for j, r := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(pointID(r.FilePath, r.ChunkIndex)),
				Vectors: qdrant.NewVectors(r.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"file_path":   r.FilePath,
					"chunk_index": r.ChunkIndex,
					"text":        r.Text,
				}),
			}
		}
		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

func (s *qdrantStore) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

func (s *qdrantStore) DeleteByFile(ctx context.Context, path string) (int, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("file_path", path)},
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
	})
	if err != nil {
		return 0, fmt.Errorf("count chunks for %s: %w", path, err)
	}
	if count == 0 {
		return 0, nil
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("delete chunks for %s: %w", path, err)
	}
	return int(count), nil
}

func (s *qdrantStore) Search(ctx context.Context, vector []float32, topK int) ([]ScoredRecord, error) {
	if len(vector) != Dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), Dimension)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d", topK)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	scored := make([]ScoredRecord, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		scored = append(scored, ScoredRecord{
			Record: Record{
				FilePath:   payload["file_path"].GetStringValue(),
				ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
				Text:       payload["text"].GetStringValue(),
			},
			Score: float64(result.Score),
		})
	}

	sortScored(scored)
	return scored, nil
}

func (s *qdrantStore) Count(ctx context.Context) (int, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return int(count), nil
}

func (s *qdrantStore) Purge(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return s.ensureCollection(ctx)
}

func (s *qdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

var _ ChunkStore = (*qdrantStore)(nil)
