// Package embedding wraps the Gemini embedding API behind a fixed-dimension,
// intent-aware client.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"
)

const (
	// Model is the Gemini model used for all embeddings.
	Model = "gemini-embedding-001"

	// Dimension is the fixed vector size for both document and query
	// embeddings. Mixing dimensionalities in one store is a contract
	// violation, so the client validates every response against it.
	Dimension = 1536

	// DefaultBatchSize bounds texts per request to stay under provider
	// payload limits.
	DefaultBatchSize = 100
)

var (
	// ErrMissingAPIKey is returned before any network call when the
	// credential is absent.
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY environment variable is not set")

	// ErrDimensionMismatch is returned when the provider yields a vector
	// of the wrong size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Intent selects the provider's embedding mode. Documents and queries are
// embedded asymmetrically and the two intents are never interchangeable.
type Intent int

const (
	// IntentDocument embeds text that will be stored and matched against.
	IntentDocument Intent = iota

	// IntentQuery embeds text used to search stored documents.
	IntentQuery
)

// taskType maps the intent to the Gemini task type.
func (i Intent) taskType() string {
	if i == IntentQuery {
		return "RETRIEVAL_QUERY"
	}
	return "RETRIEVAL_DOCUMENT"
}

// String implements fmt.Stringer for diagnostics.
func (i Intent) String() string {
	if i == IntentQuery {
		return "query"
	}
	return "document"
}

// Client generates fixed-dimension embeddings via the Gemini API. It batches
// requests and retries rate-limit and transient server errors with
// exponential backoff.
type Client struct {
	client    *genai.Client
	batchSize int
}

// NewClient creates a Client authenticated from GEMINI_API_KEY. It fails
// before any network call when the credential is missing. batchSize <= 0
// selects DefaultBatchSize.
func NewClient(ctx context.Context, batchSize int) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{client: client, batchSize: batchSize}, nil
}

// Embed returns one Dimension-length vector per input text, in input order.
// The intent selects the provider's document or query embedding mode.
func (c *Client) Embed(ctx context.Context, texts []string, intent Intent) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += c.batchSize {
		end := min(i+c.batchSize, len(texts))
		batch, err := c.embedBatchWithRetry(ctx, texts[i:end], intent)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// EmbedOne embeds a single text.
func (c *Client) EmbedOne(ctx context.Context, text string, intent Intent) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text}, intent)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// embedBatchWithRetry issues one EmbedContent call for a batch, retrying
// rate-limit (429) and server (5xx) errors with exponential backoff. Other
// errors are permanent for this call.
func (c *Client) embedBatchWithRetry(ctx context.Context, texts []string, intent Intent) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	dim := int32(Dimension)
	taskType := intent.taskType()
	var vectors [][]float32

	operation := func() error {
		resp, err := c.client.Models.EmbedContent(ctx, Model, contents, &genai.EmbedContentConfig{
			TaskType:             taskType,
			OutputDimensionality: &dim,
		})
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Embeddings) != len(texts) {
			return backoff.Permanent(fmt.Errorf("provider returned %d embeddings for %d texts",
				len(resp.Embeddings), len(texts)))
		}
		vectors = make([][]float32, len(resp.Embeddings))
		for i, emb := range resp.Embeddings {
			if len(emb.Values) != Dimension {
				return backoff.Permanent(fmt.Errorf("%w: got %d, expected %d",
					ErrDimensionMismatch, len(emb.Values), Dimension))
			}
			vectors[i] = emb.Values
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return vectors, nil
}

// isRetryable reports whether the error is a rate limit or transient server
// failure.
func isRetryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return false
}
