package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestIntent_TaskType(t *testing.T) {
	assert.Equal(t, "RETRIEVAL_DOCUMENT", IntentDocument.taskType())
	assert.Equal(t, "RETRIEVAL_QUERY", IntentQuery.taskType())
}

func TestNewClient_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := NewClient(context.Background(), 0)
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(genai.APIError{Code: 429}))
	assert.True(t, isRetryable(genai.APIError{Code: 503}))
	assert.False(t, isRetryable(genai.APIError{Code: 400}))
	assert.False(t, isRetryable(assert.AnError))
}
