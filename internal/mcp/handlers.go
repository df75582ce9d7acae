package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shuangxuetwelve/docu-cat/internal/query"
	"github.com/shuangxuetwelve/docu-cat/internal/store"
)

// makeQueryHandler creates the query_index tool handler. Invalid input and an
// uninitialized index come back as tool results rather than protocol errors
// so the client can relay them to the user.
func makeQueryHandler(svc *query.Service) func(
	context.Context, *mcp.CallToolRequest, QueryIndexInput,
) (*mcp.CallToolResult, QueryIndexOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input QueryIndexInput) (
		*mcp.CallToolResult, QueryIndexOutput, error,
	) {
		// An omitted top_k arrives as 0; the service itself only accepts
		// positive counts.
		topK := input.TopK
		if topK == 0 {
			topK = query.DefaultTopK
		}
		matches, err := svc.Search(ctx, input.Query, topK)
		switch {
		case errors.Is(err, query.ErrEmptyQuery), errors.Is(err, query.ErrInvalidTopK):
			return nil, QueryIndexOutput{Results: []QueryResult{}, Message: err.Error()}, nil
		case errors.Is(err, store.ErrNotInitialized):
			return nil, QueryIndexOutput{
				Results: []QueryResult{},
				Message: "No index found. Run `docu-cat init` in the repository first.",
			}, nil
		case err != nil:
			return nil, QueryIndexOutput{}, fmt.Errorf("query index: %w", err)
		}

		results := make([]QueryResult, len(matches))
		for i, m := range matches {
			results[i] = QueryResult{
				FilePath:   m.FilePath,
				ChunkIndex: m.ChunkIndex,
				Text:       m.Text,
				Score:      m.Score,
			}
		}
		out := QueryIndexOutput{Results: results}
		if len(results) == 0 {
			out.Message = "No matching chunks found. Try broader search terms."
		}
		return nil, out, nil
	}
}

// makeStatusHandler creates the index_status tool handler.
func makeStatusHandler(svc *query.Service) func(
	context.Context, *mcp.CallToolRequest, IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IndexStatusInput) (
		*mcp.CallToolResult, IndexStatusOutput, error,
	) {
		status, err := svc.Info(ctx)
		switch {
		case errors.Is(err, store.ErrNotInitialized):
			return nil, IndexStatusOutput{
				Initialized: false,
				Message:     "No index found. Run `docu-cat init` in the repository first.",
			}, nil
		case err != nil:
			return nil, IndexStatusOutput{}, fmt.Errorf("index status: %w", err)
		}

		return nil, IndexStatusOutput{
			Initialized: true,
			Commit:      status.Commit,
			Chunks:      status.Chunks,
		}, nil
	}
}
