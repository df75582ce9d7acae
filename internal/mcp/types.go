// Package mcp exposes the chunk index to MCP clients over stdio.
package mcp

// QueryIndexInput defines the input parameters for the query_index tool.
type QueryIndexInput struct {
	// Query is the natural-language question to search the index with.
	Query string `json:"query" jsonschema:"required,description=Natural-language query to match against indexed file chunks"`
	// TopK is the maximum number of chunks to return.
	TopK int `json:"top_k,omitempty" jsonschema:"minimum=1,maximum=100,default=10,description=Maximum number of chunks to return"`
}

// QueryIndexOutput contains the ranked query matches.
type QueryIndexOutput struct {
	// Results is the list of matching chunks, best first.
	Results []QueryResult `json:"results"`
	// Message provides informational context (e.g., "No matching chunks found").
	Message string `json:"message,omitempty"`
}

// QueryResult is one retrieved chunk.
type QueryResult struct {
	// FilePath is the repository-relative path the chunk came from.
	FilePath string `json:"file_path"`
	// ChunkIndex is the chunk's position within its file.
	ChunkIndex int `json:"chunk_index"`
	// Text is the chunk content.
	Text string `json:"text"`
	// Score is the cosine similarity to the query (higher is closer).
	Score float64 `json:"score"`
}

// IndexStatusInput defines the input parameters for the index_status tool.
// The tool takes no parameters.
type IndexStatusInput struct{}

// IndexStatusOutput reports the state of the chunk index.
type IndexStatusOutput struct {
	// Initialized indicates whether an index exists yet.
	Initialized bool `json:"initialized"`
	// Commit is the repository commit the index reflects.
	Commit string `json:"commit,omitempty"`
	// Chunks is the number of stored chunks.
	Chunks int `json:"chunks"`
	// Message provides informational context for uninitialized stores.
	Message string `json:"message,omitempty"`
}
