// Package main provides the docu-cat CLI for building, updating, and querying
// a repository chunk index.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shuangxuetwelve/docu-cat/internal/chunker"
	"github.com/shuangxuetwelve/docu-cat/internal/embedding"
	ghclient "github.com/shuangxuetwelve/docu-cat/internal/github"
	"github.com/shuangxuetwelve/docu-cat/internal/gitx"
	mcpserver "github.com/shuangxuetwelve/docu-cat/internal/mcp"
	"github.com/shuangxuetwelve/docu-cat/internal/query"
	"github.com/shuangxuetwelve/docu-cat/internal/repo"
	"github.com/shuangxuetwelve/docu-cat/internal/store"
	"github.com/shuangxuetwelve/docu-cat/internal/syncer"
)

var (
	flagRepo   string
	flagGitHub string
	flagRef    string
	flagForce  bool
	flagTo     string
	flagTopK   int
)

var rootCmd = &cobra.Command{
	Use:   "docu-cat",
	Short: "Repository chunk indexing and retrieval tool",
	Long: `docu-cat chunks the files of a repository, embeds the chunks, and keeps
the resulting index in sync with the repository's commits.

Environment variables:
  GEMINI_API_KEY     Gemini API key for embeddings (required)
  GITHUB_TOKEN       GitHub token for hosted repositories (optional)
  DOCUCAT_BACKEND    Index backend: sqlite (default) or qdrant
  QDRANT_HOST        Qdrant hostname (default: localhost)
  QDRANT_PORT        Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION  Qdrant collection name`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Build the chunk index from scratch",
	Long: `Chunks and embeds every supported file in the repository and records the
commit the index was built from. Fails if an index already exists unless
--force is given, which discards it first.`,
	RunE: runInit,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Bring the index up to date with the repository",
	Long: `Diffs the indexed commit against the repository head (or --to) and
re-chunks only the files that changed. The recorded commit advances only
when every changed file was processed successfully.`,
	RunE: runUpdate,
}

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Retrieve the chunks most similar to a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the indexed commit and chunk count",
	RunE:  runInfo,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the index to MCP clients over stdio",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagRepo, "repo", "r", ".", "path to the repository")

	for _, cmd := range []*cobra.Command{initCmd, updateCmd} {
		cmd.Flags().StringVar(&flagGitHub, "github", "", "index a hosted repository (owner/repo) instead of a local path")
		cmd.Flags().StringVar(&flagRef, "ref", "", "commit or branch to pin hosted reads to (with --github)")
	}
	initCmd.Flags().BoolVar(&flagForce, "force", false, "discard any existing index and rebuild")
	updateCmd.Flags().StringVar(&flagTo, "to", "", "target commit (defaults to the repository head)")
	queryCmd.Flags().IntVarP(&flagTopK, "top-k", "k", query.DefaultTopK, "number of chunks to return")

	rootCmd.AddCommand(initCmd, updateCmd, queryCmd, infoCmd, serveCmd)
}

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	handle, err := openHandle(store.Options{Create: true, Exclusive: true})
	if err != nil {
		return err
	}
	defer handle.Close()

	engine, err := buildEngine(ctx, handle)
	if err != nil {
		return err
	}

	fmt.Println("Building index...")
	result, err := engine.Init(ctx, flagForce)
	if errors.Is(err, store.ErrAlreadyInitialized) {
		return fmt.Errorf("index already exists, use --force to rebuild")
	}
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	handle, err := openHandle(store.Options{Exclusive: true})
	if err != nil {
		return err
	}
	defer handle.Close()

	engine, err := buildEngine(ctx, handle)
	if err != nil {
		return err
	}

	fmt.Println("Updating index...")
	result, err := engine.Update(ctx, flagTo)
	if errors.Is(err, store.ErrNotInitialized) {
		return fmt.Errorf("no index found, run `docu-cat init` first")
	}
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	handle, err := openHandle(store.Options{})
	if errors.Is(err, store.ErrNotInitialized) {
		return fmt.Errorf("no index found, run `docu-cat init` first")
	}
	if err != nil {
		return err
	}
	defer handle.Close()

	embedder, err := embedding.NewClient(ctx, 0)
	if err != nil {
		return err
	}

	svc := query.NewService(embedder, handle, slog.Default())
	matches, err := svc.Search(ctx, args[0], flagTopK)
	if errors.Is(err, store.ErrNotInitialized) {
		return fmt.Errorf("no index found, run `docu-cat init` first")
	}
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		fmt.Println("No matching chunks found.")
		return nil
	}
	for i, m := range matches {
		fmt.Printf("%2d. %s#%d  (score %.4f)\n", i+1, m.FilePath, m.ChunkIndex, m.Score)
		fmt.Println(indent(m.Text, "    "))
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	handle, err := openHandle(store.Options{})
	if errors.Is(err, store.ErrNotInitialized) {
		fmt.Println("No index found.")
		return nil
	}
	if err != nil {
		return err
	}
	defer handle.Close()

	sha, err := handle.Checkpoint()
	if errors.Is(err, store.ErrNotInitialized) {
		fmt.Println("No index found.")
		return nil
	}
	if err != nil {
		return err
	}
	count, err := handle.Chunks().Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Commit: %s\n", sha)
	fmt.Printf("Chunks: %d\n", count)
	fmt.Printf("Backend: %s\n", backend())
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	handle, err := openHandle(store.Options{})
	if err != nil && !errors.Is(err, store.ErrNotInitialized) {
		return err
	}
	if errors.Is(err, store.ErrNotInitialized) {
		// Serve anyway so index_status can report the missing index.
		handle, err = openHandle(store.Options{Create: true})
		if err != nil {
			return err
		}
	}
	defer handle.Close()

	embedder, err := embedding.NewClient(ctx, 0)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	svc := query.NewService(embedder, handle, logger)
	return mcpserver.NewServer(svc).Run(ctx)
}

// openHandle opens the repository's store with the backend selected through
// the environment.
func openHandle(opts store.Options) (*store.Handle, error) {
	opts.Backend = backend()
	opts.QdrantHost = getEnv("QDRANT_HOST", "localhost")
	opts.QdrantPort = getEnvInt("QDRANT_PORT", 6334)
	opts.QdrantCollection = os.Getenv("QDRANT_COLLECTION")

	handle, err := store.Open(store.Dir(flagRepo), opts)
	if errors.Is(err, store.ErrStoreBusy) {
		return nil, fmt.Errorf("another docu-cat run holds the index, try again later")
	}
	return handle, err
}

// buildEngine wires a sync engine over either the local repository or, with
// --github, a hosted one.
func buildEngine(ctx context.Context, handle *store.Handle) (*syncer.Engine, error) {
	splitter, err := chunker.NewSplitter(chunker.Config{})
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.NewClient(ctx, 0)
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	if flagGitHub != "" {
		owner, name, err := splitRepoSpec(flagGitHub)
		if err != nil {
			return nil, err
		}
		client, err := ghclient.NewClient()
		if err != nil {
			return nil, err
		}
		provider := ghclient.NewProvider(client, owner, name, flagRef)
		return syncer.NewEngine(provider, provider, splitter, embedder, handle, logger), nil
	}

	source, err := repo.NewSource(flagRepo)
	if err != nil {
		return nil, err
	}
	git, err := gitx.Open(ctx, flagRepo)
	if errors.Is(err, gitx.ErrNotARepository) {
		return nil, fmt.Errorf("%s is not a git repository", flagRepo)
	}
	if err != nil {
		return nil, err
	}
	return syncer.NewEngine(source, git, splitter, embedder, handle, logger), nil
}

func printResult(result *syncer.Result) {
	fmt.Println()
	if result.CheckpointAdvanced {
		fmt.Println("Index up to date.")
	} else {
		fmt.Println("Index updated with failures, commit checkpoint NOT advanced.")
	}
	fmt.Printf("  Commit: %s\n", result.NewSHA)
	fmt.Printf("  Files: %d processed, %d skipped, %d failed (of %d)\n",
		result.FilesProcessed, result.FilesSkipped, result.FilesFailed, result.FilesScanned)
	fmt.Printf("  Chunks: +%d -%d\n", result.ChunksAdded, result.ChunksDeleted)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Millisecond))

	if len(result.Failures) > 0 {
		fmt.Println()
		fmt.Println("Failed files:")
		for _, f := range result.Failures {
			fmt.Printf("  - %s: %s\n", f.Path, f.Reason)
		}
	}
}

func splitRepoSpec(spec string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(spec, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid --github value %q, expected owner/repo", spec)
	}
	return owner, name, nil
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n"+prefix)
}

func backend() store.Backend {
	if v := os.Getenv("DOCUCAT_BACKEND"); v != "" {
		return store.Backend(v)
	}
	return store.BackendSQLite
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
