// Package main is the Kioku CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/hyperjump/kioku/internal/cli"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/extract"
	"github.com/hyperjump/kioku/internal/ingest"
	"github.com/hyperjump/kioku/internal/server"
	"github.com/hyperjump/kioku/internal/store"
	"github.com/hyperjump/kioku/internal/watcher"
	"github.com/hyperjump/kioku/pkg/client"
	"github.com/hyperjump/kioku/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kioku/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "kioku server" from the project dir uses the project's config (including debug).
// A missing default file is not an error: the built-in defaults describe a complete
// local setup. Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(), path, nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "store":
		runStore()
	case "search":
		runSearch()
	case "ingest":
		runIngest()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kioku version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (per-request handling, cache hits, etc.)")
	host := fs.String("host", "", "listen host (overrides config)")
	port := fs.Int("port", 0, "listen port (overrides config)")
	dim := fs.Int("dim", 0, "embedding dimensions (overrides config)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dim != 0 {
		cfg.Server.EmbeddingDim = *dim
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	embedder := embedding.NewCachedEmbedder(
		embedding.NewHashEmbedder(cfg.Server.EmbeddingDim),
		cfg.Server.EmbeddingCache,
	)
	srv := server.New(&cfg.Server, embedder, store.New(), logger)
	if err := srv.Listen(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutting down...")
		cancel()
	}()

	if err := srv.Serve(ctx); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newClient builds a protocol client from config, with host/port flag overrides.
func newClient(cfg *config.Config, host string, port int) *client.Client {
	if host == "" {
		host = cfg.Server.Host
	}
	if port == 0 {
		port = cfg.Server.Port
	}
	return client.New(host, port,
		client.WithDialTimeout(cfg.Client.DialTimeout()),
		client.WithRequestTimeout(cfg.Client.RequestTimeout()),
	)
}

// newIngestor wires the extract/chunk/store pipeline against a running server.
func newIngestor(cfg *config.Config, c *client.Client, logger *zap.Logger, debug bool) *ingest.Ingestor {
	opts := []ingest.IngestorOption{}
	if debug && logger != nil {
		opts = append(opts, ingest.WithLogger(logger))
	}
	return ingest.NewIngestor(
		extract.NewExtractor(),
		ingest.NewChunker(cfg.Ingest.ChunkTokens, cfg.Ingest.OverlapSentences),
		c,
		opts...,
	)
}

// joinArgs joins all positional args with spaces so multi-word text works the
// same with or without shell quoting (e.g. "quick brown fox" vs quick brown fox).
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runStore() {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	host := fs.String("host", "", "server host (overrides config)")
	port := fs.Int("port", 0, "server port (overrides config)")
	docID := fs.String("doc", "", "document id the chunk belongs to (required)")
	chunkID := fs.String("chunk", "", "chunk id (default: random UUID)")
	text := fs.String("text", "", "chunk text (default: remaining arguments joined)")
	var meta cli.MetaFlags
	fs.Var(&meta, "meta", "chunk metadata as key=value (repeatable)")
	_ = fs.Parse(os.Args[2:])

	if *docID == "" {
		fmt.Println("Usage: kioku store -doc <document-id> [flags] <text>")
		os.Exit(1)
	}
	chunkText := *text
	if chunkText == "" {
		chunkText = joinArgs(fs.Args())
	}
	if chunkText == "" {
		fmt.Println("Usage: kioku store -doc <document-id> [flags] <text>")
		os.Exit(1)
	}
	metadata, err := cli.ParseMetaFlags(meta)
	if err != nil {
		fmt.Printf("Invalid metadata: %v\n", err)
		os.Exit(1)
	}
	id := *chunkID
	if id == "" {
		id = uuid.New().String()
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	c := newClient(cfg, *host, *port)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.RequestTimeout())
	defer cancel()
	if err := c.Store(ctx, id, *docID, chunkText, metadata); err != nil {
		fmt.Fprintf(os.Stderr, "Store failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Stored chunk %s in document %s\n", id, *docID)
}

// printSearchUsage prints search subcommand usage and query hints.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kioku search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  kioku search machine learning
  kioku search "machine learning"          # same as above
  kioku search -k 10 neural networks
  kioku search -doc doc_1a2b3c4d -json your query
`)
}

func runSearch() {
	searchArgs := cli.SearchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	host := fs.String("host", "", "server host (overrides config)")
	port := fs.Int("port", 0, "server port (overrides config)")
	topK := fs.Int("k", 5, "number of results")
	docID := fs.String("doc", "", "restrict results to one document id")
	jsonOut := fs.Bool("json", false, "print results as JSON")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	query := joinArgs(fs.Args())
	if query == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	c := newClient(cfg, *host, *port)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.RequestTimeout())
	defer cancel()
	results, err := c.Search(ctx, query, *topK, *docID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}

	format := cli.OutputText
	if *jsonOut {
		format = cli.OutputJSON
	}
	if err := cli.WriteSearchResults(os.Stdout, query, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	host := fs.String("host", "", "server host (overrides config)")
	port := fs.Int("port", 0, "server port (overrides config)")
	debug := fs.Bool("debug", false, "enable debug logging (per-chunk store calls)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kioku ingest [flags] <file> [file...]")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ing := newIngestor(cfg, newClient(cfg, *host, *port), logger, debugMode)

	ctx := context.Background()
	failures := 0
	for _, path := range fs.Args() {
		stats, err := ing.IngestFile(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest failed for %s: %v\n", path, err)
			failures++
			continue
		}
		fmt.Printf("%s: %d pages, %d chunks, %d stored, %d failed\n",
			path, stats.Pages, stats.Chunks, stats.Stored, stats.Failed)
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: kioku watch <add|remove|list|run> [path...]")
		fmt.Println("  kioku watch add <path>      Add directory to the watch list")
		fmt.Println("  kioku watch remove <path>   Remove directory from the watch list")
		fmt.Println("  kioku watch list            List watched directories")
		fmt.Println("  kioku watch run [path...]   Watch directories and ingest changed files")
		os.Exit(1)
	}
	sub := os.Args[2]
	if sub == "run" {
		runWatchRun(os.Args[3:])
		return
	}

	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[3:])

	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: kioku watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		cfg, resolvedConfigPath, err := loadConfig(*configPath)
		if err != nil {
			fmt.Printf("Failed to load config: %v\n", err)
			os.Exit(1)
		}
		for _, d := range cfg.Watch.Directories {
			if d == path {
				fmt.Printf("Already watching: %s\n", path)
				return
			}
		}
		cfg.Watch.Directories = append(cfg.Watch.Directories, path)
		if err := config.Save(resolvedConfigPath, cfg); err != nil {
			fmt.Printf("Failed to save config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: kioku watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		cfg, resolvedConfigPath, err := loadConfig(*configPath)
		if err != nil {
			fmt.Printf("Failed to load config: %v\n", err)
			os.Exit(1)
		}
		kept := cfg.Watch.Directories[:0]
		for _, d := range cfg.Watch.Directories {
			if d != path {
				kept = append(kept, d)
			}
		}
		if len(kept) == len(cfg.Watch.Directories) {
			fmt.Printf("Not watching: %s\n", path)
			os.Exit(1)
		}
		cfg.Watch.Directories = kept
		if err := config.Save(resolvedConfigPath, cfg); err != nil {
			fmt.Printf("Failed to save config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Printf("Failed to load config: %v\n", err)
			os.Exit(1)
		}
		for _, d := range cfg.Watch.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runWatchRun(args []string) {
	fs := flag.NewFlagSet("watch run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	host := fs.String("host", "", "server host (overrides config)")
	port := fs.Int("port", 0, "server port (overrides config)")
	debug := fs.Bool("debug", false, "enable debug logging (directory changes, file ingestion, etc.)")
	sync := fs.Bool("sync", true, "ingest existing files on startup")
	_ = fs.Parse(args)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	dirs := fs.Args()
	if len(dirs) == 0 {
		dirs = cfg.Watch.Directories
	}
	if len(dirs) == 0 {
		fmt.Println(`No directories to watch; pass paths or add some with "kioku watch add".`)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	c := newClient(cfg, *host, *port)
	ing := newIngestor(cfg, c, logger, debugMode)

	watchOpts := []watcher.WatcherOption{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		dirs,
		cfg.Ingest.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			stats, err := ing.IngestFile(context.Background(), path)
			if err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
				return
			}
			logger.Info("file ingested",
				zap.String("path", path),
				zap.Int("chunks", stats.Chunks),
				zap.Int("stored", stats.Stored),
			)
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer watchSvc.Stop()
	if *sync {
		watchSvc.SyncExistingFiles()
	}
	logger.Info("watching", zap.Strings("directories", dirs), zap.String("server", c.Addr()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	host := fs.String("host", "", "server host (overrides config)")
	port := fs.Int("port", 0, "server port (overrides config)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	c := newClient(cfg, *host, *port)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.DialTimeout())
	defer cancel()
	if !c.Ping(ctx) {
		fmt.Printf("Server %s is not reachable\n", c.Addr())
		os.Exit(1)
	}
	fmt.Printf("Server %s is up\n", c.Addr())
}

func printUsage() {
	fmt.Println(`kioku - In-memory vector store over a length-prefixed TCP protocol

Usage:
  kioku server [flags]               Start the vector store server
  kioku store [flags] <text>         Store a single chunk
  kioku search [flags] <query>       Search stored chunks
  kioku ingest [flags] <files...>    Chunk and store document files
  kioku watch <add|remove|list|run>  Manage and run watched directories
  kioku status [flags]               Check server liveness
  kioku version                      Show version
  kioku help                         Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kioku/config.yaml)
  --debug            Enable debug logging (per-request handling, cache hits, etc.)
  --host string      Listen host (overrides config)
  --port int         Listen port (overrides config)
  --dim int          Embedding dimensions (overrides config)

Store Flags:
  --doc string       Document id the chunk belongs to (required)
  --chunk string     Chunk id (default: random UUID)
  --text string      Chunk text (default: remaining arguments joined)
  --meta key=value   Chunk metadata (repeatable)

Search Flags:
  --k int            Number of results (default: 5)
  --doc string       Restrict results to one document id
  --json             Print results as JSON

Client Flags (store, search, ingest, watch run, status):
  --config string    Config file path
  --host string      Server host (overrides config)
  --port int         Server port (overrides config)

Examples:
  kioku server
  kioku server -port 50052 -debug
  kioku store -doc doc_1a2b3c4d "The quick brown fox"
  kioku search "quick fox"
  kioku search -k 10 -json quick fox
  kioku ingest notes.txt report.pdf
  kioku watch add ~/Documents
  kioku watch run
  kioku status`)
}
