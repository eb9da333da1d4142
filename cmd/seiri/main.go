// Package main is the seiri CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yomogi/seiri/internal/config"
	"github.com/yomogi/seiri/internal/keyword"
	"github.com/yomogi/seiri/internal/models"
	"github.com/yomogi/seiri/internal/pipeline"
	"github.com/yomogi/seiri/internal/server"
	"github.com/yomogi/seiri/internal/stats"
	"github.com/yomogi/seiri/internal/storage"
	"github.com/yomogi/seiri/internal/watcher"
	"github.com/yomogi/seiri/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/seiri/config.yaml"

// loadConfig loads config from path. When path is the default, it first
// looks for config.yaml in the current directory (for development); if that
// exists it is used. Returns the config and the path that was actually loaded.
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
	case "process":
		runProcess()
	case "search":
		runSearch()
	case "stats":
		runStats()
	case "server":
		runServer()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("seiri version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// components holds the initialized store and index.
type components struct {
	Storage storage.Storage
	Index   *keyword.BleveIndex
}

func (c *components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

func initComponents(cfg *config.Config) (*components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	index, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	return &components{Storage: store, Index: index}, nil
}

func mustLogger(cfg *config.Config, debugFlag bool) *zap.Logger {
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func runProcess() {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	archivePath := fs.String("archive", "", "archive path (overrides config)")
	outputPath := fs.String("output", "", "output path (overrides config)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *archivePath != "" {
		cfg.Archive.Path = *archivePath
	}
	if *outputPath != "" {
		cfg.Output.Path = *outputPath
	}
	if cfg.Archive.Path == "" {
		fmt.Println("No archive path: set archive.path in config or pass --archive")
		os.Exit(1)
	}

	logger := mustLogger(cfg, *debug)
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath))

	comps, err := initComponents(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	p := pipeline.New(cfg, comps.Storage, comps.Index, logger)
	run, err := p.Run(context.Background())
	if err != nil {
		logger.Fatal("Processing failed", zap.Error(err))
	}
	fmt.Printf("Processed %d tweet(s) from %d file(s) (%d skipped) in %s\n",
		run.Parsed, run.FilesSeen, run.Skipped, run.Duration.Round(time.Millisecond))
	fmt.Printf("Output written to %s\n", cfg.Output.Path)
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after
// the query to the front of the slice so that flag.Parse() sees them.
// Go's flag package stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	limit := fs.Int("limit", 10, "number of results")
	lang := fs.String("lang", "", "restrict results to a language code (e.g. en)")
	outputJSON := fs.Bool("json", false, "output JSON instead of text")
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		fmt.Println("Usage: seiri search [flags] <query>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: seiri search [flags] <query>")
		os.Exit(1)
	}

	query := &models.SearchQuery{Query: queryStr, Limit: *limit, Lang: *lang}

	var response *models.SearchResponse
	var err error
	if *serverURL != "" {
		// Prefer the HTTP API when the server is running (avoids a
		// Bleve/SQLite lock conflict with the server process); fall back
		// to direct store access when it is not reachable.
		response, err = searchViaHTTP(*serverURL, query)
		if errors.Is(err, errServerUnavailable) {
			response, err = searchDirect(*configPath, query)
		}
	} else {
		response, err = searchDirect(*configPath, query)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	writeSearchResults(os.Stdout, response)
}

func writeSearchResults(w io.Writer, response *models.SearchResponse) {
	if response.Total == 0 {
		fmt.Fprintf(w, "No results for %q\n", response.Query)
		return
	}
	fmt.Fprintf(w, "%d result(s) for %q (%dms)\n\n", response.Total, response.Query, response.QueryTime)
	for _, res := range response.Results {
		t := res.Tweet
		fmt.Fprintf(w, "%2d. [%s] %s (score %.2f)\n", res.Rank, t.CreatedAt.Format("2006-01-02"), t.ID, res.Score)
		fmt.Fprintf(w, "    %s\n", utils.Truncate(t.Text, 120))
	}
}

func searchDirect(configPath string, query *models.SearchQuery) (*models.SearchResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	comps, err := initComponents(cfg)
	if err != nil {
		return nil, err
	}
	defer comps.Close()

	ctx := context.Background()
	start := time.Now()
	hits, err := comps.Index.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	response := &models.SearchResponse{Query: query.Query}
	for _, hit := range hits {
		tweet, err := comps.Storage.GetTweet(ctx, hit.ID)
		if err != nil {
			continue
		}
		response.Results = append(response.Results, &models.SearchResult{
			Tweet: tweet,
			Score: hit.Score,
			Rank:  len(response.Results) + 1,
		})
	}
	response.Total = len(response.Results)
	response.QueryTime = time.Since(start).Milliseconds()
	return response, nil
}

// errServerUnavailable reports that the HTTP API could not be reached.
var errServerUnavailable = errors.New("server unavailable")

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errServerUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	comps, err := initComponents(cfg)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer comps.Close()

	ctx := context.Background()
	count, err := comps.Storage.CountTweets(ctx)
	if err != nil {
		fmt.Printf("Count failed: %v\n", err)
		os.Exit(1)
	}
	tweets, err := comps.Storage.ListTweets(ctx, 0, int(count))
	if err != nil {
		fmt.Printf("List failed: %v\n", err)
		os.Exit(1)
	}
	summary := stats.Summarize(tweets)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		fmt.Printf("Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	watch := fs.Bool("watch", false, "watch the archive data dir and reprocess on change")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := mustLogger(cfg, *debug)
	defer logger.Sync()
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("watch", *watch),
	)

	comps, err := initComponents(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if *watch {
		if cfg.Archive.Path == "" {
			logger.Fatal("watch requires archive.path in config")
		}
		p := pipeline.New(cfg, comps.Storage, comps.Index, logger)
		dataDir := filepath.Join(cfg.Archive.Path, "data")
		watchOpts := []watcher.Option{
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS) * time.Millisecond),
		}
		if cfg.Debug || *debug {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		w := watcher.New(dataDir, func(path string) {
			logger.Info("export file changed, reprocessing", zap.String("path", path))
			if _, err := p.Run(watchCtx); err != nil {
				logger.Warn("reprocess failed", zap.Error(err))
			}
		}, watchOpts...)
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(comps.Storage, comps.Index, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err == nil {
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				b, _ := io.ReadAll(resp.Body)
				fmt.Println(strings.TrimSpace(string(b)))
				return
			}
		}
		// Server not reachable: fall through to direct storage.
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	comps, err := initComponents(cfg)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer comps.Close()

	ctx := context.Background()
	count, err := comps.Storage.CountTweets(ctx)
	if err != nil {
		fmt.Printf("Count failed: %v\n", err)
		os.Exit(1)
	}
	indexed, err := comps.Index.DocCount()
	if err != nil {
		fmt.Printf("Doc count failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("tweets:   %d\n", count)
	fmt.Printf("indexed:  %d\n", indexed)
	if start, end, err := comps.Storage.DateRange(ctx); err == nil && !start.IsZero() {
		fmt.Printf("range:    %s .. %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if run, err := comps.Storage.LastRun(ctx); err == nil && run != nil {
		fmt.Printf("last_run: %s (%d parsed, %d skipped)\n", run.RunID, run.Parsed, run.Skipped)
	}
	if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath); err == nil {
		fmt.Printf("disk:     %d bytes\n", diskBytes)
	}
}

func printUsage() {
	fmt.Println(`seiri - Twitter archive preprocessing toolkit

Usage:
  seiri process [flags]           Process the archive into a tabular dataset
  seiri search [flags] <query>    Search processed tweets
  seiri stats [flags]             Print summary statistics
  seiri server [flags]            Start the HTTP API
  seiri status [flags]            Show store/index status
  seiri version                   Show version
  seiri help                      Show this help

Process Flags:
  --config string    Config file path (default: /usr/local/etc/seiri/config.yaml)
  --archive string   Archive path (overrides config)
  --output string    Output path (overrides config)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --limit int        Number of results (default: 10)
  --lang string      Restrict results to a language code
  --json             Output JSON instead of text

Server Flags:
  --config string    Config file path
  --watch            Watch the archive data dir and reprocess on change
  --debug            Enable debug logging

Examples:
  seiri process --archive ~/twitter-archive --output ./processed
  seiri search "machine learning"
  seiri search --lang en --limit 20 coffee
  seiri stats
  seiri server --watch`)
}
