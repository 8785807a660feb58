// Package cli implements the graphprod command-line interface.
//
// The CLI loads labeled graphs from JSON or DOT files, applies production
// rules described in TOML files, prints graph statistics, renders diagrams
// and manages persisted rewriting sessions. It also serves the HTTP API.
//
// # Commands
//
//   - canon: canonicalize a graph file to node-link JSON
//   - stats: print statistics of a graph file
//   - apply: apply rule files to a graph file in order
//   - render: write a DOT or SVG diagram
//   - session: init, apply, stats, show, list, rm, export
//   - serve: run the HTTP API
//   - cache: clear or locate the input cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging via
// charmbracelet/log. Status lines go to stdout, logs to stderr.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphprod/pkg/buildinfo"
	"github.com/matzehuels/graphprod/pkg/cache"
	"github.com/matzehuels/graphprod/pkg/pipeline"
	"github.com/matzehuels/graphprod/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "graphprod"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output (tables, JSON, status lines).
	Out io.Writer

	verbose  bool
	noCache  bool
	storeCfg session.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "graphprod rewrites labeled graphs with productions",
		Long:          `graphprod applies graph productions to labeled undirected graphs: it replaces a labeled vertex with a replacement graph, reattaches the dangling edges through an embedding, and reports graph statistics after each step.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the input and render cache")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if c.verbose {
			c.SetLogLevel(LogDebug)
		}
	}

	root.AddCommand(c.canonCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner and Store Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Cache keys are scoped by
// release so a new build never reads entries written by an older one.
func (c *CLI) newRunner() *pipeline.Runner {
	keyer := cache.NewScopedKeyer(nil, buildinfo.Version+":")
	return pipeline.NewRunner(newCache(c.noCache), keyer, c.Logger)
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// openStore opens the session store selected by the --store flags.
func (c *CLI) openStore(ctx context.Context) (session.Store, error) {
	return session.Open(ctx, c.storeCfg)
}

// addStoreFlags registers the flags that select a session backend.
func (c *CLI) addStoreFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&c.storeCfg.Backend, "store", session.BackendFile, "session store: file, memory, redis, mongo")
	f.StringVar(&c.storeCfg.Dir, "store-dir", "", "directory for the file store (default $XDG_DATA_HOME/graphprod/sessions)")
	f.StringVar(&c.storeCfg.Redis.Addr, "redis-addr", "", "Redis address (default $"+session.EnvRedisAddr+")")
	f.StringVar(&c.storeCfg.MongoURI, "mongo-uri", "", "MongoDB URI (default $"+session.EnvMongoURI+")")
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/graphprod/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a known format extension, it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
