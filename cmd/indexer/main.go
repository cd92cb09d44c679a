package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/codelantern/lci/internal/config"
	"github.com/codelantern/lci/internal/indexer"
	"github.com/codelantern/lci/internal/parser"
	"github.com/codelantern/lci/internal/query"
	"github.com/codelantern/lci/internal/store"
	"github.com/codelantern/lci/internal/version"
	"github.com/codelantern/lci/internal/watcher"
	"github.com/codelantern/lci/pkg/pathutil"
)

// app bundles the components every command wires against, opened once per
// invocation from the resolved config and closed on exit.
type app struct {
	cfg     *config.Config
	bridge  *parser.Bridge
	store   *store.Store
	indexer *indexer.Indexer
	surface *query.Surface
}

func newApp(c *cli.Context) (*app, error) {
	cfg, err := config.LoadWithRoot(c.String("config"), c.String("root"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if excl := c.StringSlice("exclude"); len(excl) > 0 {
		cfg.Exclude = config.DeduplicatePatterns(append(cfg.Exclude, excl...))
	}
	cfg.EnrichExclusionsWithBuildArtifacts()
	cfg.ApplyGitignoreExclusions()

	bridge := parser.New()
	storePath := cfg.StoreFilePath()
	if storePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(storePath), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	st, err := store.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &app{
		cfg:     cfg,
		bridge:  bridge,
		store:   st,
		indexer: indexer.New(bridge, st),
		surface: query.New(st),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// resolvePath anchors a path argument the operator typed against the
// project root rather than the CLI's own working directory, so "at"/
// "symbols" find the same canonical path the Indexer stored it under
// regardless of where indexer happens to be invoked from.
func (a *app) resolvePath(p string) string {
	return pathutil.ToAbsolute(p, a.cfg.Project.Root)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// buildCLIApp assembles the command tree; split out from main so tests can
// drive it with arbitrary os.Args without exec'ing a built binary.
func buildCLIApp() *cli.App {
	return &cli.App{
		Name:    "indexer",
		Usage:   "Tree-sitter backed code index: parse, store, watch, and query symbols and references",
		Version: version.Version,
		// Errors from cli.Exit are returned from Run instead of exiting the
		// process here; main reports them and sets the exit status.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   ".indexer.kdl",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Additional exclusion glob, may be repeated",
			},
		},
		Commands: []*cli.Command{
			indexCommand,
			watchCommand,
			findCommand,
			refsCommand,
			searchCommand,
			callgraphCommand,
			symbolsCommand,
			atCommand,
			statsCommand,
		},
	}
}

func main() {
	if err := buildCLIApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var indexCommand = &cli.Command{
	Name:      "index",
	Usage:     "index a single file or recursively index a directory",
	ArgsUsage: "<path>",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return cli.Exit("index requires a <path> argument", 1)
		}
		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer a.Close()
		path = a.resolvePath(path)

		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		ctx := context.Background()
		if info.IsDir() {
			results, err := a.indexer.IndexDirectory(ctx, path, indexer.DirectoryOptions{Exclude: a.cfg.Exclude})
			if err != nil {
				return err
			}
			return printJSON(results)
		}

		result, err := a.indexer.IndexFile(ctx, path)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var watchCommand = &cli.Command{
	Name:      "watch",
	Usage:     "start the filesystem watcher on a directory and block until interrupted",
	ArgsUsage: "<dir>",
	Action: func(c *cli.Context) error {
		dir := c.Args().First()
		if dir == "" {
			return cli.Exit("watch requires a <dir> argument", 1)
		}
		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer a.Close()
		dir = a.resolvePath(dir)

		ctx := context.Background()
		if _, err := a.indexer.IndexDirectory(ctx, dir, indexer.DirectoryOptions{Exclude: a.cfg.Exclude}); err != nil {
			return fmt.Errorf("initial index: %w", err)
		}

		w := watcher.New(a.bridge, a.indexer, a.store, watcher.Options{
			DebounceMs: a.cfg.Index.DebounceMs,
			Exclude:    a.cfg.Exclude,
		})
		defer w.Close()

		if err := w.Watch(dir); err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		fmt.Fprintf(os.Stderr, "watching %s (debounce=%dms)\n", dir, a.cfg.Index.DebounceMs)
		<-sigCh
		fmt.Fprintln(os.Stderr, "shutting down")
		return nil
	},
}

var findCommand = &cli.Command{
	Name:      "find",
	Usage:     "find a symbol's definition by name or qualified name",
	ArgsUsage: "<name-or-qname>",
	Action: func(c *cli.Context) error {
		name := c.Args().First()
		if name == "" {
			return cli.Exit("find requires a <name-or-qname> argument", 1)
		}
		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer a.Close()

		def, err := a.surface.FindDefinition(context.Background(), name)
		if err != nil {
			return err
		}
		return printJSON(def)
	},
}

var refsCommand = &cli.Command{
	Name:      "refs",
	Usage:     "list references to a symbol by name or qualified name",
	ArgsUsage: "<name-or-qname>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Usage: "maximum results"},
	},
	Action: func(c *cli.Context) error {
		name := c.Args().First()
		if name == "" {
			return cli.Exit("refs requires a <name-or-qname> argument", 1)
		}
		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer a.Close()

		refs, err := a.surface.FindReferences(context.Background(), name, query.Options{Limit: c.Int("limit")})
		if err != nil {
			return err
		}
		return printJSON(refs)
	},
}

var searchCommand = &cli.Command{
	Name:      "search",
	Usage:     "search symbols by name pattern",
	ArgsUsage: "<pattern>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "kind", Usage: "filter by symbol kind"},
		&cli.StringFlag{Name: "language", Usage: "filter by language"},
		&cli.IntFlag{Name: "limit", Usage: "maximum results"},
	},
	Action: func(c *cli.Context) error {
		pattern := c.Args().First()
		if pattern == "" {
			return cli.Exit("search requires a <pattern> argument", 1)
		}
		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer a.Close()

		limit := c.Int("limit")
		if limit == 0 {
			limit = a.cfg.Search.DefaultLimit
		}
		symbols, err := a.surface.Search(context.Background(), pattern, query.Options{
			Kind:     c.String("kind"),
			Language: c.String("language"),
			Limit:    limit,
		})
		if err != nil {
			return err
		}
		return printJSON(symbols)
	},
}

var callgraphCommand = &cli.Command{
	Name:      "callgraph",
	Usage:     "show callers and callees of a symbol",
	ArgsUsage: "<name>",
	Action: func(c *cli.Context) error {
		name := c.Args().First()
		if name == "" {
			return cli.Exit("callgraph requires a <name> argument", 1)
		}
		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer a.Close()

		graph, err := a.surface.CallGraph(context.Background(), name)
		if err != nil {
			return err
		}
		return printJSON(graph)
	},
}

var symbolsCommand = &cli.Command{
	Name:      "symbols",
	Usage:     "list symbols defined in a file",
	ArgsUsage: "<path>",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return cli.Exit("symbols requires a <path> argument", 1)
		}
		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer a.Close()
		path = a.resolvePath(path)

		symbols, err := a.surface.SymbolsInFile(context.Background(), path)
		if err != nil {
			return err
		}
		return printJSON(symbols)
	},
}

var atCommand = &cli.Command{
	Name:      "at",
	Usage:     "find the symbol enclosing a file position",
	ArgsUsage: "<path> <line> <col>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() < 3 {
			return cli.Exit("at requires <path> <line> <col> arguments", 1)
		}
		path := c.Args().Get(0)
		line, err := strconv.Atoi(c.Args().Get(1))
		if err != nil {
			return fmt.Errorf("invalid line %q: %w", c.Args().Get(1), err)
		}
		col, err := strconv.Atoi(c.Args().Get(2))
		if err != nil {
			return fmt.Errorf("invalid col %q: %w", c.Args().Get(2), err)
		}

		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer a.Close()
		path = a.resolvePath(path)

		symbol, err := a.surface.SymbolAt(context.Background(), path, line, col)
		if err != nil {
			return err
		}
		return printJSON(symbol)
	},
}

var statsCommand = &cli.Command{
	Name:  "stats",
	Usage: "show index-wide symbol and reference counts",
	Action: func(c *cli.Context) error {
		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.surface.Stats(context.Background())
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}
