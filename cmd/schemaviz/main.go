// schemaviz renders JSON Schema relationship diagrams.
//
//	schemaviz generate [flags] [dir|file ...]
//	schemaviz watch    [flags] [dir ...]
//	schemaviz serve    [flags] [dir ...]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/schemaviz/compiler"
	"github.com/syssam/schemaviz/compiler/gen/dot"
	"github.com/syssam/schemaviz/internal/config"
	"github.com/syssam/schemaviz/internal/logging"
	"github.com/syssam/schemaviz/internal/metrics"
	"github.com/syssam/schemaviz/internal/server"
	"github.com/syssam/schemaviz/internal/watch"
)

const usage = `Usage: schemaviz <command> [flags] [paths...]

Commands:
  generate  render diagrams from the schema files once
  watch     regenerate diagrams whenever a schema file changes
  serve     serve the graph and diagrams over HTTP

Run "schemaviz <command> -h" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runWithArgs(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func runWithArgs(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	var run func(context.Context, *app) error
	switch args[0] {
	case "generate":
		run = generate
	case "watch":
		run = watchCmd
	case "serve":
		run = serve
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	a, err := newApp(args[0], args[1:], getenv, stdout, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	defer func() { _ = a.logger.Sync() }()
	if err := run(ctx, a); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// app is the state shared by the commands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	stdout io.Writer
	watch  bool
}

// newApp parses the flags of command over the configuration layers:
// defaults, the -config file, the environment, flags, then positional
// schema paths.
func newApp(command string, args []string, getenv func(string) string, stdout, stderr io.Writer) (*app, error) {
	fs := flag.NewFlagSet("schemaviz "+command, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath string
		sets       []func(*config.Config)
		outputs    []string
		serveWatch bool
	)
	str := func(name, usage string, set func(*config.Config, string)) {
		fs.Func(name, usage, func(v string) error {
			sets = append(sets, func(c *config.Config) { set(c, v) })
			return nil
		})
	}
	boolean := func(name, usage string, set func(*config.Config, bool)) {
		fs.BoolFunc(name, usage, func(v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			sets = append(sets, func(c *config.Config) { set(c, b) })
			return nil
		})
	}

	fs.StringVar(&configPath, "config", "", "YAML configuration file")
	boolean("yaml", "also load .yaml/.yml schema files", func(c *config.Config, b bool) { c.YAML = b })
	str("orientation", "diagram direction, TB or LR", func(c *config.Config, v string) { c.Orientation = strings.ToUpper(v) })
	boolean("detailed-types", "show array<item> and enum types", func(c *config.Config, b bool) { c.DetailedTypes = b })
	boolean("flatten", "flatten nested object properties", func(c *config.Config, b bool) { c.Flatten = b })
	boolean("deep-refs", "follow $ref inside items, nested objects and combinators", func(c *config.Config, b bool) { c.DeepRefs = b })
	boolean("strict", "fail on schemas with a malformed identifier", func(c *config.Config, b bool) { c.Strict = b })
	str("collisions", "node id collision policy: ignore, warn or error", func(c *config.Config, v string) { c.Collisions = v })
	str("title", "markdown title", func(c *config.Config, v string) { c.Title = v })
	str("graphviz", "Graphviz dot binary", func(c *config.Config, v string) { c.Graphviz = v })
	str("log-level", "debug, info, warn or error", func(c *config.Config, v string) { c.LogLevel = strings.ToLower(v) })
	boolean("dev", "human readable logs", func(c *config.Config, b bool) { c.Development = b })

	switch command {
	case "generate", "watch":
		fs.Func("o", "output `[format:]path`, repeatable; - is stdout (formats: "+strings.Join(compiler.Formats, ", ")+")", func(v string) error {
			outputs = append(outputs, v)
			return nil
		})
	case "serve":
		str("addr", "listen address", func(c *config.Config, v string) { c.Addr = v })
		str("allow-origins", "comma separated CORS origins", func(c *config.Config, v string) {
			c.AllowOrigins = nil
			for _, o := range strings.Split(v, ",") {
				if o = strings.TrimSpace(o); o != "" {
					c.AllowOrigins = append(c.AllowOrigins, o)
				}
			}
		})
		fs.Func("cache-ttl", "cache lifetime of rendered diagrams", func(v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			sets = append(sets, func(c *config.Config) { c.CacheTTL = d })
			return nil
		})
		fs.BoolVar(&serveWatch, "watch", false, "drop cached diagrams when schema files change")
	}
	fs.Func("debounce", "quiet period after a schema change before reacting to it", func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		sets = append(sets, func(c *config.Config) { c.Debounce = d })
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(getenv)
	for _, set := range sets {
		set(cfg)
	}
	if len(outputs) > 0 {
		cfg.Outputs = outputs
	}
	if paths := fs.Args(); len(paths) > 0 {
		cfg.SchemaDirs = paths
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, stdout: stdout, watch: serveWatch}, nil
}

func (a *app) compiler() *compiler.Config {
	return &compiler.Config{
		Load:     a.cfg.LoadOptions(),
		Graph:    a.cfg.GraphOptions(),
		Title:    a.cfg.Title,
		Graphviz: dot.Graphviz{Binary: a.cfg.Graphviz},
		Stdout:   a.stdout,
		Logger:   a.logger,
	}
}

func (a *app) outputs() ([]compiler.Output, error) {
	outs := make([]compiler.Output, 0, len(a.cfg.Outputs))
	for _, s := range a.cfg.Outputs {
		o, err := compiler.ParseOutput(s)
		if err != nil {
			return nil, err
		}
		outs = append(outs, o)
	}
	return outs, nil
}

func generate(ctx context.Context, a *app) error {
	outs, err := a.outputs()
	if err != nil {
		return err
	}
	_, err = compiler.Generate(ctx, a.compiler(), a.cfg.SchemaDirs, outs...)
	return err
}

func watchCmd(ctx context.Context, a *app) error {
	outs, err := a.outputs()
	if err != nil {
		return err
	}
	c := a.compiler()
	if _, err := compiler.Generate(ctx, c, a.cfg.SchemaDirs, outs...); err != nil {
		a.logger.Error("initial generation failed", zap.Error(err))
	}
	w, err := watch.New(a.cfg.SchemaDirs, func(ctx context.Context, _ string) error {
		_, err := compiler.Generate(ctx, c, a.cfg.SchemaDirs, outs...)
		return err
	}, watch.WithDebounce(a.cfg.Debounce), watch.WithLogger(a.logger), watch.WithIgnore(outputPaths(outs)...))
	if err != nil {
		return err
	}
	defer w.Close()
	a.logger.Info("watching schemas", zap.Strings("dirs", a.cfg.SchemaDirs))
	return w.Run(ctx)
}

// outputPaths lists the files a generation run writes, so the watcher
// does not react to its own output.
func outputPaths(outs []compiler.Output) []string {
	if len(outs) == 0 {
		outs = []compiler.Output{compiler.DefaultOutput}
	}
	paths := make([]string, 0, len(outs))
	for _, o := range outs {
		if o.Path != "" && o.Path != "-" {
			paths = append(paths, o.Path)
		}
	}
	return paths
}

func serve(ctx context.Context, a *app) error {
	collector := metrics.NewCollector()
	srv, err := server.New(a.cfg, server.WithLogger(a.logger), server.WithMetrics(collector))
	if err != nil {
		return err
	}
	if !a.watch {
		return srv.Run(ctx)
	}

	w, err := watch.New(a.cfg.SchemaDirs, func(ctx context.Context, _ string) error {
		return srv.Invalidate(ctx)
	},
		watch.WithDebounce(a.cfg.Debounce),
		watch.WithLogger(a.logger),
		watch.WithMetrics(collector),
	)
	if err != nil {
		return err
	}
	defer w.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return w.Run(ctx) })
	return g.Wait()
}
