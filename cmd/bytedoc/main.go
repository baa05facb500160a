// Package main is the entry point for the bytedoc tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bytedoc/bytedoc/internal/app"
	"github.com/bytedoc/bytedoc/internal/config"
	"github.com/bytedoc/bytedoc/internal/config/watcher"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath string
	logLevel   string
	scripts    []string
	summary    bool
	comments   bool
	save       bool
	watch      bool
	file       string
}

// previewWidth caps comment text in -comments listings.
const previewWidth = 60

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	log := app.NewLogger(os.Stderr, app.ParseLogLevel(cfg.LogLevel))

	session, err := app.Open(opts.file, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer session.Close()

	// Interrupt cancels a running script; the failed run rolls back.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, scriptPath := range opts.scripts {
		if err := session.RunScript(ctx, scriptPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if opts.watch && len(opts.scripts) > 0 {
		if err := watchScripts(ctx, session, opts.scripts, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if opts.summary {
		fmt.Println(session.Summarize())
	}

	if opts.comments {
		printComments(session)
	}

	if opts.save {
		switch err := session.Save(); {
		case err == nil:
		case errors.Is(err, app.ErrNoChanges):
			log.Info("nothing to save")
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	return 0
}

// printComments lists every comment one per line, offset ascending with
// containing ranges before their contents.
func printComments(session *app.Session) {
	comments := session.Document().Comments()
	if len(comments) == 0 {
		fmt.Println("no comments")
		return
	}
	for _, c := range comments {
		if c.Length == 0 {
			fmt.Printf("0x%08x          %s\n", c.Offset, c.Preview(previewWidth))
			continue
		}
		fmt.Printf("0x%08x+%-8d %s\n", c.Offset, c.Length, c.Preview(previewWidth))
	}
}

// watchScripts re-runs a script whenever its file changes, until the
// context is cancelled. A failed run rolls back and the loop keeps going,
// so script errors can be fixed and saved again.
func watchScripts(ctx context.Context, session *app.Session, scripts []string, log *app.Logger) error {
	w, err := watcher.New()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	byPath := make(map[string]string, len(scripts))
	for _, s := range scripts {
		abs, err := filepath.Abs(s)
		if err != nil {
			return err
		}
		if err := w.Watch(s); err != nil {
			return fmt.Errorf("watching %s: %w", s, err)
		}
		byPath[abs] = s
	}

	log.Info("watching %d script(s), press Ctrl-C to stop", len(scripts))
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-w.Events():
			if !ok {
				return nil
			}
			scriptPath, known := byPath[path]
			if !known {
				continue
			}
			if err := session.RunScript(ctx, scriptPath); err != nil {
				log.Error("%v", err)
			}
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			log.Warn("watcher: %v", err)
		}
	}
}

type scriptList []string

func (s *scriptList) String() string {
	return fmt.Sprint([]string(*s))
}

func (s *scriptList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func parseFlags() options {
	var opts options
	var scripts scriptList
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "bytedoc.toml", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "bytedoc.toml", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.Var(&scripts, "script", "Lua script to run against the file (repeatable)")
	flag.BoolVar(&opts.summary, "summary", false, "Print a metadata summary")
	flag.BoolVar(&opts.comments, "comments", false, "List the file's comments")
	flag.BoolVar(&opts.save, "save", false, "Save the file and its metadata side-car")
	flag.BoolVar(&opts.watch, "watch", false, "Keep running and re-run scripts when they change")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "bytedoc - annotate and script binary files\n\n")
		fmt.Fprintf(os.Stderr, "Usage: bytedoc [options] FILE\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bytedoc -summary firmware.bin\n")
		fmt.Fprintf(os.Stderr, "  bytedoc -script mark_header.lua -save firmware.bin\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("bytedoc %s (%s)\n", version, commit)
		os.Exit(0)
	}

	if opts.logLevel != "" {
		switch opts.logLevel {
		case "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q\n", opts.logLevel)
			os.Exit(1)
		}
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	opts.file = flag.Arg(0)
	opts.scripts = scripts
	return opts
}
