// Package main is the entry point for the bracketcolor tool.
//
// bracketcolor loads a source file, classifies it with a chroma lexer and
// colors its bracket pairs by nesting depth. By default it prints the
// bracket index of every enabled kind as JSON; -view shows the colored
// file in the terminal and reloads the configuration when it changes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/bracketcolor/internal/config"
	"github.com/dshills/bracketcolor/internal/logging"
	"github.com/dshills/bracketcolor/internal/palette"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Options holds the command-line settings.
type Options struct {
	ConfigPath string
	LogPath    string
	LogLevel   string
	Background string
	Query      string
	Color      bool
	Stats      bool
	View       bool
	Edits      editList
	File       string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger, closeLog, err := newLogger(opts, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	doc, err := openDocument(opts, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.View {
		err = view(opts, doc, logger)
	} else {
		err = dump(os.Stdout, opts, doc)
	}
	doc.Close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() Options {
	var opts Options
	var showVersion bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.LogPath, "log", "", "Write log output to this file")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
	flag.StringVar(&opts.Background, "background", "", "Editor background color, e.g. #1e1e1e, or a Scintilla BGR value such as bgr:0x1e1e1e")
	flag.StringVar(&opts.Query, "query", "", "Print only this gjson path of the report")
	flag.BoolVar(&opts.Color, "color", false, "Colorize JSON output")
	flag.BoolVar(&opts.Stats, "stats", false, "Include drain metrics in the report")
	flag.BoolVar(&opts.View, "view", false, "Show the colored file in the terminal")
	flag.Var(&opts.Edits, "edit", "Apply an edit before reporting: +POS:TEXT inserts, -POS:LEN deletes (repeatable)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "bracketcolor - color bracket pairs by nesting depth\n\n")
		fmt.Fprintf(os.Stderr, "Usage: bracketcolor [options] file\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bracketcolor main.go                     Print the bracket index\n")
		fmt.Fprintf(os.Stderr, "  bracketcolor -query kinds.paren main.go  Print one kind\n")
		fmt.Fprintf(os.Stderr, "  bracketcolor -edit +10:'(x)' main.go     Report after an insertion\n")
		fmt.Fprintf(os.Stderr, "  bracketcolor -view -c colors.toml main.go\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("bracketcolor %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.File = flag.Arg(0)

	if opts.LogLevel != "" {
		switch opts.LogLevel {
		case "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
			os.Exit(1)
		}
	}
	if opts.Background != "" {
		if _, err := parseBackground(opts.Background); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid background: %v\n", err)
			os.Exit(1)
		}
	}

	// Relative config paths are resolved now so the watcher sees the
	// same file after any chdir.
	if opts.ConfigPath != "" {
		if abs, err := filepath.Abs(opts.ConfigPath); err == nil {
			opts.ConfigPath = abs
		}
	}
	return opts
}

// newLogger writes to stderr, or to -log if given. The viewer owns the
// terminal, so without -log it logs nothing.
func newLogger(opts Options, cfg *config.Config) (*logging.Logger, func(), error) {
	level := cfg.Level()
	if opts.LogLevel != "" {
		level = logging.ParseLevel(opts.LogLevel)
	}

	var out io.Writer = os.Stderr
	closer := func() {}
	switch {
	case opts.LogPath != "":
		f, err := os.OpenFile(opts.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log: %w", err)
		}
		out = f
		closer = func() { _ = f.Close() }
	case opts.View:
		return logging.NullLogger, closer, nil
	}

	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Output = out
	return logging.New(lc), closer, nil
}

var errBadEdit = errors.New("bad edit")

// parseBackground accepts a color spec or "bgr:" followed by a 0xBBGGRR
// integer as reported by Scintilla-style editors.
func parseBackground(s string) (colorful.Color, error) {
	v, ok := strings.CutPrefix(s, "bgr:")
	if !ok {
		return palette.ParseColor(s)
	}
	n, err := strconv.ParseUint(v, 0, 32)
	if err != nil || n > 0xFFFFFF {
		return colorful.Color{}, fmt.Errorf("invalid BGR color %q", v)
	}
	return palette.FromBGR(uint32(n)), nil
}
