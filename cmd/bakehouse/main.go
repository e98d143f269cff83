// Command bakehouse bakes an HTML document against a CSS-like recipe
// stylesheet, mirroring cnxeasybake's collator.py command line: a
// required stylesheet argument plus optional input/output files,
// defaulting to stdin/stdout.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"github.com/dpotapov/bakehouse/oven"
	"github.com/dpotapov/bakehouse/oven/doc"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "bakehouse:", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	fs := flag.NewFlagSet("bakehouse", flag.ContinueOnError)
	var (
		showVersion   bool
		debugLog      bool
		stopAt        string
		coverageFile  string
		repeatableIDs bool
	)
	fs.BoolVar(&showVersion, "v", false, "print version and exit")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.BoolVar(&debugLog, "d", false, "send debugging info to stderr")
	fs.BoolVar(&debugLog, "debug", false, "send debugging info to stderr")
	fs.StringVar(&stopAt, "s", "", "stop after building the recipe for this pass, without executing it")
	fs.StringVar(&stopAt, "stop-at", "", "stop after building the recipe for this pass, without executing it")
	fs.StringVar(&coverageFile, "c", "", "write an LCOV coverage report here (prefix with + to append)")
	fs.StringVar(&coverageFile, "coverage-file", "", "write an LCOV coverage report here (prefix with + to append)")
	fs.BoolVar(&repeatableIDs, "use-repeatable-ids", false, "generate sequential ids instead of random ones")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: bakehouse [flags] css_rules [html_in] [html_out]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		return err
	}

	if showVersion {
		printVersion()
		return nil
	}

	args := fs.Args()
	if len(args) < 1 {
		fs.Usage()
		return fmt.Errorf("css_rules is required")
	}

	cssFile := args[0]
	stylesheet, err := os.ReadFile(cssFile)
	if err != nil {
		return fmt.Errorf("reading css rules: %w", err)
	}

	in := os.Stdin
	if len(args) > 1 {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("opening html_in: %w", err)
		}
		defer f.Close()
		in = f
	}

	out := os.Stdout
	if len(args) > 2 {
		f, err := os.Create(args[2])
		if err != nil {
			return fmt.Errorf("creating html_out: %w", err)
		}
		defer f.Close()
		out = f
	}

	logLevel := slog.LevelWarn
	if debugLog {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	o, err := oven.New(stylesheet, oven.WithLogger(logger), oven.WithRepeatableIDs(repeatableIDs))
	if err != nil {
		return fmt.Errorf("compiling stylesheet: %w", err)
	}

	root, err := doc.Parse(in)
	if err != nil {
		return fmt.Errorf("parsing html: %w", err)
	}

	if stopAt != "" {
		if err := o.BuildPassOnly(root, stopAt); err != nil {
			return fmt.Errorf("building pass %q: %w", stopAt, err)
		}
	} else if err := o.Bake(root); err != nil {
		return fmt.Errorf("baking: %w", err)
	}

	if err := doc.Render(out, root); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}

	if coverageFile != "" {
		if err := writeCoverage(o, coverageFile); err != nil {
			return fmt.Errorf("writing coverage: %w", err)
		}
	}
	return nil
}

func writeCoverage(o *oven.Oven, path string) error {
	append_ := strings.HasPrefix(path, "+")
	path = strings.TrimPrefix(path, "+")

	flags := os.O_CREATE | os.O_WRONLY
	if append_ {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.WriteString(f, o.CoverageReport())
	return err
}

func printVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		fmt.Println("bakehouse (unknown version)")
		return
	}
	fmt.Printf("bakehouse %s\n", info.Main.Version)
}
