package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"Go2LineCount/internal/config"
	"Go2LineCount/internal/engine/manager"
	"Go2LineCount/internal/factory"
	"Go2LineCount/internal/model"

	"go.uber.org/automaxprocs/maxprocs"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// options holds the command line after parsing. set records the flags the
// user actually passed so they override the config file.
type options struct {
	configPath string
	sortBy     string
	maxItems   int
	verbose    bool
	input      string
	set        map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("lc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: lc [flags] [file]")
		fmt.Fprintln(stderr, "Counts identical lines of file (or standard input) and prints 'line<TAB>count'.")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.sortBy, "sort-by", "count", "output order: count, key or none")
	fs.StringVar(&opts.sortBy, "s", "count", "shorthand for -sort-by")
	fs.IntVar(&opts.maxItems, "max-items", 0, "print at most this many lines, a positive integer (default prints all)")
	fs.IntVar(&opts.maxItems, "n", 0, "shorthand for -max-items")
	fs.IntVar(&opts.maxItems, "top", 0, "alias for -max-items")
	fs.BoolVar(&opts.verbose, "v", false, "log progress to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			opts.set["sort-by"] = true
		case "n", "top":
			opts.set["max-items"] = true
		default:
			opts.set[f.Name] = true
		}
	})

	switch fs.NArg() {
	case 0:
	case 1:
		opts.input = fs.Arg(0)
	default:
		fs.Usage()
		return nil, fmt.Errorf("expected at most one input file, got %d", fs.NArg())
	}
	return opts, nil
}

// loadConfig layers defaults, the optional config file and the flags.
func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}
	if opts.set["sort-by"] {
		cfg.Counter.SortBy = opts.sortBy
	}
	if opts.set["max-items"] {
		// max_items: 0 in the file means unset; on the command line it is out of range.
		if opts.maxItems < 1 {
			return nil, &model.ConfigError{Field: "max-items", Err: fmt.Errorf("must be a positive integer, got %d", opts.maxItems)}
		}
		cfg.Counter.MaxItems = opts.maxItems
	}
	if opts.input != "" {
		cfg.Counter.Input = opts.input
	}
	return cfg, cfg.Validate()
}

// run executes one counting run. Canceling ctx aborts emission and fails the run.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	errLog := log.New(stderr, "lc: ", 0)

	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		errLog.Println(err)
		return exitUsage
	}

	if opts.verbose {
		log.SetOutput(stderr)
	} else {
		log.SetOutput(io.Discard)
	}
	if _, err := maxprocs.Set(maxprocs.Logger(log.Printf)); err != nil {
		log.Printf("Failed to set GOMAXPROCS: %v", err)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		errLog.Println(err)
		return exitUsage
	}
	log.Println("Configuration loaded successfully.")

	writers, err := factory.CreateWriters(cfg)
	if err != nil {
		errLog.Println(err)
		return exitUsage
	}

	mgr, err := manager.NewManager(cfg, writers)
	if err != nil {
		errLog.Println(err)
		return exitUsage
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			errLog.Println(err)
		}
	}()

	var in io.Reader = stdin
	if path := cfg.Counter.Input; path != "" && path != "-" {
		f, err := manager.OpenInput(path)
		if err != nil {
			errLog.Println(err)
			return exitError
		}
		defer f.Close()
		in = f
	}

	// A closed stdout is a normal way for a reader like head to end the run.
	// SIGINT and SIGTERM keep their default disposition and terminate the process.
	pipeCtx, stop := signal.NotifyContext(ctx, syscall.SIGPIPE)
	defer stop()

	summary, err := mgr.Run(pipeCtx, in, stdout)
	if err != nil {
		errLog.Println(err)
		return exitError
	}
	if err := ctx.Err(); err != nil {
		errLog.Printf("run aborted after %d of %d lines: %v", summary.Emitted, summary.DistinctRecords, err)
		return exitError
	}
	log.Printf("Done: %d records, %d distinct, %d lines emitted.", summary.TotalRecords, summary.DistinctRecords, summary.Emitted)
	return exitOK
}
