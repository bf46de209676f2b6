package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/grote/lazylist/internal/logger"
	"github.com/grote/lazylist/pkg/config"
	"github.com/grote/lazylist/pkg/listing"
	listingcache "github.com/grote/lazylist/pkg/listing/cache"
	"github.com/grote/lazylist/pkg/provider"
	"golang.org/x/sync/errgroup"
)

const usage = `Usage: lazylist [flags] <command> [args]

Commands:
  ls <dir>...        List all entries of one or more directories
  find <dir> <name>  Look up a single entry by name

Flags:
`

func main() {
	configPath := flag.String("config", "", "Path to config file (default: user config directory)")
	logLevel := flag.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	waitTimeout := flag.Duration("wait-timeout", 0, "Override readiness wait timeout")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lazylist: %v\n", err)
		os.Exit(1)
	}

	// CLI flags win over config file and environment
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *waitTimeout > 0 {
		cfg.Client.WaitTimeout = *waitTimeout
	}

	if err := setupLogging(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "lazylist: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// setupLogging applies the logging configuration.
func setupLogging(cfg *config.LoggingConfig) error {
	logger.SetLevel(cfg.Level)

	switch cfg.Output {
	case "stdout":
		// Default output, nothing to do
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(f)
	}
	return nil
}

// run builds the provider and client, then dispatches the command.
func run(ctx context.Context, cfg *config.Config, args []string) error {
	p, cleanup, err := config.CreateProvider(ctx, &cfg.Provider)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	defer cleanup()

	client := config.CreateClient(&cfg.Client, p)

	switch args[0] {
	case "ls":
		if len(args) < 2 {
			return fmt.Errorf("ls: at least one directory is required")
		}
		return runList(ctx, client, args[1:])
	case "find":
		if len(args) != 3 {
			return fmt.Errorf("find: expected <dir> <name>")
		}
		return runFind(ctx, client, args[1], args[2])
	default:
		return fmt.Errorf("unknown command: %q", args[0])
	}
}

// runList lists every requested directory, concurrently when more than
// one was given. Output order follows the argument order regardless of
// which listing resolves first.
func runList(ctx context.Context, client listingcache.ListingClient, dirs []string) error {
	listings := make([]listing.Listing, len(dirs))

	group, ctx := errgroup.WithContext(ctx)
	for i, dir := range dirs {
		i, dir := i, dir
		group.Go(func() error {
			entries, err := client.ListFiles(ctx, provider.Directory(dir))
			if err != nil {
				return err
			}
			listings[i] = entries
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for i, dir := range dirs {
		if len(dirs) > 1 {
			fmt.Printf("%s:\n", dir)
		}
		printListing(listings[i])
		if len(dirs) > 1 && i < len(dirs)-1 {
			fmt.Println()
		}
	}
	return nil
}

// runFind looks up one entry and prints it, exiting non-zero on a miss.
func runFind(ctx context.Context, client listingcache.ListingClient, dir, name string) error {
	entry, found := client.FindFile(ctx, provider.Directory(dir), name)
	if !found {
		return fmt.Errorf("find: %s not found in %s", name, dir)
	}

	printEntry(*entry)
	return nil
}

// printListing prints entries sorted by name for stable output; the
// listing itself carries no order.
func printListing(entries listing.Listing) {
	sorted := make(listing.Listing, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, entry := range sorted {
		printEntry(entry)
	}
}

func printEntry(entry listing.Entry) {
	if entry.IsDir() {
		fmt.Printf("%-40s %10s\n", entry.Name+"/", "-")
		return
	}

	mimeType := entry.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	fmt.Printf("%-40s %10d  %s\n", entry.Name, entry.Size, mimeType)
}
