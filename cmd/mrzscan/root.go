package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/veridoc/mrzscan/internal/config"
	"github.com/veridoc/mrzscan/internal/logging"
	"github.com/veridoc/mrzscan/internal/scanner"
	"github.com/veridoc/mrzscan/internal/search"
)

type scanOptions struct {
	format        string
	startPage     int
	startPageOnly bool
	maxPages      int
	noParallel    bool
	verbose       bool
}

// NewRootCmd builds the mrzscan command tree.
func NewRootCmd() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "mrzscan <file>",
		Short: "Extract machine-readable zone data from passports and ID documents",
		Long: `mrzscan searches a PDF or image for a machine-readable zone (MRZ)
and prints the extracted fields. Multi-page PDFs are searched page by
page in several rotations until an MRZ is found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text or json")
	cmd.Flags().IntVar(&opts.startPage, "start-page", 0, "1-based page expected to hold the MRZ, tried first")
	cmd.Flags().BoolVar(&opts.startPageOnly, "start-page-only", false, "search only the --start-page page")
	cmd.Flags().IntVar(&opts.maxPages, "max-pages", 0, "limit the search to the first N pages (0 = all)")
	cmd.Flags().BoolVar(&opts.noParallel, "no-parallel", false, "scan pages one at a time")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log scan progress to stderr")

	return cmd
}

func runScan(parent context.Context, path string, opts *scanOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown output format %q (want text or json)", opts.format)
	}
	if opts.startPageOnly && opts.startPage <= 0 {
		return fmt.Errorf("--start-page-only requires --start-page")
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var log *logging.Logger
	if opts.verbose {
		log = logging.NewLogger("mrzscan")
	} else {
		log = logging.NewLoggerWithOutput("mrzscan", io.Discard)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sc := scanner.NewScanner(cfg, log)
	result, err := sc.Scan(ctx, &scanner.Request{
		Filename:      filepath.Base(path),
		Data:          data,
		StartPage:     opts.startPage,
		StartPageOnly: opts.startPageOnly,
		MaxPages:      opts.maxPages,
		Sequential:    opts.noParallel,
	})
	if err != nil {
		if opts.format == "json" {
			printJSON(scanner.ErrorEnvelope(err, 0))
			os.Exit(2)
		}
		return err
	}

	if opts.format == "json" {
		printJSON(scanner.Envelope(result))
	} else {
		printText(result)
	}

	if result.Status != search.StatusSuccess {
		os.Exit(1)
	}
	return nil
}

func printJSON(body map[string]interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(body)
}

func printText(res *search.Result) {
	if res.Status != search.StatusSuccess {
		fmt.Println("--- MRZ Data Not Found ---")
		fmt.Printf("Pages searched:  %d\n", res.TotalPages)
		fmt.Printf("Processing time: %.2fs\n", res.ElapsedSeconds)
		return
	}

	fmt.Println("--- MRZ Data ---")
	keys := make([]string, 0, len(res.Outcome.Fields))
	for k := range res.Outcome.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-16s %s\n", k+":", res.Outcome.Fields[k])
	}
	fmt.Printf("%-16s %d of %d\n", "page:", res.PageNumber, res.TotalPages)
	fmt.Printf("%-16s %d\n", "rotation:", int(res.Outcome.Candidate.Rotation))
	fmt.Printf("%-16s %s\n", "quality_tier:", res.Outcome.Candidate.Tier.String())
	fmt.Printf("%-16s %.2fs\n", "elapsed:", res.ElapsedSeconds)
}
