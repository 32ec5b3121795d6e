package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/a3tai/mcp-pdf-tagger/internal/pdf"
	pdferrors "github.com/a3tai/mcp-pdf-tagger/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/tagger"
)

// options holds the parsed command line
type options struct {
	input     string
	output    string
	role      string
	tag       string
	onError   string
	format    string
	overwrite bool
	replace   bool
	verify    bool
	verbose   bool
	raw       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run tags one file and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		fmt.Fprintf(stderr, "Usage: pdf_tag [options] input.pdf\n")
		return 2
	}

	policy, err := pdferrors.ParsePolicy(opts.onError)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := log.New(io.Discard, "", 0)
	if opts.verbose {
		logger = log.New(stderr, "pdf_tag: ", log.LstdFlags)
	}

	report, err := tagFile(ctx, opts, tagger.Options{
		Role:      opts.role,
		Tag:       opts.tag,
		Policy:    policy,
		Overwrite: opts.overwrite,
		Verify:    opts.verify,
		Logger:    logger,

		AllowUnsupportedFilters: opts.raw,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error tagging %s: %v\n", opts.input, err)
		return 1
	}

	if err := outputReport(stdout, opts, report); err != nil {
		fmt.Fprintf(stderr, "Error writing report: %v\n", err)
		return 1
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("pdf_tag", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.output, "o", "", "Output file (default: input name with -tagged suffix)")
	fs.StringVar(&opts.role, "role", "", "Structure role of each element (default P)")
	fs.StringVar(&opts.tag, "tag", "", "Marked content tag (default Span)")
	fs.StringVar(&opts.onError, "onerror", "skip", "On stream failure: skip or abort")
	fs.StringVar(&opts.format, "format", "text", "Report format: text, json")
	fs.BoolVar(&opts.overwrite, "overwrite", false, "Replace an existing structure tree")
	fs.BoolVar(&opts.replace, "replace", false, "Write over an existing output file")
	fs.BoolVar(&opts.verify, "verify", false, "Compare page text before and after tagging")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log progress to stderr")
	fs.BoolVar(&opts.raw, "raw-filters", false, "Tag streams with filters other than FlateDecode without decoding them")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("exactly one input PDF required")
	}
	if opts.format != "text" && opts.format != "json" {
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}

	opts.input = fs.Arg(0)
	if opts.output == "" {
		opts.output = pdf.OutputPath(opts.input, pdf.DefaultSuffix)
	}
	return opts, nil
}

// tagFile tags opts.input into a temporary file next to opts.output and
// renames it into place once tagging succeeded
func tagFile(ctx context.Context, opts *options, topts tagger.Options) (*tagger.Report, error) {
	inAbs, err := filepath.Abs(opts.input)
	if err != nil {
		return nil, err
	}
	outAbs, err := filepath.Abs(opts.output)
	if err != nil {
		return nil, err
	}
	if inAbs == outAbs {
		return nil, fmt.Errorf("output would overwrite the input file")
	}
	if _, err := os.Stat(outAbs); err == nil && !opts.replace {
		return nil, fmt.Errorf("output file already exists: %s (use -replace)", opts.output)
	}

	in, err := os.Open(inAbs)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(outAbs), ".tagging-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("create output: %w", err)
	}

	report, err := tagger.New(topts).TagFile(ctx, in, tmp)
	if err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), outAbs); err != nil {
		return nil, fmt.Errorf("rename output: %w", err)
	}
	return report, nil
}

// fileReport is the JSON document printed with -format json
type fileReport struct {
	Input  string         `json:"input"`
	Output string         `json:"output"`
	Report *tagger.Report `json:"report"`
}

func outputReport(w io.Writer, opts *options, report *tagger.Report) error {
	if opts.format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(fileReport{Input: opts.input, Output: opts.output, Report: report})
	}

	fmt.Fprintf(w, "Tagged %s -> %s\n", opts.input, opts.output)
	fmt.Fprintf(w, "  Pages:              %d\n", report.Pages)
	fmt.Fprintf(w, "  Content streams:    %d (%d tagged, %d skipped)\n",
		report.Streams, report.StreamsTagged, report.StreamsSkipped)
	fmt.Fprintf(w, "  MCIDs:              %d\n", report.MCIDs)
	fmt.Fprintf(w, "  Structure elements: %d\n", report.StructElements)
	for _, e := range report.Errors.All() {
		fmt.Fprintf(w, "  ! %v\n", e)
	}
	if v := report.Verification; v != nil {
		switch {
		case v.Error != "":
			fmt.Fprintf(w, "  Verification:       not completed (%s)\n", v.Error)
		case v.OK():
			fmt.Fprintf(w, "  Verification:       %d of %d pages match\n", v.Matched, v.Pages)
		default:
			fmt.Fprintf(w, "  Verification:       text differs on pages %v\n", v.Mismatched)
		}
	}
	return nil
}
