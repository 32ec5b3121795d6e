package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdferrors "github.com/a3tai/mcp-pdf-tagger/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/tagger"
)

// OutputPath derives the tagged file name from the input: suffix goes
// between the base name and the extension
func OutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + suffix + ext
}

// PDFTagFile writes a tagged copy of a PDF file. The output is written to a
// temporary file next to its destination and renamed into place, so a
// failed run never leaves a partial file behind.
func (s *Service) PDFTagFile(ctx context.Context, req PDFTagFileRequest) (*PDFTagFileResult, error) {
	input, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	if _, err := s.validator.validatePDFFile(input); err != nil {
		return nil, err
	}

	output := req.Output
	if output == "" {
		output = OutputPath(input, s.defaults.Suffix)
	}
	output, err = s.pathValidator.ValidateOutputPath(output)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if sameFile(input, output) {
		return nil, fmt.Errorf("output would overwrite the input file: %s", output)
	}
	if _, err := os.Stat(output); err == nil && !req.Replace {
		return nil, fmt.Errorf("output file already exists: %s", output)
	}

	opts, err := s.tagOptions(req)
	if err != nil {
		return nil, err
	}

	report, err := s.tagInto(ctx, input, output, opts)
	if err != nil {
		return nil, err
	}

	s.serverInfo.cache.Invalidate()

	result := &PDFTagFileResult{
		Path:   input,
		Output: output,
		Role:   opts.Role,
		Tag:    opts.Tag,
		Policy: opts.Policy.String(),
		Report: report,
	}
	if info, err := os.Stat(output); err == nil {
		result.Size = info.Size()
	}
	return result, nil
}

func (s *Service) tagInto(ctx context.Context, input, output string, opts tagger.Options) (*tagger.Report, error) {
	in, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(output), ".tagging-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	tmpName := tmp.Name()

	// CreateTemp uses 0600; the tagged copy keeps the input's permissions
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to create output: %w", err)
	}

	var report *tagger.Report
	err = s.guard.Run(ctx, "tag "+filepath.Base(input), func(ctx context.Context) error {
		var err error
		report, err = tagger.New(opts).TagFile(ctx, in, tmp)
		return err
	})
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to write output: %w", closeErr)
	}
	if err != nil {
		os.Remove(tmpName)
		var perr *pdferrors.PDFError
		if errors.As(err, &perr) {
			perr.WithFile(input)
		}
		return nil, err
	}

	report.Errors.FilePath = input
	for _, perr := range report.Errors.All() {
		perr.WithFile(input)
	}

	if err := os.Rename(tmpName, output); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to move output into place: %w", err)
	}
	return report, nil
}

// tagOptions merges the request overrides onto the service defaults
func (s *Service) tagOptions(req PDFTagFileRequest) (tagger.Options, error) {
	d := s.defaults
	opts := tagger.Options{
		Role:         d.Role,
		Tag:          d.Tag,
		Policy:       d.Policy,
		Overwrite:    d.Overwrite,
		Verify:       d.Verify,
		PreviewLimit: d.PreviewLimit,
		Logger:       d.Logger,
	}

	if req.Role != "" {
		opts.Role = req.Role
	}
	if req.Tag != "" {
		opts.Tag = req.Tag
	}
	if req.OnError != "" {
		policy, err := pdferrors.ParsePolicy(req.OnError)
		if err != nil {
			return opts, err
		}
		opts.Policy = policy
	}
	if req.Overwrite != nil {
		opts.Overwrite = *req.Overwrite
	}
	if req.Verify != nil {
		opts.Verify = *req.Verify
	}

	if !isPDFName(opts.Role) {
		return opts, fmt.Errorf("invalid structure role: %q", opts.Role)
	}
	if !isPDFName(opts.Tag) {
		return opts, fmt.Errorf("invalid marked content tag: %q", opts.Tag)
	}
	return opts, nil
}

// isPDFName accepts an empty string (the tagger default) or a name made of
// regular characters only
func isPDFName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c >= 0x7f || strings.IndexByte("()<>[]{}/%#", c) >= 0 {
			return false
		}
	}
	return true
}

func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
