package pdf

import (
	"context"
	"fmt"
	"log"
	"time"

	pdferrors "github.com/a3tai/mcp-pdf-tagger/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/security"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/stability"
)

// DefaultSuffix is appended to the input name when no output path is given
const DefaultSuffix = "-tagged"

// TagDefaults are the tagging options used when a request does not override them
type TagDefaults struct {
	Role         string
	Tag          string
	Policy       pdferrors.Policy
	Overwrite    bool
	Verify       bool
	Suffix       string
	PreviewLimit int
	// Timeout bounds one tagging run, stability.DefaultConfig().Timeout when zero
	Timeout time.Duration
	Logger  *log.Logger
}

// Service handles PDF file operations by orchestrating the tagging components
type Service struct {
	maxFileSize   int64
	defaults      TagDefaults
	validator     *Validator
	search        *Search
	pathValidator *security.PathValidator
	serverInfo    *PDFServerInfo
	guard         *stability.Guard
}

// NewService creates a new PDF service with all components
func NewService(maxFileSize int64, configuredDirectory string, defaults TagDefaults) (*Service, error) {
	pathValidator, err := security.NewPathValidator(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	if defaults.Suffix == "" {
		defaults.Suffix = DefaultSuffix
	}
	if defaults.Logger == nil {
		defaults.Logger = log.Default()
	}
	guardConfig := stability.DefaultConfig()
	if defaults.Timeout > 0 {
		guardConfig.Timeout = defaults.Timeout
	}
	defaults.Timeout = guardConfig.Timeout

	s := &Service{
		maxFileSize:   maxFileSize,
		defaults:      defaults,
		validator:     NewValidator(maxFileSize),
		search:        NewSearch(maxFileSize),
		pathValidator: pathValidator,
		guard:         stability.NewGuard(guardConfig, defaults.Logger),
	}
	s.serverInfo = NewPDFServerInfo(s)
	return s, nil
}

// Health reports the outcome of the tagging runs so far
func (s *Service) Health() stability.Health {
	return s.guard.Health()
}

// resolve turns a tool supplied path into an absolute path inside the
// configured directory
func (s *Service) resolve(path string) (string, error) {
	resolved, err := s.pathValidator.ResolvePath(path)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	return resolved, nil
}

// PDFValidateFile performs validation on a PDF file
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	req.Path = path
	return s.validator.ValidateFile(req)
}

// PDFSearchDirectory searches for PDF files in a directory
func (s *Service) PDFSearchDirectory(req PDFSearchDirectoryRequest) (*PDFSearchDirectoryResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.GetConfiguredDirectory()
	}

	dir, err := s.resolve(req.Directory)
	if err != nil {
		return nil, err
	}
	if err := s.pathValidator.ValidateDirectory(dir); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Directory = dir
	return s.search.SearchDirectory(req)
}

// PDFServerInfo returns server capabilities, the tagging defaults and the
// PDF files in the configured directory
func (s *Service) PDFServerInfo(ctx context.Context, _ PDFServerInfoRequest, serverName, version string) (*PDFServerInfoResult, error) {
	return s.serverInfo.GetServerInfo(ctx, serverName, version, s.pathValidator.GetConfiguredDirectory())
}

// GetMaxFileSize returns the configured maximum file size
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// Defaults returns the tagging defaults
func (s *Service) Defaults() TagDefaults {
	return s.defaults
}

// IsValidPDF checks if a file is a valid PDF
func (s *Service) IsValidPDF(filePath string) bool {
	return s.validator.IsValidPDF(filePath)
}

// ValidateConfiguration checks the limits the service was created with
func (s *Service) ValidateConfiguration() error {
	if s.maxFileSize <= 0 {
		return fmt.Errorf("maxFileSize must be greater than 0")
	}

	if s.maxFileSize > 1024*1024*1024 { // 1GB limit
		return fmt.Errorf("maxFileSize cannot exceed 1GB")
	}

	if s.defaults.Policy != pdferrors.PolicySkip && s.defaults.Policy != pdferrors.PolicyAbort {
		return fmt.Errorf("unknown stream failure policy: %d", s.defaults.Policy)
	}

	return nil
}
