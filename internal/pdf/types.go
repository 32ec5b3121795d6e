package pdf

import (
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/structtree"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/tagger"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
	// Tagged is set only when the search asked for tagging status
	Tagged *bool `json:"tagged,omitempty"`
}

// Request Types

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// PDFTagFileRequest asks for a tagged copy of a PDF file
type PDFTagFileRequest struct {
	Path string `json:"path"`
	// Output defaults to Path with the configured suffix before the extension
	Output string `json:"output,omitempty"`
	// Role and Tag override the configured structure role and marked content tag
	Role string `json:"role,omitempty"`
	Tag  string `json:"tag,omitempty"`
	// OnError is "skip" or "abort", the configured policy when empty
	OnError string `json:"on_error,omitempty"`
	// Overwrite allows replacing an existing structure tree
	Overwrite *bool `json:"overwrite,omitempty"`
	// Replace allows writing over an existing output file
	Replace bool  `json:"replace,omitempty"`
	Verify  *bool `json:"verify,omitempty"`
}

// PDFStructureInfoRequest asks for the tagging state of a PDF file
type PDFStructureInfoRequest struct {
	Path string `json:"path"`
}

// PDFSearchDirectoryRequest represents a request to search for PDF files in a directory
type PDFSearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
	// WithStatus opens every match to report whether it is tagged
	WithStatus bool `json:"with_status,omitempty"`
}

// PDFServerInfoRequest represents a request for server information
type PDFServerInfoRequest struct{}

// Response Types

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// PDFTagFileResult describes a completed tagging run
type PDFTagFileResult struct {
	Path   string         `json:"path"`
	Output string         `json:"output"`
	Size   int64          `json:"size"`
	Role   string         `json:"role"`
	Tag    string         `json:"tag"`
	Policy string         `json:"on_error"`
	Report *tagger.Report `json:"report"`
}

// PDFStructureInfoResult describes the structure tree of a PDF file
type PDFStructureInfoResult struct {
	Path        string           `json:"path"`
	Pages       int              `json:"pages"`
	Streams     int              `json:"content_streams"`
	Tagged      bool             `json:"tagged"`
	Marked      bool             `json:"marked"`
	Encrypted   bool             `json:"encrypted"`
	Permissions string           `json:"permissions"`
	Structure   *structtree.Info `json:"structure,omitempty"`
	Message     string           `json:"message,omitempty"`
}

// PDFSearchDirectoryResult represents the result of a directory search operation
type PDFSearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// PDFServerInfoResult represents server information and capabilities
type PDFServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	Defaults          Defaults   `json:"defaults"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	Cache             CacheStats `json:"cache"`
	UsageGuidance     string     `json:"usage_guidance"`
}

// Defaults are the tagging options applied when a request leaves them out
type Defaults struct {
	Role      string `json:"role"`
	Tag       string `json:"tag"`
	OnError   string `json:"on_error"`
	Overwrite bool   `json:"overwrite"`
	Verify    bool   `json:"verify"`
	Suffix    string `json:"suffix"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
