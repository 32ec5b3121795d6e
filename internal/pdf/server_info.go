package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/a3tai/mcp-pdf-tagger/internal/descriptions"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/contentstream"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/structtree"
)

// DirectoryCache provides TTL-based caching for directory contents
type DirectoryCache struct {
	entries map[string]*CacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

// CacheEntry represents a cached directory scan result
type CacheEntry struct {
	files      []FileInfo
	lastUpdate time.Time
	scanning   bool
	scanMu     sync.Mutex
}

// LazyDirectoryScanner performs efficient directory scanning with limits
type LazyDirectoryScanner struct {
	maxDepth    int
	fileLimit   int
	timeLimit   time.Duration
	skipHidden  bool
	skipSymlink bool
}

// PDFServerInfo builds server info with a cached listing of the configured directory
type PDFServerInfo struct {
	cache   *DirectoryCache
	scanner *LazyDirectoryScanner
	service *Service
}

// ScanResult represents the result of a directory scan
type ScanResult struct {
	Files        []FileInfo
	FromCache    bool
	CacheAge     time.Duration
	ScanTime     time.Duration
	FilesScanned int
	Truncated    bool
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]*CacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves cached directory contents if valid
func (c *DirectoryCache) Get(path string) *CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[path]
	if !exists {
		return nil
	}

	// Check if cache entry is still valid
	if time.Since(entry.lastUpdate) > c.ttl {
		return nil
	}

	return entry
}

// Set stores directory contents in cache
func (c *DirectoryCache) Set(path string, files []FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = &CacheEntry{
		files:      files,
		lastUpdate: time.Now(),
		scanning:   false,
	}
}

// SetScanning marks a directory as currently being scanned
func (c *DirectoryCache) SetScanning(path string, scanning bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[path]
	if !exists {
		entry = &CacheEntry{
			files:      nil,
			lastUpdate: time.Time{},
			scanning:   scanning,
		}
		c.entries[path] = entry
	} else {
		entry.scanning = scanning
	}
}

// IsScanning checks if a directory is currently being scanned
func (c *DirectoryCache) IsScanning(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[path]
	return exists && entry.scanning
}

// CacheStats describes the directory cache
type CacheStats struct {
	Entries int    `json:"entries"`
	Valid   int    `json:"valid"`
	TTL     string `json:"ttl"`
}

// Stats counts all entries and those that have not expired yet
func (c *DirectoryCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{Entries: len(c.entries), TTL: c.ttl.String()}
	for _, entry := range c.entries {
		if time.Since(entry.lastUpdate) <= c.ttl {
			stats.Valid++
		}
	}
	return stats
}

// Invalidate drops every entry, used after a tagged file has been written
func (c *DirectoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path, entry := range c.entries {
		if !entry.scanning {
			delete(c.entries, path)
		}
	}
}

// Clear removes expired entries from cache
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for path, entry := range c.entries {
		if !entry.scanning && now.Sub(entry.lastUpdate) > c.ttl {
			delete(c.entries, path)
		}
	}
}

// NewLazyDirectoryScanner creates a new lazy directory scanner
func NewLazyDirectoryScanner(maxDepth, fileLimit int, timeLimit time.Duration) *LazyDirectoryScanner {
	return &LazyDirectoryScanner{
		maxDepth:    maxDepth,
		fileLimit:   fileLimit,
		timeLimit:   timeLimit,
		skipHidden:  true,
		skipSymlink: true,
	}
}

// ScanDirectory performs lazy directory scanning with context cancellation
func (s *LazyDirectoryScanner) ScanDirectory(ctx context.Context, root string) (*ScanResult, error) {
	startTime := time.Now()
	visited := make(map[string]bool)
	files := []FileInfo{}
	filesScanned := 0
	truncated := false

	err := s.scanRecursive(ctx, root, 0, visited, &files, &filesScanned, &truncated, startTime)

	result := &ScanResult{
		Files:        files,
		FromCache:    false,
		ScanTime:     time.Since(startTime),
		FilesScanned: filesScanned,
		Truncated:    truncated,
	}

	return result, err
}

// scanRecursive performs the actual recursive directory traversal
func (s *LazyDirectoryScanner) scanRecursive(ctx context.Context, path string, depth int,
	visited map[string]bool, files *[]FileInfo, filesScanned *int, truncated *bool, startTime time.Time,
) error {
	// Check context cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Check limits
	if s.maxDepth > 0 && depth >= s.maxDepth {
		return nil
	}

	if s.fileLimit > 0 && len(*files) >= s.fileLimit {
		*truncated = true
		return nil
	}

	if s.timeLimit > 0 && time.Since(startTime) > s.timeLimit {
		*truncated = true
		return nil
	}

	// Resolve symlinks and check for cycles
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		// Skip if we can't resolve symlinks
		return nil
	}

	if visited[realPath] {
		return nil // Skip cycles
	}
	visited[realPath] = true

	// Read directory
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil // Skip directories we can't read
	}

	for _, entry := range entries {
		// Check context periodically
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entryPath := filepath.Join(path, entry.Name())
		*filesScanned++

		// Skip hidden files if configured
		if s.skipHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		// Skip symlinks if configured
		if s.skipSymlink && entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		if entry.IsDir() {
			// Recurse into subdirectory
			if err := s.scanRecursive(ctx, entryPath, depth+1, visited, files, filesScanned, truncated, startTime); err != nil {
				return err
			}
		} else {
			if isPDFFile(entry.Name()) {
				info, err := entry.Info()
				if err != nil {
					continue
				}

				*files = append(*files, newFileInfo(entryPath, info))

				// Check file limit after adding
				if s.fileLimit > 0 && len(*files) >= s.fileLimit {
					*truncated = true
					return nil
				}
			}
		}
	}

	return nil
}

// NewPDFServerInfo creates a new optimized server info handler
func NewPDFServerInfo(service *Service) *PDFServerInfo {
	return &PDFServerInfo{
		cache:   NewDirectoryCache(5 * time.Minute),             // 5-minute cache TTL
		scanner: NewLazyDirectoryScanner(5, 100, 3*time.Second), // max 5 levels, 100 files, 3 second limit
		service: service,
	}
}

// GetServerInfo performs optimized server info retrieval
func (p *PDFServerInfo) GetServerInfo(ctx context.Context, serverName, version, defaultDirectory string) (*PDFServerInfoResult, error) {
	p.cache.Clear()

	// Validate directory
	validatedDir := defaultDirectory
	if err := p.service.pathValidator.ValidateDirectory(defaultDirectory); err != nil {
		validatedDir = p.service.pathValidator.GetConfiguredDirectory()
	}

	// Try to get from cache first
	var scanResult *ScanResult
	var err error

	if cached := p.cache.Get(validatedDir); cached != nil {
		scanResult = &ScanResult{
			Files:     cached.files,
			FromCache: true,
			CacheAge:  time.Since(cached.lastUpdate),
		}
	} else {
		// Check if already scanning
		if p.cache.IsScanning(validatedDir) {
			// Return empty results if scan is in progress to avoid blocking
			scanResult = &ScanResult{
				Files:     []FileInfo{},
				FromCache: false,
			}
		} else {
			// Mark as scanning and perform scan
			p.cache.SetScanning(validatedDir, true)
			defer p.cache.SetScanning(validatedDir, false)

			// Create context with timeout if none provided
			scanCtx := ctx
			if ctx == context.Background() {
				var cancel context.CancelFunc
				scanCtx, cancel = context.WithTimeout(ctx, 10*time.Second)
				defer cancel()
			}

			scanResult, err = p.scanner.ScanDirectory(scanCtx, validatedDir)
			if err != nil && ctx.Err() == nil {
				// A failed scan lists nothing rather than failing server info
				scanResult = &ScanResult{Files: []FileInfo{}}
			}

			// Cache the results
			if scanResult != nil {
				p.cache.Set(validatedDir, scanResult.Files)
			}
		}
	}

	// Build result
	result := &PDFServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  validatedDir,
		MaxFileSize:       p.service.maxFileSize,
		AvailableTools:    p.getAvailableTools(),
		DirectoryContents: scanResult.Files,
		UsageGuidance:     p.getUsageGuidance(),
		Cache:             p.cache.Stats(),
		Defaults: Defaults{
			Role:      orDefault(p.service.defaults.Role, structtree.DefaultRole),
			Tag:       orDefault(p.service.defaults.Tag, contentstream.DefaultTag),
			OnError:   p.service.defaults.Policy.String(),
			Overwrite: p.service.defaults.Overwrite,
			Verify:    p.service.defaults.Verify,
			Suffix:    p.service.defaults.Suffix,
		},
	}

	return result, nil
}

// getAvailableTools returns the list of available tools
func (p *PDFServerInfo) getAvailableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "pdf_tag_file",
			Description: descriptions.GetToolDescription("pdf_tag_file"),
			Usage:       "Use this tool to write a tagged, screen-reader friendly copy of a PDF.",
			Parameters: "path (required): PDF file to tag, " +
				"output (optional): destination path (defaults to the input name plus the configured suffix), " +
				"role (optional): structure role, tag (optional): marked content tag, " +
				"on_error (optional): skip or abort, overwrite (optional): replace an existing structure tree, " +
				"replace (optional): write over an existing output file, verify (optional): compare page text before and after",
		},
		{
			Name:        "pdf_structure_info",
			Description: descriptions.GetToolDescription("pdf_structure_info"),
			Usage:       "Use this tool to see whether a PDF is tagged and what its structure tree contains.",
			Parameters:  "path (required): Full path to the PDF file (supports both absolute and relative paths)",
		},
		{
			Name:        "pdf_validate_file",
			Description: descriptions.GetToolDescription("pdf_validate_file"),
			Usage:       "Use this tool to check if a file is a valid PDF before attempting to tag it.",
			Parameters:  "path (required): Full path to the PDF file (supports both absolute and relative paths)",
		},
		{
			Name:        "pdf_search_directory",
			Description: descriptions.GetToolDescription("pdf_search_directory"),
			Usage: "Use this tool to find PDF files in the default directory or any directory inside it. " +
				"Supports fuzzy search by filename and optional tagging status.",
			Parameters: "directory (optional): Directory path to search (uses the configured directory if empty), " +
				"query (optional): Search query for fuzzy matching, with_status (optional): report whether each file is tagged",
		},
		{
			Name:        "pdf_server_info",
			Description: descriptions.GetToolDescription("pdf_server_info"),
			Usage:       "Use this tool to get server information, tagging defaults and available capabilities.",
			Parameters:  "No parameters required",
		},
	}
}

// getUsageGuidance returns usage guidance for the tagging tools
func (p *PDFServerInfo) getUsageGuidance() string {
	maxFileSizeMB := p.service.maxFileSize / (1024 * 1024)
	d := p.service.defaults

	return fmt.Sprintf(`PDF Tagging MCP Server Usage Guide:

1. START WITH DISCOVERY:
   - Use 'pdf_search_directory' to find available PDF files
   - Pass with_status=true to see which files are already tagged
   - Use 'pdf_server_info' to get server capabilities and current directory contents

2. VALIDATE AND INSPECT:
   - Use 'pdf_validate_file' to check if a file is readable before tagging
   - Use 'pdf_structure_info' to see whether it already has a structure tree

3. TAG:
   - Use 'pdf_tag_file' to write a tagged copy
   - Each text-showing operator gets its own marked content sequence with a unique MCID
   - Each content stream becomes one structure element on its page
   - Text objects that are never closed are left untagged

4. CHECK THE RESULT:
   - Read the report: streams_tagged, streams_skipped, mcids and errors
   - Run 'pdf_structure_info' on the output file
   - Pass verify=true to compare extracted page text before and after tagging

DEFAULTS:
- Structure role: %s
- Marked content tag: %s
- On stream failure: %s
- Replace existing structure trees: %t
- Output suffix: %s

IMPORTANT NOTES:
- All paths must be inside the configured directory
- The server can handle files up to %dMB
- Only unfiltered and FlateDecode content streams can be tagged; others are skipped
- Documents that already have a structure tree are refused unless overwrite=true
- Encrypted documents that forbid modification cannot be tagged`,
		orDefault(d.Role, structtree.DefaultRole), orDefault(d.Tag, contentstream.DefaultTag), d.Policy, d.Overwrite, d.Suffix, maxFileSizeMB)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
