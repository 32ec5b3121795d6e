package mcp

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/a3tai/mcp-pdf-tagger/internal/config"
	"github.com/a3tai/mcp-pdf-tagger/internal/descriptions"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     *log.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
		server.WithRecovery(),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     log.Default(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pdfTagFileTool := mcp.NewTool(
		"pdf_tag_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_tag_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file to tag"),
		),
		mcp.WithString("output",
			mcp.Description("Where to write the tagged file (defaults to the input name plus the configured suffix)"),
		),
		mcp.WithString("role",
			mcp.Description("Structure role of each element, e.g. P"),
		),
		mcp.WithString("tag",
			mcp.Description("Marked content tag wrapped around each text operator, e.g. Span"),
		),
		mcp.WithString("on_error",
			mcp.Description("What to do when a content stream cannot be tagged"),
			mcp.Enum("skip", "abort"),
		),
		mcp.WithBoolean("overwrite",
			mcp.Description("Replace an existing structure tree instead of refusing the document"),
		),
		mcp.WithBoolean("replace",
			mcp.Description("Write over an existing output file"),
		),
		mcp.WithBoolean("verify",
			mcp.Description("Compare extracted page text before and after tagging"),
		),
	)
	s.mcpServer.AddTool(pdfTagFileTool, s.handlePDFTagFile)

	pdfStructureInfoTool := mcp.NewTool(
		"pdf_structure_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_structure_info")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(pdfStructureInfoTool, s.handlePDFStructureInfo)

	pdfValidateFileTool := mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(pdfValidateFileTool, s.handlePDFValidateFile)

	pdfSearchDirectoryTool := mcp.NewTool(
		"pdf_search_directory",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_search_directory")),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
		mcp.WithBoolean("with_status",
			mcp.Description("Open each match and report whether it is tagged"),
		),
	)
	s.mcpServer.AddTool(pdfSearchDirectoryTool, s.handlePDFSearchDirectory)

	pdfServerInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	)
	s.mcpServer.AddTool(pdfServerInfoTool, s.handlePDFServerInfo)
}

// optionalString returns a string argument, "" when absent or of another type
func optionalString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// optionalBool returns a boolean argument, nil when absent
func optionalBool(args map[string]any, key string) *bool {
	switch v := args[key].(type) {
	case bool:
		return &v
	case string:
		b := strings.EqualFold(v, "true")
		return &b
	}
	return nil
}

// Handler functions
func (s *Server) handlePDFTagFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	req := pdf.PDFTagFileRequest{
		Path:      path,
		Output:    optionalString(args, "output"),
		Role:      optionalString(args, "role"),
		Tag:       optionalString(args, "tag"),
		OnError:   optionalString(args, "on_error"),
		Overwrite: optionalBool(args, "overwrite"),
		Verify:    optionalBool(args, "verify"),
	}
	if replace := optionalBool(args, "replace"); replace != nil {
		req.Replace = *replace
	}

	result, err := s.pdfService.PDFTagFile(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFTagFileResult(result)), nil
}

func (s *Server) handlePDFStructureInfo(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFStructureInfo(pdf.PDFStructureInfoRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFStructureInfoResult(result)), nil
}

func (s *Server) handlePDFValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.PDFValidateFileRequest{Path: path}
	result, err := s.pdfService.PDFValidateFile(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages)", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFSearchDirectory(_ context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	req := pdf.PDFSearchDirectoryRequest{
		Directory: optionalString(args, "directory"),
		Query:     optionalString(args, "query"),
	}
	if withStatus := optionalBool(args, "with_status"); withStatus != nil {
		req.WithStatus = *withStatus
	}

	result, err := s.pdfService.PDFSearchDirectory(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = s.formatPDFSearchDirectoryResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.PDFServerInfo(ctx, pdf.PDFServerInfoRequest{}, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFServerInfoResult(result)), nil
}

// Formatting methods
func (s *Server) formatPDFTagFileResult(result *pdf.PDFTagFileResult) string {
	r := result.Report
	var b strings.Builder

	fmt.Fprintf(&b, "Tagged PDF written to: %s\n", result.Output)
	fmt.Fprintf(&b, "Source: %s\n", result.Path)
	fmt.Fprintf(&b, "Size: %d bytes\n", result.Size)
	fmt.Fprintf(&b, "Role: %s, Tag: %s, On error: %s\n\n", result.Role, result.Tag, result.Policy)

	fmt.Fprintf(&b, "Pages: %d\n", r.Pages)
	fmt.Fprintf(&b, "Content streams: %d (%d tagged, %d skipped)\n", r.Streams, r.StreamsTagged, r.StreamsSkipped)
	fmt.Fprintf(&b, "Marked content IDs: %d\n", r.MCIDs)
	fmt.Fprintf(&b, "Structure elements: %d\n", r.StructElements)
	fmt.Fprintf(&b, "Marked content references: %d\n", r.MarkedContentRefs)

	if errs := r.Errors.All(); len(errs) > 0 {
		fmt.Fprintf(&b, "\nSkipped streams (%s):\n", r.Errors.Summary())
		for _, e := range errs {
			fmt.Fprintf(&b, "  - page %d stream %d: %s\n", e.PageNumber, e.StreamIndex, e.Error())
		}
	}

	if len(r.Runs) > 0 {
		fmt.Fprintf(&b, "\nTagged text (first %d):\n", len(r.Runs))
		for _, run := range r.Runs {
			fmt.Fprintf(&b, "  MCID %d, page %d, %s: %q\n", run.MCID, run.Page, run.Operator, run.Text)
		}
	}

	if v := r.Verification; v != nil {
		fmt.Fprintf(&b, "\nText verification: ")
		switch {
		case v.Error != "":
			fmt.Fprintf(&b, "not completed (%s)\n", v.Error)
		case v.OK():
			fmt.Fprintf(&b, "%d of %d pages match\n", v.Matched, v.Pages)
		default:
			fmt.Fprintf(&b, "text differs on pages %v\n", v.Mismatched)
		}
	}

	return b.String()
}

func (s *Server) formatPDFStructureInfoResult(result *pdf.PDFStructureInfoResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PDF Structure Information\n")
	fmt.Fprintf(&b, "File: %s\n", result.Path)
	fmt.Fprintf(&b, "Pages: %d\n", result.Pages)
	fmt.Fprintf(&b, "Content streams: %d\n", result.Streams)
	fmt.Fprintf(&b, "Tagged: %t\n", result.Tagged)
	fmt.Fprintf(&b, "Marked: %t\n", result.Marked)
	if result.Encrypted {
		fmt.Fprintf(&b, "Encrypted: %s\n", result.Permissions)
	}

	if st := result.Structure; st != nil {
		fmt.Fprintf(&b, "Structure elements: %d\n", st.Elements)
		fmt.Fprintf(&b, "Marked content references: %d\n", st.MarkedContentRefs)
		fmt.Fprintf(&b, "MCIDs: %d\n", len(st.MCIDs))
		fmt.Fprintf(&b, "Parent tree entries: %d\n", st.ParentTreeEntries)
		if len(st.Roles) > 0 {
			roles := make([]string, 0, len(st.Roles))
			for role, n := range st.Roles {
				roles = append(roles, fmt.Sprintf("%s=%d", role, n))
			}
			sort.Strings(roles)
			fmt.Fprintf(&b, "Roles: %s\n", strings.Join(roles, ", "))
		}
	}

	if result.Message != "" {
		fmt.Fprintf(&b, "Note: %s\n", result.Message)
	}

	return b.String()
}

func (s *Server) formatPDFSearchDirectoryResult(result *pdf.PDFSearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if file.Tagged != nil {
			text += fmt.Sprintf("   Tagged: %t\n", *file.Tagged)
		}
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatPDFServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🏷️  Defaults: role=%s tag=%s on_error=%s overwrite=%t verify=%t suffix=%s\n\n",
		result.Defaults.Role, result.Defaults.Tag, result.Defaults.OnError,
		result.Defaults.Overwrite, result.Defaults.Verify, result.Defaults.Suffix)

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in default directory\n\n"
	}
	text += fmt.Sprintf("🗂️  Listing cache: %d of %d entries valid (ttl %s)\n\n",
		result.Cache.Valid, result.Cache.Entries, result.Cache.TTL)

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		s.logger.Printf("Starting PDF tagging MCP server in stdio mode")
		s.logger.Printf("PDF directory: %s", s.config.PDFDirectory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
