package mcp

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-tagger/internal/config"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/pdftest"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.PDFDirectory = dir
	cfg.ServerName = "test-server"
	cfg.MaxFileSize = 1024 * 1024

	quiet := log.New(io.Discard, "", 0)
	pdfService, err := pdf.NewService(cfg.MaxFileSize, dir, pdf.TagDefaults{
		Role:         cfg.Role,
		Tag:          cfg.Tag,
		Policy:       cfg.Policy(),
		Suffix:       cfg.Suffix,
		PreviewLimit: 5,
		Logger:       quiet,
	})
	require.NoError(t, err)

	server, err := NewServer(cfg, pdfService)
	require.NoError(t, err)
	server.logger = quiet
	return server, dir
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func writePDF(t *testing.T, dir, name string, contents ...string) string {
	t.Helper()
	path, err := pdftest.WriteFile(dir, name, pdftest.SimplePages(contents...)...)
	require.NoError(t, err)
	return path
}

func TestNewServer(t *testing.T) {
	server, _ := newTestServer(t)
	assert.NotNil(t, server.mcpServer)

	_, err := NewServer(nil, server.pdfService)
	assert.Error(t, err)
	_, err = NewServer(server.config, nil)
	assert.Error(t, err)
}

func TestServer_HandlePDFTagFile(t *testing.T) {
	server, dir := newTestServer(t)
	writePDF(t, dir, "doc.pdf", "BT /F1 12 Tf (Hello) Tj ET", "BT [(Wor) -50 (ld)] TJ ET")

	result, err := server.handlePDFTagFile(context.Background(), callRequest(map[string]any{
		"path":   "doc.pdf",
		"verify": true,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Tagged PDF written to: "+filepath.Join(dir, "doc-tagged.pdf"))
	assert.Contains(t, text, "Content streams: 2 (2 tagged, 0 skipped)")
	assert.Contains(t, text, "Marked content IDs: 2")
	assert.Contains(t, text, `MCID 0, page 1, Tj: "Hello"`)
	assert.Contains(t, text, "Text verification:")
	assert.FileExists(t, filepath.Join(dir, "doc-tagged.pdf"))

	again, err := server.handlePDFTagFile(context.Background(), callRequest(map[string]any{"path": "doc.pdf"}))
	require.NoError(t, err)
	assert.True(t, again.IsError)
	assert.Contains(t, extractTextFromResult(again), "already exists")

	replaced, err := server.handlePDFTagFile(context.Background(), callRequest(map[string]any{
		"path":    "doc.pdf",
		"replace": true,
	}))
	require.NoError(t, err)
	assert.False(t, replaced.IsError, extractTextFromResult(replaced))
}

func TestServer_HandlePDFTagFileErrors(t *testing.T) {
	server, dir := newTestServer(t)
	writePDF(t, dir, "doc.pdf", "BT (a) Tj ET")

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing path", map[string]any{}, "path"},
		{"outside sandbox", map[string]any{"path": "../doc.pdf"}, "security validation failed"},
		{"bad policy", map[string]any{"path": "doc.pdf", "on_error": "retry"}, "retry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handlePDFTagFile(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.want)
		})
	}
}

func TestServer_HandlePDFStructureInfo(t *testing.T) {
	server, dir := newTestServer(t)
	writePDF(t, dir, "doc.pdf", "BT (a) Tj ET")

	result, err := server.handlePDFStructureInfo(context.Background(), callRequest(map[string]any{"path": "doc.pdf"}))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "Tagged: false")
	assert.Contains(t, text, "document has no structure tree")

	_, err = server.handlePDFTagFile(context.Background(), callRequest(map[string]any{"path": "doc.pdf"}))
	require.NoError(t, err)

	result, err = server.handlePDFStructureInfo(context.Background(), callRequest(map[string]any{"path": "doc-tagged.pdf"}))
	require.NoError(t, err)
	text = extractTextFromResult(result)
	assert.Contains(t, text, "Tagged: true")
	assert.Contains(t, text, "Structure elements: 1")
	assert.Contains(t, text, "MCIDs: 1")
	assert.Contains(t, text, "Roles: P=1")
}

func TestServer_HandlePDFValidateFile(t *testing.T) {
	server, dir := newTestServer(t)
	writePDF(t, dir, "doc.pdf", "BT (a) Tj ET")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), make([]byte, 1024), 0o644))

	result, err := server.handlePDFValidateFile(context.Background(), callRequest(map[string]any{"path": "doc.pdf"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "is valid and readable (1 pages)")

	result, err = server.handlePDFValidateFile(context.Background(), callRequest(map[string]any{"path": "broken.pdf"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "PDF validation failed")
}

func TestServer_HandlePDFSearchDirectory(t *testing.T) {
	server, dir := newTestServer(t)

	result, err := server.handlePDFSearchDirectory(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "No PDF files found")

	writePDF(t, dir, "report.pdf", "BT (a) Tj ET")
	result, err = server.handlePDFSearchDirectory(context.Background(), callRequest(map[string]any{
		"query":       "rep",
		"with_status": true,
	}))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "Found 1 PDF file(s)")
	assert.Contains(t, text, "Tagged: false")
}

func TestServer_HandlePDFServerInfo(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handlePDFServerInfo(context.Background(), callRequest(nil))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "test-server v1.0.0")
	assert.Contains(t, text, "role=P tag=Span on_error=skip")
	assert.Contains(t, text, "Listing cache: 1 of 1 entries valid (ttl 5m0s)")
	for _, tool := range []string{"pdf_tag_file", "pdf_structure_info", "pdf_validate_file", "pdf_search_directory"} {
		assert.Contains(t, text, "• "+tool)
	}
}

func TestOptionalArguments(t *testing.T) {
	args := map[string]any{"s": "x", "b": true, "bs": "TRUE", "n": 3}
	assert.Equal(t, "x", optionalString(args, "s"))
	assert.Equal(t, "", optionalString(args, "n"))
	assert.Equal(t, "", optionalString(args, "missing"))

	require.NotNil(t, optionalBool(args, "b"))
	assert.True(t, *optionalBool(args, "b"))
	assert.True(t, *optionalBool(args, "bs"))
	assert.Nil(t, optionalBool(args, "n"))
	assert.Nil(t, optionalBool(args, "missing"))
}

// extractTextFromResult returns the first text content of a tool result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}
