package pdf

import (
	"context"
	"testing"
	"time"

	pdferrors "github.com/a3tai/mcp-pdf-tagger/internal/pdf/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerInfo(t *testing.T) {
	svc, dir := newTestService(t, TagDefaults{Policy: pdferrors.PolicyAbort, Verify: true})
	writePDF(t, dir, "doc.pdf", "BT (a) Tj ET")

	result, err := svc.PDFServerInfo(context.Background(), PDFServerInfoRequest{}, "test-server", "1.0.0-test")
	require.NoError(t, err)

	assert.Equal(t, "test-server", result.ServerName)
	assert.Equal(t, "1.0.0-test", result.Version)
	assert.Equal(t, dir, result.DefaultDirectory)
	assert.Equal(t, testMaxFileSize, result.MaxFileSize)
	assert.Equal(t, Defaults{Role: "P", Tag: "Span", OnError: "abort", Verify: true, Suffix: DefaultSuffix}, result.Defaults)

	var tools []string
	for _, tool := range result.AvailableTools {
		tools = append(tools, tool.Name)
		assert.NotEqual(t, "Tool description not available", tool.Description, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"pdf_tag_file", "pdf_structure_info", "pdf_validate_file", "pdf_search_directory", "pdf_server_info",
	}, tools)

	require.Len(t, result.DirectoryContents, 1)
	assert.Equal(t, "doc.pdf", result.DirectoryContents[0].Name)
	assert.Contains(t, result.UsageGuidance, "On stream failure: abort")
	assert.Contains(t, result.UsageGuidance, "10MB")
}

func TestServerInfoCache(t *testing.T) {
	svc, dir := newTestService(t, TagDefaults{})

	first, err := svc.PDFServerInfo(context.Background(), PDFServerInfoRequest{}, "s", "v")
	require.NoError(t, err)
	assert.Empty(t, first.DirectoryContents)
	assert.NotNil(t, first.DirectoryContents)

	writePDF(t, dir, "doc.pdf", "BT (a) Tj ET")
	cached, err := svc.PDFServerInfo(context.Background(), PDFServerInfoRequest{}, "s", "v")
	require.NoError(t, err)
	assert.Empty(t, cached.DirectoryContents, "listing comes from the cache")
	assert.Equal(t, CacheStats{Entries: 1, Valid: 1, TTL: "5m0s"}, cached.Cache)

	_, err = svc.PDFTagFile(context.Background(), PDFTagFileRequest{Path: "doc.pdf"})
	require.NoError(t, err)

	fresh, err := svc.PDFServerInfo(context.Background(), PDFServerInfoRequest{}, "s", "v")
	require.NoError(t, err)
	assert.Len(t, fresh.DirectoryContents, 2, "tagging invalidates the cache")
}

func TestDirectoryCache(t *testing.T) {
	cache := NewDirectoryCache(time.Minute)
	assert.Nil(t, cache.Get("/docs"))

	cache.Set("/docs", []FileInfo{{Name: "a.pdf"}})
	require.NotNil(t, cache.Get("/docs"))

	cache.SetScanning("/other", true)
	assert.True(t, cache.IsScanning("/other"))

	cache.Invalidate()
	assert.Nil(t, cache.Get("/docs"))
	assert.True(t, cache.IsScanning("/other"), "entries being scanned survive invalidation")

	expired := NewDirectoryCache(-time.Second)
	expired.Set("/docs", nil)
	expired.SetScanning("/busy", true)
	assert.Nil(t, expired.Get("/docs"))
	assert.Equal(t, CacheStats{Entries: 2, Valid: 0, TTL: "-1s"}, expired.Stats())
	expired.Clear()
	assert.Equal(t, 1, expired.Stats().Entries)
	assert.True(t, expired.IsScanning("/busy"), "entries being scanned survive clearing")
}

func TestLazyDirectoryScanner(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		writePDF(t, dir, name, "q Q")
	}

	result, err := NewLazyDirectoryScanner(2, 2, time.Second).ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, result.Files, 2)
	assert.True(t, result.Truncated)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLazyDirectoryScanner(2, 0, 0).ScanDirectory(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
