package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/pdftest"
)

func writeInput(t *testing.T) string {
	t.Helper()
	path, err := pdftest.WriteFile(t.TempDir(), "in.pdf",
		pdftest.SimplePages("BT (One) Tj ET", "BT (Two) Tj T* (Three) Tj ET")...)
	require.NoError(t, err)
	return path
}

func TestRunText(t *testing.T) {
	input := writeInput(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-verify", input}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	output := filepath.Join(filepath.Dir(input), "in-tagged.pdf")
	assert.FileExists(t, output)
	assert.Contains(t, stdout.String(), "Tagged "+input+" -> "+output)
	assert.Contains(t, stdout.String(), "Content streams:    2 (2 tagged, 0 skipped)")
	assert.Contains(t, stdout.String(), "MCIDs:              3")
	assert.Contains(t, stdout.String(), "Verification:")
	assert.NotContains(t, stdout.String(), "text differs")
}

func TestRunJSON(t *testing.T) {
	input := writeInput(t)
	output := filepath.Join(t.TempDir(), "out.pdf")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-format", "json", "-role", "Div", "-o", output, input}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var got struct {
		Output string `json:"output"`
		Report struct {
			MCIDs          int `json:"mcids"`
			StructElements int `json:"struct_elements"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, output, got.Output)
	assert.Equal(t, 3, got.Report.MCIDs)
	assert.Equal(t, 2, got.Report.StructElements)
}

func TestRunKeepsInputMode(t *testing.T) {
	input := writeInput(t)
	require.NoError(t, os.Chmod(input, 0o640))
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{input}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	info, err := os.Stat(filepath.Join(filepath.Dir(input), "in-tagged.pdf"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestRunRefusals(t *testing.T) {
	input := writeInput(t)
	var stdout, stderr bytes.Buffer

	require.Equal(t, 0, run(context.Background(), []string{input}, &stdout, &stderr))

	stderr.Reset()
	assert.Equal(t, 1, run(context.Background(), []string{input}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "already exists")

	stderr.Reset()
	assert.Equal(t, 0, run(context.Background(), []string{"-replace", input}, &stdout, &stderr), stderr.String())

	stderr.Reset()
	tagged := filepath.Join(filepath.Dir(input), "in-tagged.pdf")
	assert.Equal(t, 1, run(context.Background(), []string{"-o", filepath.Join(t.TempDir(), "again.pdf"), tagged}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "structure tree")

	stderr.Reset()
	assert.Equal(t, 1, run(context.Background(), []string{"-o", input, input}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "overwrite the input")
}

func TestRunUsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	tests := [][]string{
		{},
		{"a.pdf", "b.pdf"},
		{"-format", "xml", "a.pdf"},
		{"-onerror", "retry", "a.pdf"},
	}
	for _, args := range tests {
		assert.Equal(t, 2, run(context.Background(), args, &stdout, &stderr), "%v", args)
	}

	assert.Equal(t, 0, run(context.Background(), []string{"-h"}, &stdout, &stderr))
}

func TestRunMissingInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	missing := filepath.Join(t.TempDir(), "missing.pdf")

	assert.Equal(t, 1, run(context.Background(), []string{missing}, &stdout, &stderr))
	_, err := os.Stat(filepath.Join(filepath.Dir(missing), "missing-tagged.pdf"))
	assert.True(t, os.IsNotExist(err))
}
