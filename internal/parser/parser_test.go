package parser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"finbot/internal/parser"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSourcesText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "TFSA contribution room carries forward.")
	writeFile(t, dir, "image.png", "not a document")

	sources := parser.LoadSources(dir)
	require.Len(t, sources, 1)
	require.Equal(t, path, sources[0].Path)
	require.Contains(t, sources[0].Text, "TFSA contribution room")
}

func TestLoadSourcesHTMLStripsScripts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.html", `<html><head>
<script>alert("nope")</script>
<style>body { color: red; }</style>
</head><body><p>RRSP withdrawals are taxed as income.</p></body></html>`)

	sources := parser.LoadSources(dir)
	require.Len(t, sources, 1)
	require.Contains(t, sources[0].Text, "RRSP withdrawals are taxed as income.")
	require.NotContains(t, sources[0].Text, "alert")
	require.NotContains(t, sources[0].Text, "color: red")
}

func TestLoadSourcesMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "guide.md", "# RESP Basics\n\nGrants top up *contributions* by 20%.\n")

	sources := parser.LoadSources(dir)
	require.Len(t, sources, 1)
	require.Contains(t, sources[0].Text, "RESP Basics")
	require.Contains(t, sources[0].Text, "Grants top up contributions by 20%.")
	require.NotContains(t, sources[0].Text, "#")
	require.NotContains(t, sources[0].Text, "*")
}

func TestLoadSourcesRecursesAndSkipsBroken(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeFile(t, sub, "deep.txt", "GIC rates are fixed at purchase.")
	// not a real pdf, must be skipped without failing the batch
	writeFile(t, dir, "broken.pdf", "not a pdf")

	sources := parser.LoadSources(dir)
	require.Len(t, sources, 1)
	require.Contains(t, sources[0].Text, "GIC rates")
}

func TestLoadSourcesMissingDirectory(t *testing.T) {
	sources := parser.LoadSources(filepath.Join(t.TempDir(), "nope"))
	require.Empty(t, sources)
}

func TestLoadSourcesSkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", "   \n\t ")

	sources := parser.LoadSources(dir)
	require.Empty(t, sources)
}
