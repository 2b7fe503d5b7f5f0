package ragprep

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestConverter(t *testing.T, opts Options, copts ...ConverterOption) *Converter {
	t.Helper()
	copts = append([]ConverterOption{WithLogger(testLogger())}, copts...)
	return New(opts, copts...)
}

func writeTestFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractTextPlain(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "notes.txt", []byte("line one\nline two\n"))

	c := newTestConverter(t, DefaultOptions())
	ex, err := c.extractText(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ex.Markdown, "line one") || !strings.Contains(ex.Markdown, "line two") {
		t.Errorf("unexpected markdown: %q", ex.Markdown)
	}
}

func TestExtractTextJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "payload.json", []byte(`{"b":2,"a":1}`))

	c := newTestConverter(t, DefaultOptions())
	ex, err := c.extractText(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(ex.Markdown, "```json\n") {
		t.Errorf("JSON should be fenced as json, got: %q", ex.Markdown)
	}
	if !strings.Contains(ex.Markdown, "\"a\": 1") {
		t.Errorf("JSON should be pretty-printed, got: %q", ex.Markdown)
	}
}

func TestExtractTextInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "broken.json", []byte(`{oops`))

	c := newTestConverter(t, DefaultOptions())
	ex, err := c.extractText(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(ex.Markdown, "```\n{oops") {
		t.Errorf("invalid JSON should get a plain fence, got: %q", ex.Markdown)
	}
}

func TestExtractTextCode(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "script.py", []byte("print('hi')\n"))

	c := newTestConverter(t, DefaultOptions())
	ex, err := c.extractText(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(ex.Markdown, "```python\n") {
		t.Errorf("python source should be fenced with its language, got: %q", ex.Markdown)
	}
}

func TestExtractMarkdownLocalImages(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "pic.png", makePNG(t, 120, 120))
	md := "# Title\n\n![a picture](pic.png)\n\n![missing](nope.png)\n"
	path := writeTestFile(t, dir, "doc.md", []byte(md))

	c := newTestConverter(t, DefaultOptions())
	ex, err := c.extractText(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(ex.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(ex.Images))
	}
	if !strings.Contains(ex.Markdown, "![a picture](media/"+ex.Images[0].Key+")") {
		t.Errorf("local image not relinked:\n%s", ex.Markdown)
	}
	if !strings.Contains(ex.Markdown, "![missing](nope.png)") {
		t.Errorf("missing image reference should be left as-is:\n%s", ex.Markdown)
	}
	if ex.Title != "Title" {
		t.Errorf("title = %q, want %q", ex.Title, "Title")
	}
}

func TestExtractMarkdownLeavesRemoteRefs(t *testing.T) {
	dir := t.TempDir()
	md := "![r](https://example.com/x.png) ![d](data:image/png;base64,AAAA)"
	path := writeTestFile(t, dir, "doc.md", []byte(md))

	c := newTestConverter(t, DefaultOptions())
	ex, err := c.extractText(path)
	if err != nil {
		t.Fatal(err)
	}
	if ex.Markdown != md {
		t.Errorf("remote and data refs must pass through untouched:\ngot:  %q\nwant: %q", ex.Markdown, md)
	}
}

func TestExtractNotebook(t *testing.T) {
	nb := `{
  "metadata": {"kernelspec": {"language": "python"}},
  "cells": [
    {"cell_type": "markdown", "source": ["# Analysis\n", "Some prose."]},
    {"cell_type": "code", "source": "x = 1\nprint(x)", "outputs": [
      {"output_type": "stream", "text": ["1\n"]}
    ]},
    {"cell_type": "code", "source": "", "outputs": []}
  ]
}`
	dir := t.TempDir()
	path := writeTestFile(t, dir, "analysis.ipynb", []byte(nb))

	c := newTestConverter(t, DefaultOptions())
	ex, err := c.extractText(path)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(ex.Markdown, "# Analysis") {
		t.Errorf("markdown cell missing:\n%s", ex.Markdown)
	}
	if !strings.Contains(ex.Markdown, "```python\nx = 1\nprint(x)\n```") {
		t.Errorf("code cell not fenced with kernel language:\n%s", ex.Markdown)
	}
	if !strings.Contains(ex.Markdown, "```\n1\n```") {
		t.Errorf("stream output not fenced:\n%s", ex.Markdown)
	}
	if ex.Title != "Analysis" {
		t.Errorf("title = %q, want %q", ex.Title, "Analysis")
	}
}
