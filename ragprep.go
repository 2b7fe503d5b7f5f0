// Copyright 2026 The RAGPrepTool Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package ragprep converts documents to retrieval-ready markdown bundles:
// one markdown file, a metadata record and the document's surviving images,
// packaged as a zip per source document. PDFs, spreadsheets, plain text and
// feeds convert natively; office and markup formats go through an external
// converter (pandoc) probed once per run.
package ragprep

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Converter runs document conversions with a fixed set of options. One
// Converter handles any number of documents; conversions are sequential.
type Converter struct {
	options         Options
	logger          *logrus.Logger
	converterBinary string
	statusCallback  func(DocumentStatus)
	httpClient      httpDoer
	capability      Capability
}

// New builds a Converter and probes the external converter binary once.
// Documents needing the external converter fail recoverably for the whole
// run when the probe comes up empty; native paths are unaffected.
func New(opts Options, copts ...ConverterOption) *Converter {
	c := &Converter{
		options:         opts,
		converterBinary: DefaultConverterBinary,
	}
	for _, opt := range copts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetLevel(logrus.WarnLevel)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	c.capability = detectConverter(c.converterBinary)

	if !c.capability.Available {
		c.logger.WithField("binary", c.converterBinary).Warn("external converter not found, office and markup formats will be skipped")
	}
	return c
}

// ConverterAvailable reports whether the external converter was found.
func (c *Converter) ConverterAvailable() bool {
	return c.capability.Available
}

// ConvertFile converts a single document and returns the finished result.
// The caller packages it (see WriteBundle). Returned errors are terminal for
// this document only.
func (c *Converter) ConvertFile(ctx context.Context, path string) (*ConversionResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	class := ClassifyPath(path)
	if class == FormatUnsupported {
		return nil, &UnsupportedFormatError{
			Filename:  filepath.Base(path),
			Extension: strings.ToLower(filepath.Ext(path)),
		}
	}

	ws, err := newWorkspace("")
	if err != nil {
		return nil, err
	}
	defer ws.Remove()

	var ex *extraction
	switch class {
	case FormatPDF:
		ex, err = c.extractPDF(ctx, path, ws)
	case FormatConverterManaged:
		ex, err = c.extractPandoc(ctx, path, ws)
	case FormatTabular:
		ex, err = c.extractTabular(path)
	case FormatText:
		ex, err = c.extractText(path)
	case FormatFeed:
		ex, err = c.extractFeed(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	return c.finalize(path, info, ex), nil
}

// finalize normalizes the markdown, de-duplicates and prunes the asset set,
// and attaches metadata. Kept-as-file assets no longer referenced by the
// final markdown are dropped so the bundle carries no orphans.
func (c *Converter) finalize(path string, info os.FileInfo, ex *extraction) *ConversionResult {
	md := normalizeMarkdown(ex.Markdown)

	seen := map[string]bool{}
	var images []ImageAsset
	for _, img := range ex.Images {
		if img.Decision != DecisionFile || img.Key == "" {
			continue
		}
		if seen[img.Key] {
			continue
		}
		if !strings.Contains(md, "media/"+img.Key) {
			c.logger.WithField("image", img.Key).Debug("pruning unreferenced media asset")
			continue
		}
		seen[img.Key] = true
		images = append(images, img)
	}

	return &ConversionResult{
		Markdown:      md,
		Images:        images,
		Metadata:      buildMetadata(path, info, ex, len(images)),
		FetchFailures: ex.Failures,
	}
}

// ProcessFolder converts every supported document directly under inputDir
// and writes one bundle per success into outputDir. Documents are processed
// sequentially in name order; a failing document is reported and skipped.
// Cancellation is honored between documents and inside the running document's
// subprocess and fetch work.
func (c *Converter) ProcessFolder(ctx context.Context, inputDir, outputDir string) (*BatchSummary, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	summary := &BatchSummary{}
	for _, entry := range entries {
		if entry.IsDir() || isTransientFile(entry.Name()) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return summary, err
		}

		name := entry.Name()
		summary.Total++
		c.emit(DocumentStatus{Filename: name, State: StatePending})
		c.emit(DocumentStatus{Filename: name, State: StateDispatched})

		path := filepath.Join(inputDir, name)
		result, err := c.ConvertFile(ctx, path)
		if err == nil {
			_, err = WriteBundle(result, path, outputDir, c.options.OutputSuffix)
		}
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			c.logger.WithError(err).WithField("file", name).Warn("document skipped")
			status := DocumentStatus{
				Filename: name,
				State:    StateFailedRecoverable,
				Reason:   err.Error(),
			}
			c.emit(status)
			summary.Skipped = append(summary.Skipped, status)
			continue
		}

		fetchFailures := len(result.FetchFailures)
		summary.Succeeded++
		summary.FetchFailures += fetchFailures
		c.emit(DocumentStatus{
			Filename:      name,
			State:         StateSucceeded,
			FetchFailures: fetchFailures,
		})
	}

	return summary, nil
}

func (c *Converter) emit(status DocumentStatus) {
	if c.statusCallback != nil {
		c.statusCallback(status)
	}
	c.logger.WithFields(logrus.Fields{
		"file":  status.Filename,
		"state": status.State,
	}).Debug("document state")
}
