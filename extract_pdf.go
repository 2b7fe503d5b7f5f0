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

package ragprep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
)

// extractPDF converts a PDF natively: positioned text per page via
// ledongthuc/pdf, embedded images via pdfcpu extraction into the workspace.
// Each image is matched to its page by the page number pdfcpu encodes in the
// extracted filename and appended after that page's text. A page whose text
// extraction fails becomes an HTML comment placeholder; the rest of the
// document still converts.
func (c *Converter) extractPDF(ctx context.Context, path string, ws *TempWorkspace) (*extraction, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &CorruptDocumentError{Filename: filepath.Base(path), Err: err}
	}
	defer f.Close()

	pageCount := reader.NumPage()
	if pageCount == 0 {
		return nil, &CorruptDocumentError{Filename: filepath.Base(path), Err: fmt.Errorf("document has no pages")}
	}

	pageImages := c.extractPDFImages(path, ws)

	var (
		pages  []string
		assets []ImageAsset
	)
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := safePageMarkdown(reader, i)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"file": filepath.Base(path),
				"page": i,
			}).Warn("page text extraction failed")
			text = fmt.Sprintf("<!-- page %d could not be extracted -->", i)
		}

		var b strings.Builder
		b.WriteString(strings.TrimSpace(text))
		for _, imgPath := range pageImages[i] {
			raw, err := os.ReadFile(imgPath)
			if err != nil {
				continue
			}
			asset, err := normalizeImage(raw, OriginEmbedded, &c.options)
			if err != nil {
				c.logger.WithError(err).WithField("image", filepath.Base(imgPath)).Debug("skipping embedded image")
				continue
			}
			switch asset.Decision {
			case DecisionDropped:
				continue
			case DecisionInline:
				fmt.Fprintf(&b, "\n\n![](%s)", asset.DataURI)
			case DecisionFile:
				fmt.Fprintf(&b, "\n\n![](media/%s)", asset.Key)
				assets = append(assets, asset)
			}
		}

		if page := strings.TrimSpace(b.String()); page != "" {
			pages = append(pages, page)
		}
	}

	md := strings.Join(pages, "\n\n")
	if strings.TrimSpace(md) == "" {
		md = "[No readable text content found in PDF]"
	}

	return &extraction{
		Markdown:  md,
		Images:    assets,
		PageCount: &pageCount,
	}, nil
}

// extractPDFImages runs pdfcpu image extraction into a workspace scratch
// directory and returns the resulting files keyed by page number. Extraction
// failure is not fatal; the document converts text-only.
func (c *Converter) extractPDFImages(path string, ws *TempWorkspace) map[int][]string {
	imgDir := filepath.Join(ws.Root, "pdfimg")
	if err := os.MkdirAll(imgDir, 0o700); err != nil {
		c.logger.WithError(err).Warn("could not create image scratch directory")
		return nil
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ExtractImagesFile(path, imgDir, nil, conf); err != nil {
		c.logger.WithError(err).WithField("file", filepath.Base(path)).Warn("image extraction failed, continuing without images")
		return nil
	}

	entries, err := os.ReadDir(imgDir)
	if err != nil {
		return nil
	}

	byPage := map[int][]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		page, ok := pageNumberFromImageName(entry.Name())
		if !ok {
			continue
		}
		byPage[page] = append(byPage[page], filepath.Join(imgDir, entry.Name()))
	}
	for _, files := range byPage {
		sort.Strings(files)
	}
	return byPage
}

// pageNumberFromImageName parses the page number pdfcpu encodes in extracted
// image filenames (<stem>_page_<n>_<obj>.<ext>).
func pageNumberFromImageName(name string) (int, bool) {
	const marker = "_page_"
	idx := strings.LastIndex(name, marker)
	if idx < 0 {
		return 0, false
	}
	rest := name[idx+len(marker):]
	end := strings.IndexByte(rest, '_')
	if end < 0 {
		end = strings.IndexByte(rest, '.')
	}
	if end <= 0 {
		return 0, false
	}
	var page int
	if _, err := fmt.Sscanf(rest[:end], "%d", &page); err != nil {
		return 0, false
	}
	return page, true
}

// safePageMarkdown isolates per-page extraction; malformed content streams
// can panic deep inside the parser and must not take the document down.
func safePageMarkdown(reader *pdf.Reader, pageNum int) (md string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", pageNum, r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}
	return pdfPageMarkdown(page), nil
}
