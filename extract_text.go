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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// extraction is the intermediate output of one extraction path, before the
// dispatcher prunes orphans and builds metadata.
type extraction struct {
	Markdown  string
	Images    []ImageAsset
	PageCount *int
	Title     string
	Failures  []RemoteFetchError
}

// extractText handles plain text, markdown, JSON, notebooks, and source code
// natively. No subprocess, no temp workspace.
func (c *Converter) extractText(path string) (*extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CorruptDocumentError{Filename: filepath.Base(path), Err: err}
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".md" || ext == ".markdown":
		return c.extractMarkdown(path, data)
	case ext == ".json" || ext == ".jsonl":
		return &extraction{Markdown: formatJSON(decodeText(data))}, nil
	case ext == ".ipynb":
		return extractNotebook(data)
	case codeExts[ext] != "":
		text := decodeText(data)
		return &extraction{
			Markdown: fmt.Sprintf("```%s\n%s\n```", codeExts[ext], strings.TrimRight(text, "\n")),
		}, nil
	default:
		return &extraction{Markdown: decodeText(data)}, nil
	}
}

var reLocalImage = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)(\s+"[^"]*")?\)`)

// extractMarkdown passes markdown through while pulling locally referenced
// images into the media set. Remote and data-URI references are left alone;
// missing local files keep their original reference.
func (c *Converter) extractMarkdown(path string, data []byte) (*extraction, error) {
	md := decodeText(data)
	baseDir := filepath.Dir(path)

	ex := &extraction{}
	resolved := map[string]string{}

	for _, m := range reLocalImage.FindAllStringSubmatch(md, -1) {
		ref := m[2]
		if _, done := resolved[ref]; done {
			continue
		}
		if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") ||
			strings.HasPrefix(ref, "data:") || filepath.IsAbs(ref) {
			continue
		}

		imgPath := filepath.Clean(filepath.Join(baseDir, filepath.FromSlash(ref)))
		raw, err := os.ReadFile(imgPath)
		if err != nil {
			c.logger.WithField("image", ref).Warn("local image not found, reference left as-is")
			continue
		}

		asset, err := normalizeImage(raw, OriginEmbedded, &c.options)
		if err != nil {
			c.logger.WithField("image", ref).WithError(err).Warn("dropping unreadable local image")
			resolved[ref] = ""
			continue
		}

		switch asset.Decision {
		case DecisionDropped:
			resolved[ref] = ""
		case DecisionInline:
			resolved[ref] = asset.DataURI
		case DecisionFile:
			resolved[ref] = "media/" + asset.Key
			ex.Images = append(ex.Images, asset)
		}
	}

	if len(resolved) > 0 {
		md = reLocalImage.ReplaceAllStringFunc(md, func(ref string) string {
			m := reLocalImage.FindStringSubmatch(ref)
			target, ok := resolved[m[2]]
			if !ok {
				return ref
			}
			if target == "" {
				return ""
			}
			return fmt.Sprintf("![%s](%s%s)", m[1], target, m[3])
		})
	}

	ex.Markdown = md
	ex.Title = firstHeading(md)
	return ex, nil
}

// formatJSON pretty-prints valid JSON into a fenced block; invalid JSON gets
// a plain fence so nothing is lost.
func formatJSON(text string) string {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return fmt.Sprintf("```\n%s\n```", strings.TrimRight(text, "\n"))
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("```\n%s\n```", strings.TrimRight(text, "\n"))
	}
	return fmt.Sprintf("```json\n%s\n```", pretty)
}

func firstHeading(md string) string {
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimPrefix(line, "# ")
		}
	}
	return ""
}

// notebook mirrors the JSON structure of a Jupyter notebook.
type notebook struct {
	Metadata struct {
		KernelSpec *struct {
			Language string `json:"language"`
		} `json:"kernelspec"`
	} `json:"metadata"`
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string           `json:"cell_type"`
	Source   json.RawMessage  `json:"source"`
	Outputs  []notebookOutput `json:"outputs"`
}

type notebookOutput struct {
	OutputType string                     `json:"output_type"`
	Text       json.RawMessage            `json:"text"`
	Data       map[string]json.RawMessage `json:"data"`
}

// extractNotebook renders a Jupyter notebook cell by cell: markdown cells
// verbatim, code cells fenced with the kernel language, text outputs fenced
// plain.
func extractNotebook(data []byte) (*extraction, error) {
	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("parse notebook JSON: %w", err)
	}

	language := "python"
	if nb.Metadata.KernelSpec != nil && nb.Metadata.KernelSpec.Language != "" {
		language = nb.Metadata.KernelSpec.Language
	}

	var sections []string
	var title string

	for _, cell := range nb.Cells {
		source := cellSource(cell.Source)
		switch cell.CellType {
		case "markdown":
			sections = append(sections, source)
			if title == "" {
				title = firstHeading(source)
			}
		case "code":
			if strings.TrimSpace(source) != "" {
				sections = append(sections, fmt.Sprintf("```%s\n%s\n```", language, source))
			}
			for _, out := range cell.Outputs {
				if text := outputText(out); text != "" {
					sections = append(sections, fmt.Sprintf("```\n%s\n```", text))
				}
			}
		case "raw":
			if strings.TrimSpace(source) != "" {
				sections = append(sections, fmt.Sprintf("```\n%s\n```", source))
			}
		}
	}

	return &extraction{
		Markdown: strings.Join(sections, "\n\n"),
		Title:    title,
	}, nil
}

// cellSource handles both string and string-array cell sources.
func cellSource(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return strings.Join(arr, "")
	}
	return ""
}

func outputText(out notebookOutput) string {
	if out.Text != nil {
		if text := cellSource(out.Text); text != "" {
			return strings.TrimRight(text, "\n")
		}
	}
	if raw, ok := out.Data["text/plain"]; ok {
		if text := cellSource(raw); text != "" {
			return strings.TrimRight(text, "\n")
		}
	}
	return ""
}
