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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmcdole/gofeed"
)

// extractFeed renders an RSS or Atom document as markdown: feed title as H1,
// each entry as an H2 section with its publication date and body. Entry
// bodies that carry HTML are converted to markdown; remote image references
// inside them go through the usual resolver afterwards.
func (c *Converter) extractFeed(ctx context.Context, path string) (*extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fp := gofeed.NewParser()
	feed, err := fp.Parse(bytes.NewReader(data))
	if err != nil {
		// Plain XML that is not a feed still deserves a text rendering
		// rather than a hard failure.
		if strings.ToLower(filepath.Ext(path)) == ".xml" {
			return &extraction{
				Markdown: "```xml\n" + decodeText(data) + "\n```",
			}, nil
		}
		return nil, &CorruptDocumentError{Filename: filepath.Base(path), Err: fmt.Errorf("parse feed: %w", err)}
	}

	var b strings.Builder
	if feed.Title != "" {
		fmt.Fprintf(&b, "# %s\n", feed.Title)
	}
	if feed.Description != "" {
		fmt.Fprintf(&b, "%s\n", feed.Description)
	}
	b.WriteString("\n")

	for _, item := range feed.Items {
		if item.Title != "" {
			fmt.Fprintf(&b, "## %s\n", item.Title)
		}
		if item.Published != "" {
			fmt.Fprintf(&b, "Published: %s\n\n", item.Published)
		} else if item.Updated != "" {
			fmt.Fprintf(&b, "Updated: %s\n\n", item.Updated)
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}
		if content != "" {
			if strings.Contains(content, "<") && strings.Contains(content, ">") {
				if md, err := convertHTMLToMarkdown(content); err == nil {
					content = md
				}
			}
			b.WriteString(content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	res := resolveRemoteImages(ctx, b.String(), &c.options, c.httpClient, c.logger)

	return &extraction{
		Markdown: res.Markdown,
		Images:   res.Images,
		Title:    feed.Title,
		Failures: res.Failures,
	}, nil
}
