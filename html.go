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
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// convertHTMLToMarkdown renders an HTML fragment as commonmark with ATX
// headings and pipe tables. Used for feed item bodies.
func convertHTMLToMarkdown(htmlStr string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle("atx"),
			),
			table.NewTablePlugin(),
		),
	)
	return conv.ConvertString(htmlStr)
}

// extractHTMLTitle returns the <title> text of an HTML document, or "".
func extractHTMLTitle(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				title = n.FirstChild.Data
			}
			return
		}
		for child := n.FirstChild; child != nil && title == ""; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return strings.TrimSpace(title)
}

// htmlPrefetch is the outcome of pre-fetching an HTML source's remote images
// before the external converter runs.
type htmlPrefetch struct {
	// SourcePath is the file to hand to the converter: the original path, or
	// a rewritten temp copy when any image was localized.
	SourcePath string
	Images     []ImageAsset
	Failures   []RemoteFetchError
}

// prefetchHTMLImages downloads remote <img> references of an HTML source
// with the resolver's worker pool, writes the survivors into the workspace
// media directory, and rewrites a temp copy of the HTML to point at them.
// The external converter then sees only local references it can package.
// Failed URLs stay remote and surface later as unresolved references.
func (c *Converter) prefetchHTMLImages(ctx context.Context, path string, ws *TempWorkspace) (*htmlPrefetch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(decodeText(data)))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	// Collect remote URLs with every element that references them; the same
	// URL may appear more than once.
	urlElems := map[string][]*goquery.Selection{}
	var urls []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok {
			return
		}
		if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
			return
		}
		if _, seen := urlElems[src]; !seen {
			urls = append(urls, src)
		}
		urlElems[src] = append(urlElems[src], sel)
	})

	if len(urls) == 0 {
		return &htmlPrefetch{SourcePath: path}, nil
	}

	c.logger.WithFields(logrus.Fields{
		"file":   filepath.Base(path),
		"images": len(urls),
	}).Info("HTML source references external images, downloading")

	res := &htmlPrefetch{SourcePath: path}
	outcomes := fetchAllImages(ctx, urls, OriginRemote, &c.options, c.httpClient)

	rewritten := false
	for i, u := range urls {
		out := outcomes[i]
		if out.err != nil {
			res.Failures = append(res.Failures, RemoteFetchError{URL: u, Err: out.err})
			continue
		}
		var target string
		switch out.asset.Decision {
		case DecisionDropped:
			// Leave the element in place; the converter emits the remote
			// reference and the markdown-level resolver drops it there.
			continue
		case DecisionInline:
			target = out.asset.DataURI
		case DecisionFile:
			dst := filepath.Join(ws.MediaDir, out.asset.Key)
			if err := os.WriteFile(dst, out.asset.Bytes, 0o644); err != nil {
				res.Failures = append(res.Failures, RemoteFetchError{URL: u, Err: err})
				continue
			}
			target = "media/" + out.asset.Key
			res.Images = append(res.Images, out.asset)
		}
		for _, sel := range urlElems[u] {
			sel.SetAttr("src", target)
		}
		rewritten = true
	}

	if !rewritten {
		return res, nil
	}

	modified, err := doc.Html()
	if err != nil {
		return res, nil
	}
	modPath := filepath.Join(ws.Root, filepath.Base(path)+".modified.html")
	if err := os.WriteFile(modPath, []byte(modified), 0o644); err != nil {
		c.logger.WithError(err).Warn("could not write rewritten HTML, converting original")
		return res, nil
	}
	res.SourcePath = modPath
	return res, nil
}
