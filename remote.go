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
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

// httpDoer is the slice of http.Client the resolver needs.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxRemoteImageBytes caps a single fetched image body.
const maxRemoteImageBytes = 32 << 20

var reMarkdownImage = regexp.MustCompile(`!\[([^\]]*)\]\((https?://[^)\s]+)(\s+"[^"]*")?\)`)

// remoteResolution is the outcome of resolving one document's remote image
// references.
type remoteResolution struct {
	Markdown string
	Images   []ImageAsset
	Failures []RemoteFetchError
}

// resolveRemoteImages fetches every absolute image URL referenced in md with
// a bounded worker pool, normalizes the successes, and rewrites their
// references to local media paths or data URIs. Failed references keep their
// original URL; failures are recorded, never raised.
//
// Output ordering follows the order references appear in md, regardless of
// fetch completion order.
func resolveRemoteImages(ctx context.Context, md string, opts *Options, client httpDoer, logger *logrus.Logger) remoteResolution {
	matches := reMarkdownImage.FindAllStringSubmatch(md, -1)
	if len(matches) == 0 {
		return remoteResolution{Markdown: md}
	}

	// Unique URLs in first-seen order. The same URL referenced twice is
	// fetched once and rewritten everywhere.
	var urls []string
	seen := map[string]bool{}
	for _, m := range matches {
		if !seen[m[2]] {
			seen[m[2]] = true
			urls = append(urls, m[2])
		}
	}

	logger.WithFields(logrus.Fields{
		"references": len(matches),
		"unique":     len(urls),
		"workers":    opts.RemoteFetchWorkers,
	}).Debug("resolving remote image references")

	outcomes := fetchAllImages(ctx, urls, OriginRemote, opts, client)

	res := remoteResolution{Markdown: md}
	replacements := map[string]string{}
	for i, u := range urls {
		out := outcomes[i]
		if out.err != nil {
			logger.WithField("url", u).WithError(out.err).Warn("remote image left unresolved")
			res.Failures = append(res.Failures, RemoteFetchError{URL: u, Err: out.err})
			continue
		}
		switch out.asset.Decision {
		case DecisionDropped:
			replacements[u] = ""
		case DecisionInline:
			replacements[u] = out.asset.DataURI
		case DecisionFile:
			replacements[u] = "media/" + out.asset.Key
			res.Images = append(res.Images, out.asset)
		}
	}

	if len(replacements) > 0 {
		res.Markdown = rewriteImageRefs(md, replacements)
	}
	return res
}

// fetchOutcome is one URL's fetch-and-normalize result, exactly one of
// asset or err set.
type fetchOutcome struct {
	asset ImageAsset
	err   error
}

// fetchAllImages downloads and normalizes urls with a worker pool bounded by
// opts.RemoteFetchWorkers, treating values below 1 as 1. Outcomes are indexed
// by position in urls, so output ordering never depends on completion order.
func fetchAllImages(ctx context.Context, urls []string, origin ImageOrigin, opts *Options, client httpDoer) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(urls))

	workers := opts.RemoteFetchWorkers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := fetchRemoteImage(ctx, client, url, opts)
			if err != nil {
				outcomes[idx] = fetchOutcome{err: err}
				return
			}
			asset, err := normalizeImage(data, origin, opts)
			if err != nil {
				outcomes[idx] = fetchOutcome{err: err}
				return
			}
			outcomes[idx] = fetchOutcome{asset: asset}
		}(i, u)
	}
	wg.Wait()
	return outcomes
}

// fetchRemoteImage downloads one URL with the per-fetch timeout. Any non-2xx
// status is an error.
func fetchRemoteImage(ctx context.Context, client httpDoer, url string, opts *Options) ([]byte, error) {
	fetchCtx := ctx
	if opts.RemoteFetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, opts.RemoteFetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxRemoteImageBytes {
		return nil, fmt.Errorf("image exceeds %d byte limit", maxRemoteImageBytes)
	}

	// Servers routinely answer image URLs with HTML error pages and a 200.
	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("content is %s, not an image", mt.String())
	}
	return data, nil
}

// rewriteImageRefs replaces resolved URLs inside markdown image syntax. An
// empty replacement removes the whole reference (decorative drop).
func rewriteImageRefs(md string, replacements map[string]string) string {
	return reMarkdownImage.ReplaceAllStringFunc(md, func(ref string) string {
		m := reMarkdownImage.FindStringSubmatch(ref)
		target, ok := replacements[m[2]]
		if !ok {
			return ref
		}
		if target == "" {
			return ""
		}
		title := ""
		if m[3] != "" {
			title = m[3]
		}
		return fmt.Sprintf("![%s](%s%s)", m[1], target, title)
	})
}
