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
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultConverterBinary is the external converter probed when no override
// is configured.
const DefaultConverterBinary = "pandoc"

// Capability records the result of the external converter probe. The probe
// runs once when the Converter is built; every converter-managed document in
// a run sees the same answer.
type Capability struct {
	Binary    string
	Path      string
	Available bool
}

// detectConverter looks the converter binary up in PATH.
func detectConverter(binary string) Capability {
	capability := Capability{Binary: binary}
	p, err := exec.LookPath(binary)
	if err != nil {
		return capability
	}
	capability.Path = p
	capability.Available = true
	return capability
}

// extractPandoc converts an office, markup or e-book document by shelling
// out to the external converter with the workspace as working directory, so
// extracted media lands in the workspace media directory. HTML sources get
// their remote images downloaded and rewritten to local references first.
func (c *Converter) extractPandoc(ctx context.Context, path string, ws *TempWorkspace) (*extraction, error) {
	if !c.capability.Available {
		return nil, &ConverterUnavailableError{Binary: c.capability.Binary}
	}

	ex := &extraction{}
	src := path
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		if data, err := os.ReadFile(path); err == nil {
			ex.Title = extractHTMLTitle(decodeText(data))
		}
		pf, err := c.prefetchHTMLImages(ctx, path, ws)
		if err != nil {
			c.logger.WithError(err).Warn("HTML image pre-fetch failed, converting original")
		} else {
			src = pf.SourcePath
			ex.Images = append(ex.Images, pf.Images...)
			ex.Failures = append(ex.Failures, pf.Failures...)
		}
	}

	absSrc, err := filepath.Abs(src)
	if err != nil {
		absSrc = src
	}

	const outName = "converted.md"
	args := []string{
		absSrc,
		"-t", "gfm",
		"--wrap=none",
		"--columns=1000",
		"--markdown-headings=atx",
		"--standalone",
		"--extract-media=media",
		"-o", outName,
	}
	if c.options.TableOfContents {
		args = append(args, "--toc")
	}

	cmd := exec.CommandContext(ctx, c.capability.Path, args...)
	cmd.Dir = ws.Root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.logger.WithFields(logrus.Fields{
		"file":      filepath.Base(path),
		"converter": c.capability.Binary,
	}).Debug("running external converter")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, &ConversionFailedError{
			Filename: filepath.Base(path),
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
		}
	}

	out, err := os.ReadFile(filepath.Join(ws.Root, outName))
	if err != nil {
		return nil, &ConversionFailedError{
			Filename: filepath.Base(path),
			ExitCode: 0,
			Stderr:   fmt.Sprintf("converter produced no output: %v", err),
		}
	}

	if err := ws.FlattenMedia(); err != nil {
		c.logger.WithError(err).Warn("could not flatten nested media directory")
	}

	md := fixMediaPaths(string(out))
	md, assets := c.collectWorkspaceMedia(md, ws)
	ex.Images = append(ex.Images, assets...)

	res := resolveRemoteImages(ctx, md, &c.options, c.httpClient, c.logger)
	ex.Images = append(ex.Images, res.Images...)
	ex.Failures = append(ex.Failures, res.Failures...)

	ex.Markdown = reshapeMarkdownTables(res.Markdown)
	return ex, nil
}

// collectWorkspaceMedia pulls every media file the markdown references out of
// the workspace, runs it through the image pipeline, and rewrites references
// to the content-addressed names. References are handled in first-reference
// order; duplicates of the same source file share one asset. References to
// files the converter never wrote are left untouched.
func (c *Converter) collectWorkspaceMedia(md string, ws *TempWorkspace) (string, []ImageAsset) {
	var assets []ImageAsset
	resolved := map[string]string{}

	for _, m := range reLocalImage.FindAllStringSubmatch(md, -1) {
		ref := m[2]
		if _, done := resolved[ref]; done {
			continue
		}
		name, ok := strings.CutPrefix(ref, "media/")
		if !ok || strings.Contains(name, "/") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(ws.MediaDir, name))
		if err != nil {
			continue
		}
		asset, err := normalizeImage(raw, OriginEmbedded, &c.options)
		if err != nil {
			c.logger.WithError(err).WithField("image", name).Debug("dropping converter media file")
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
			assets = append(assets, asset)
		}
	}

	if len(resolved) == 0 {
		return md, nil
	}

	md = reLocalImage.ReplaceAllStringFunc(md, func(ref string) string {
		m := reLocalImage.FindStringSubmatch(ref)
		target, ok := resolved[m[2]]
		if !ok {
			return ref
		}
		if target == "" {
			return ""
		}
		return "![" + m[1] + "](" + target + m[3] + ")"
	})
	return md, assets
}
