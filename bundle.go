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
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteBundle packages a conversion result as a zip archive next to nothing
// else: <basename><suffix>.md at the root, metadata.json, and every
// kept-as-file image under media/. Returns the archive path.
func WriteBundle(result *ConversionResult, sourcePath, outputDir, suffix string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	zipPath := filepath.Join(outputDir, base+suffix+".zip")

	f, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("create bundle: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	mdName := base + suffix + ".md"
	w, err := zw.Create(mdName)
	if err != nil {
		return "", fmt.Errorf("bundle %s: %w", mdName, err)
	}
	if _, err := w.Write([]byte(result.Markdown)); err != nil {
		return "", fmt.Errorf("bundle %s: %w", mdName, err)
	}

	metaBytes, err := json.MarshalIndent(result.Metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	w, err = zw.Create("metadata.json")
	if err != nil {
		return "", fmt.Errorf("bundle metadata.json: %w", err)
	}
	if _, err := w.Write(metaBytes); err != nil {
		return "", fmt.Errorf("bundle metadata.json: %w", err)
	}

	for _, img := range result.Images {
		if img.Decision != DecisionFile {
			continue
		}
		w, err := zw.Create("media/" + img.Key)
		if err != nil {
			return "", fmt.Errorf("bundle media/%s: %w", img.Key, err)
		}
		if _, err := w.Write(img.Bytes); err != nil {
			return "", fmt.Errorf("bundle media/%s: %w", img.Key, err)
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize bundle: %w", err)
	}
	return zipPath, nil
}
