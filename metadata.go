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
	"os"
	"path/filepath"
	"strings"
	"time"
)

// buildMetadata assembles the metadata.json record for one converted
// document. PageOrSlideCount stays nil for formats without page structure.
func buildMetadata(path string, info os.FileInfo, ex *extraction, imageCount int) Metadata {
	return Metadata{
		SourceFilename:   filepath.Base(path),
		Format:           strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		PageOrSlideCount: ex.PageCount,
		ImageCount:       imageCount,
		ProcessedAt:      time.Now().UTC(),
		SizeBytes:        info.Size(),
		ModifiedAt:       info.ModTime().UTC(),
		Title:            ex.Title,
	}
}
