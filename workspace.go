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
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TempWorkspace is an exclusively-owned scratch directory for one document
// conversion. External converters run with it as their working directory so
// their media output lands inside it.
type TempWorkspace struct {
	Root     string
	MediaDir string
}

// newWorkspace creates a fresh workspace under base (or the system temp
// directory when base is ""), with its media subdirectory ready.
func newWorkspace(base string) (*TempWorkspace, error) {
	root, err := os.MkdirTemp(base, "ragprep-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	media := filepath.Join(root, "media")
	if err := os.MkdirAll(media, 0o755); err != nil {
		os.RemoveAll(root)
		return nil, fmt.Errorf("create workspace media dir: %w", err)
	}
	return &TempWorkspace{Root: root, MediaDir: media}, nil
}

// FlattenMedia lifts files out of a nested media/media directory, which some
// converters produce when told to extract media relative to the working
// directory. Files already present at the top level win on name collision.
func (ws *TempWorkspace) FlattenMedia() error {
	nested := filepath.Join(ws.MediaDir, "media")
	info, err := os.Stat(nested)
	if err != nil || !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(nested)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		src := filepath.Join(nested, entry.Name())
		dst := filepath.Join(ws.MediaDir, entry.Name())
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			return err
		}
	}
	return os.RemoveAll(nested)
}

// Remove deletes the workspace, retrying briefly: on Windows an external
// converter's handles can outlive its process for a moment.
func (ws *TempWorkspace) Remove() {
	for attempt := 0; attempt < 5; attempt++ {
		if err := os.RemoveAll(ws.Root); err == nil {
			return
		}
		time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}
}
