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
	"path/filepath"
	"strings"
)

// FormatClass selects the extraction path for a source document. It is a
// closed set: adding a format means adding a case to every switch over it.
type FormatClass int

const (
	// FormatUnsupported means no extraction path accepts the file.
	FormatUnsupported FormatClass = iota
	// FormatPDF is handled by the native PDF extraction path.
	FormatPDF
	// FormatConverterManaged is handled by the external converter subprocess.
	FormatConverterManaged
	// FormatTabular is handled by the native spreadsheet path.
	FormatTabular
	// FormatText is handled by the native text/code/notebook path.
	FormatText
	// FormatFeed is handled by the native RSS/Atom path.
	FormatFeed
)

// String returns the metadata name of the format class.
func (f FormatClass) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatConverterManaged:
		return "converter"
	case FormatTabular:
		return "tabular"
	case FormatText:
		return "text"
	case FormatFeed:
		return "feed"
	case FormatUnsupported:
		return "unsupported"
	}
	return "unknown"
}

// converterManagedExts are handed to the external converter. The converter's
// own format support is the real contract; this list is what we offer it.
var converterManagedExts = map[string]bool{
	".docx": true,
	".doc":  true,
	".pptx": true,
	".ppt":  true,
	".odt":  true,
	".epub": true,
	".html": true,
	".htm":  true,
	".rtf":  true,
	".org":  true,
	".tex":  true,
}

var tabularExts = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
	".tsv":  true,
}

var feedExts = map[string]bool{
	".rss":  true,
	".atom": true,
	".xml":  true,
}

// codeExts map source-code extensions to fence language tags.
var codeExts = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".java":  "java",
	".cs":    "csharp",
	".c":     "c",
	".cpp":   "cpp",
	".h":     "c",
	".go":    "go",
	".rb":    "ruby",
	".php":   "php",
	".rs":    "rust",
	".kt":    "kotlin",
	".swift": "swift",
	".sh":    "bash",
	".sql":   "sql",
	".yaml":  "yaml",
	".yml":   "yaml",
}

var textExts = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
	".json":     true,
	".jsonl":    true,
	".ipynb":    true,
}

// ClassifyPath maps a file path to its format class by extension.
func ClassifyPath(path string) FormatClass {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return FormatPDF
	case converterManagedExts[ext]:
		return FormatConverterManaged
	case tabularExts[ext]:
		return FormatTabular
	case textExts[ext]:
		return FormatText
	case codeExts[ext] != "":
		return FormatText
	case feedExts[ext]:
		return FormatFeed
	}
	return FormatUnsupported
}

// isTransientFile reports whether a directory entry is an editor or OS
// artifact that should never be dispatched (Office lock files, backups,
// Thumbs.db and friends).
func isTransientFile(name string) bool {
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".~") {
		return true
	}
	if strings.HasSuffix(name, ".tmp") || strings.HasSuffix(name, ".bak") {
		return true
	}
	switch strings.ToLower(name) {
	case "thumbs.db", "desktop.ini", ".ds_store":
		return true
	}
	return false
}
