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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// extractTabular converts spreadsheet sources to markdown tables, one table
// per sheet with the sheet name as heading. All tables obey the reshaping
// contract: header row, separator row, uniform column count, padded ragged
// rows, display caps from Options.
func (c *Converter) extractTabular(path string) (*extraction, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx":
		return c.extractXLSX(path)
	case ".xls":
		return c.extractXLS(path)
	case ".csv":
		return c.extractDelimited(path, ',')
	case ".tsv":
		return c.extractDelimited(path, '\t')
	}
	return nil, &UnsupportedFormatError{Filename: filepath.Base(path), Extension: ext}
}

func (c *Converter) extractXLSX(path string) (*extraction, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &CorruptDocumentError{Filename: filepath.Base(path), Err: err}
	}
	defer f.Close()

	var md strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&md, "## %s\n", sheet)
		md.WriteString(renderMarkdownTable(rows, c.options.MaxRowsDisplay, c.options.MaxColumnsDisplay))
		md.WriteString("\n")
	}

	return &extraction{Markdown: md.String()}, nil
}

func (c *Converter) extractXLS(path string) (*extraction, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, &CorruptDocumentError{Filename: filepath.Base(path), Err: err}
	}

	var md strings.Builder
	sheetCount := wb.NumSheets()
	for i := 0; i < sheetCount; i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		name := sheet.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}

		var rows [][]string
		for rowIdx := 0; rowIdx <= int(sheet.MaxRow); rowIdx++ {
			row := sheet.Row(rowIdx)
			if row == nil {
				continue
			}
			var cells []string
			for colIdx := 0; colIdx < row.LastCol(); colIdx++ {
				cells = append(cells, row.Col(colIdx))
			}
			rows = append(rows, cells)
		}
		if len(rows) == 0 {
			continue
		}

		fmt.Fprintf(&md, "## %s\n", name)
		md.WriteString(renderMarkdownTable(rows, c.options.MaxRowsDisplay, c.options.MaxColumnsDisplay))
		md.WriteString("\n")
	}

	return &extraction{Markdown: md.String()}, nil
}

func (c *Converter) extractDelimited(path string, delim rune) (*extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CorruptDocumentError{Filename: filepath.Base(path), Err: err}
	}

	r := csv.NewReader(strings.NewReader(decodeText(data)))
	r.Comma = delim
	r.FieldsPerRecord = -1 // ragged rows are padded later, not rejected
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, &CorruptDocumentError{Filename: filepath.Base(path), Err: err}
	}
	if len(records) == 0 {
		return &extraction{}, nil
	}

	md := renderMarkdownTable(records, c.options.MaxRowsDisplay, c.options.MaxColumnsDisplay)
	return &extraction{Markdown: md}, nil
}
