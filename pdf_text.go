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
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfSpan is a positioned text fragment on a PDF page with font metadata.
type pdfSpan struct {
	text string
	x    float64
	y    float64
	size float64
	font string
}

// pdfLine is a group of spans sharing a baseline, sorted left-to-right.
type pdfLine struct {
	y     float64
	spans []pdfSpan
	size  float64 // dominant font size on this line
	font  string  // dominant font name on this line
}

func (l *pdfLine) text() string {
	var b strings.Builder
	for _, s := range l.spans {
		b.WriteString(s.text)
	}
	return b.String()
}

// pdfPageMarkdown renders a single page's text content as markdown, with
// heading levels derived from font size relative to the page body size and
// inline bold/italic/code runs from font names.
func pdfPageMarkdown(page pdf.Page) string {
	content := page.Content()
	if len(content.Text) == 0 {
		return ""
	}

	var spans []pdfSpan
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		spans = append(spans, pdfSpan{
			text: t.S,
			x:    t.X,
			y:    t.Y,
			size: t.FontSize,
			font: t.Font,
		})
	}
	if len(spans) == 0 {
		return ""
	}

	lines := groupSpansIntoLines(spans)
	bodySize := detectBodyFontSize(lines)
	return renderPageMarkdown(lines, bodySize)
}

// groupSpansIntoLines groups spans by baseline proximity into lines sorted
// top-to-bottom; spans within each line are sorted left-to-right and the
// line's dominant font is recorded.
func groupSpansIntoLines(spans []pdfSpan) []pdfLine {
	yTolerance := 3.0
	if spans[0].size > 0 {
		yTolerance = spans[0].size * 0.3
	}

	var lines []pdfLine
	for _, s := range spans {
		merged := false
		for i := range lines {
			if math.Abs(lines[i].y-s.y) < yTolerance {
				lines[i].spans = append(lines[i].spans, s)
				merged = true
				break
			}
		}
		if !merged {
			lines = append(lines, pdfLine{y: s.y, spans: []pdfSpan{s}})
		}
	}

	// PDF coordinates grow upward; higher Y means closer to the page top.
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].y > lines[j].y
	})

	for i := range lines {
		sort.Slice(lines[i].spans, func(a, b int) bool {
			return lines[i].spans[a].x < lines[i].spans[b].x
		})
		lines[i].size, lines[i].font = dominantFont(lines[i].spans)
	}

	return lines
}

// dominantFont returns the font size and name covering the most characters.
func dominantFont(spans []pdfSpan) (float64, string) {
	type fontKey struct {
		size float64
		name string
	}
	counts := map[fontKey]int{}
	for _, s := range spans {
		k := fontKey{size: math.Round(s.size*10) / 10, name: s.font}
		counts[k] += len(s.text)
	}
	var bestKey fontKey
	bestCount := 0
	for k, c := range counts {
		if c > bestCount {
			bestCount = c
			bestKey = k
		}
	}
	return bestKey.size, bestKey.name
}

// detectBodyFontSize finds the most common font size across all lines,
// weighted by character count. That size is taken as the body text size.
func detectBodyFontSize(lines []pdfLine) float64 {
	sizeCounts := map[float64]int{}
	for _, l := range lines {
		for _, s := range l.spans {
			rounded := math.Round(s.size*10) / 10
			sizeCounts[rounded] += len(strings.TrimSpace(s.text))
		}
	}

	var bodySize float64
	maxCount := 0
	for size, count := range sizeCounts {
		if count > maxCount {
			maxCount = count
			bodySize = size
		}
	}
	return bodySize
}

func fontIsBold(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "bold") ||
		strings.Contains(lower, "medi") || // e.g. NimbusRomNo9L-Medi
		strings.HasSuffix(lower, "-bd") ||
		strings.HasSuffix(lower, "bd")
}

func fontIsItalic(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "ital") ||
		strings.Contains(lower, "obli") ||
		strings.HasSuffix(lower, "-it")
}

func fontIsMono(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "mono") ||
		strings.Contains(lower, "courier") ||
		strings.Contains(lower, "consola") ||
		strings.HasPrefix(lower, "cmtt") || // Computer Modern Typewriter
		strings.Contains(lower, "typewriter")
}

func allSpansAreBold(spans []pdfSpan) bool {
	for _, s := range spans {
		if strings.TrimSpace(s.text) == "" {
			continue
		}
		if !fontIsBold(s.font) {
			return false
		}
	}
	return true
}

// headingLevel maps a line's font size to a markdown heading level relative
// to the body size. Returns 0 for body text.
func headingLevel(fontSize, bodySize float64, isBold bool) int {
	if bodySize <= 0 {
		return 0
	}
	ratio := fontSize / bodySize
	switch {
	case ratio >= 2.0:
		return 1
	case ratio >= 1.5:
		return 2
	case ratio >= 1.1:
		if isBold {
			return 3
		}
		return 4
	default:
		return 0
	}
}

// renderPageMarkdown converts grouped lines into markdown text.
func renderPageMarkdown(lines []pdfLine, bodySize float64) string {
	var md strings.Builder
	prevWasHeading := false

	for i, line := range lines {
		rawText := strings.TrimSpace(line.text())
		if rawText == "" {
			continue
		}

		// Skip tiny standalone annotations (superscript footnote markers).
		if line.size > 0 && bodySize > 0 && line.size < bodySize*0.6 && len(rawText) <= 3 {
			continue
		}

		isBold := fontIsBold(line.font)
		level := headingLevel(line.size, bodySize, isBold)

		// Standalone short bold lines at body size are likely subheadings
		// (e.g. "References", "Acknowledgements").
		if level == 0 && isBold && line.size >= bodySize && allSpansAreBold(line.spans) && len(rawText) < 80 {
			level = 4
		}

		lineMarkdown := strings.TrimSpace(buildLineMarkdown(line.spans, bodySize))
		if lineMarkdown == "" {
			continue
		}

		if level > 0 {
			if md.Len() > 0 {
				md.WriteString("\n")
			}
			md.WriteString(strings.Repeat("#", level))
			md.WriteString(" ")
			// Headings imply emphasis; drop inline markers.
			md.WriteString(stripInlineMarkers(lineMarkdown))
			md.WriteString("\n\n")
			prevWasHeading = true
		} else {
			if i > 0 && !prevWasHeading {
				gap := lines[i-1].y - line.y
				lineHeight := line.size
				if lineHeight <= 0 {
					lineHeight = bodySize
				}
				// A gap well beyond the line height marks a paragraph break.
				if lineHeight > 0 && gap > lineHeight*1.8 {
					md.WriteString("\n")
				}
			}
			md.WriteString(lineMarkdown)
			md.WriteString("\n")
			prevWasHeading = false
		}
	}

	return md.String()
}

// buildLineMarkdown renders a line's spans with word spacing inferred from
// horizontal gaps and inline markers from font properties. Consecutive spans
// with the same formatting merge into one run so markers are not split
// mid-word.
func buildLineMarkdown(spans []pdfSpan, bodySize float64) string {
	type fmtRun struct {
		text   string
		bold   bool
		italic bool
		mono   bool
	}

	var runs []fmtRun
	var lastX, lastWidth float64
	first := true
	for _, s := range spans {
		text := s.text
		if strings.TrimSpace(text) == "" {
			continue
		}

		if s.size > 0 && bodySize > 0 && s.size < bodySize*0.6 && len(strings.TrimSpace(text)) <= 3 {
			continue
		}

		if !first {
			gap := s.x - (lastX + lastWidth)
			threshold := s.size * 0.2
			if threshold < 1.0 {
				threshold = 1.0
			}
			if gap > threshold && len(runs) > 0 {
				prev := &runs[len(runs)-1]
				if !strings.HasSuffix(prev.text, " ") {
					prev.text += " "
				}
			}
		}
		lastX = s.x
		lastWidth = float64(len([]rune(text))) * s.size * 0.55
		first = false

		run := fmtRun{
			text:   text,
			bold:   fontIsBold(s.font),
			italic: fontIsItalic(s.font),
			mono:   fontIsMono(s.font),
		}
		if len(runs) > 0 {
			prev := &runs[len(runs)-1]
			if prev.bold == run.bold && prev.italic == run.italic && prev.mono == run.mono {
				prev.text += text
				continue
			}
		}
		runs = append(runs, run)
	}

	var b strings.Builder
	for _, run := range runs {
		text := run.text
		switch {
		case run.mono:
			b.WriteString("`")
			b.WriteString(strings.TrimSpace(text))
			b.WriteString("`")
			if strings.HasSuffix(text, " ") {
				b.WriteString(" ")
			}
		case run.bold || run.italic:
			marker := "*"
			if run.bold && run.italic {
				marker = "***"
			} else if run.bold {
				marker = "**"
			}
			trimmed := strings.TrimRight(text, " ")
			b.WriteString(marker)
			b.WriteString(trimmed)
			b.WriteString(marker)
			if len(text) > len(trimmed) {
				b.WriteString(" ")
			}
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}

// stripInlineMarkers removes inline markdown markers for use in headings.
func stripInlineMarkers(s string) string {
	s = strings.ReplaceAll(s, "***", "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
