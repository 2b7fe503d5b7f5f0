package ragprep

import (
	"strings"
	"testing"
)

func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		name     string
		fontSize float64
		bodySize float64
		bold     bool
		want     int
	}{
		{"double body size", 24, 12, false, 1},
		{"1.5x body size", 18, 12, false, 2},
		{"slightly larger bold", 14, 12, true, 3},
		{"slightly larger regular", 14, 12, false, 4},
		{"body text", 12, 12, false, 0},
		{"smaller than body", 9, 12, false, 0},
		{"no body size known", 24, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headingLevel(tt.fontSize, tt.bodySize, tt.bold); got != tt.want {
				t.Errorf("headingLevel(%v, %v, %v) = %d, want %d", tt.fontSize, tt.bodySize, tt.bold, got, tt.want)
			}
		})
	}
}

func TestFontClassification(t *testing.T) {
	bold := []string{"Helvetica-Bold", "NimbusRomNo9L-Medi", "ArialBd"}
	for _, name := range bold {
		if !fontIsBold(name) {
			t.Errorf("fontIsBold(%q) = false", name)
		}
	}
	if fontIsBold("Helvetica") {
		t.Error("Helvetica misclassified as bold")
	}

	if !fontIsItalic("Times-Italic") || !fontIsItalic("Courier-Oblique") {
		t.Error("italic fonts not recognized")
	}
	if fontIsItalic("Times-Roman") {
		t.Error("Times-Roman misclassified as italic")
	}

	mono := []string{"Courier", "DejaVuSansMono", "Consolas", "CMTT10"}
	for _, name := range mono {
		if !fontIsMono(name) {
			t.Errorf("fontIsMono(%q) = false", name)
		}
	}
}

func TestRenderPageMarkdown(t *testing.T) {
	lines := groupSpansIntoLines([]pdfSpan{
		{text: "Document Title", x: 10, y: 700, size: 24, font: "Helvetica-Bold"},
		{text: "Body paragraph text here.", x: 10, y: 650, size: 12, font: "Helvetica"},
		{text: "More body text to anchor the dominant size.", x: 10, y: 635, size: 12, font: "Helvetica"},
		{text: "inline code", x: 10, y: 620, size: 12, font: "Courier"},
	})
	bodySize := detectBodyFontSize(lines)
	md := renderPageMarkdown(lines, bodySize)

	if !strings.Contains(md, "# Document Title") {
		t.Errorf("title not promoted to heading:\n%s", md)
	}
	if !strings.Contains(md, "Body paragraph text here.") {
		t.Errorf("body text missing:\n%s", md)
	}
	if !strings.Contains(md, "`inline code`") {
		t.Errorf("mono run not fenced:\n%s", md)
	}
}

func TestGroupSpansIntoLinesOrdering(t *testing.T) {
	lines := groupSpansIntoLines([]pdfSpan{
		{text: "second", x: 10, y: 100, size: 12},
		{text: "first", x: 10, y: 200, size: 12},
		{text: " line", x: 60, y: 200.5, size: 12},
	})

	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if got := lines[0].text(); got != "first line" {
		t.Errorf("top line = %q, want %q", got, "first line")
	}
	if got := lines[1].text(); got != "second" {
		t.Errorf("bottom line = %q, want %q", got, "second")
	}
}

func TestPageNumberFromImageName(t *testing.T) {
	tests := []struct {
		name string
		page int
		ok   bool
	}{
		{"report_page_3_Im0.png", 3, true},
		{"report_page_12_Im4.jpg", 12, true},
		{"report_page_7.png", 7, true},
		{"noformat.png", 0, false},
	}

	for _, tt := range tests {
		page, ok := pageNumberFromImageName(tt.name)
		if ok != tt.ok || page != tt.page {
			t.Errorf("pageNumberFromImageName(%q) = (%d, %v), want (%d, %v)", tt.name, page, ok, tt.page, tt.ok)
		}
	}
}
