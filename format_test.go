package ragprep

import "testing"

func TestClassifyPath(t *testing.T) {
	tests := []struct {
		path string
		want FormatClass
	}{
		{"report.pdf", FormatPDF},
		{"REPORT.PDF", FormatPDF},
		{"notes.docx", FormatConverterManaged},
		{"slides.pptx", FormatConverterManaged},
		{"book.epub", FormatConverterManaged},
		{"page.html", FormatConverterManaged},
		{"doc.rtf", FormatConverterManaged},
		{"data.xlsx", FormatTabular},
		{"legacy.xls", FormatTabular},
		{"table.csv", FormatTabular},
		{"table.tsv", FormatTabular},
		{"readme.md", FormatText},
		{"notes.txt", FormatText},
		{"payload.json", FormatText},
		{"notebook.ipynb", FormatText},
		{"script.py", FormatText},
		{"feed.rss", FormatFeed},
		{"feed.atom", FormatFeed},
		{"feed.xml", FormatFeed},
		{"movie.mp4", FormatUnsupported},
		{"archive.tar.gz", FormatUnsupported},
		{"noextension", FormatUnsupported},
	}

	for _, tt := range tests {
		if got := ClassifyPath(tt.path); got != tt.want {
			t.Errorf("ClassifyPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsTransientFile(t *testing.T) {
	transient := []string{"~$report.docx", ".~lock.odt", "draft.tmp", "old.bak", "Thumbs.db", "desktop.ini", ".DS_Store"}
	for _, name := range transient {
		if !isTransientFile(name) {
			t.Errorf("isTransientFile(%q) = false, want true", name)
		}
	}

	regular := []string{"report.docx", "tmp.pdf", "backup-notes.txt"}
	for _, name := range regular {
		if isTransientFile(name) {
			t.Errorf("isTransientFile(%q) = true, want false", name)
		}
	}
}
