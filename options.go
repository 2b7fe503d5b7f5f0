package ragprep

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Options holds the per-run conversion settings. The zero value is not
// useful; start from DefaultOptions.
type Options struct {
	// EmbedSmallImages inlines normalized images below SmallImageThresholdKB
	// as base64 data URIs instead of media files.
	EmbedSmallImages      bool
	SmallImageThresholdKB int

	// ExcludeDecorative drops images whose width and height are both below
	// DecorativeThresholdPx.
	ExcludeDecorative     bool
	DecorativeThresholdPx int

	// ApplyMaxResolution downsamples images whose dimensions exceed
	// MaxImageResPx, preserving aspect ratio. Images within bounds are
	// never touched.
	ApplyMaxResolution bool
	MaxImageResPx      int

	// OutputSuffix is appended to output basenames, e.g. "report_rag.md".
	OutputSuffix string

	// MaxRowsDisplay and MaxColumnsDisplay cap rendered tables from
	// spreadsheet sources. Rows and columns beyond the cap are elided with
	// a note, never silently dropped mid-table.
	MaxRowsDisplay    int
	MaxColumnsDisplay int

	// TableOfContents asks the external converter to emit a TOC.
	TableOfContents bool

	// RemoteFetchWorkers bounds concurrent remote image downloads.
	// RemoteFetchTimeout applies per fetch.
	RemoteFetchWorkers int
	RemoteFetchTimeout time.Duration
}

// DefaultOptions returns the defaults used when the front end supplies no
// overrides.
func DefaultOptions() Options {
	return Options{
		SmallImageThresholdKB: 50,
		DecorativeThresholdPx: 50,
		MaxImageResPx:         1200,
		MaxRowsDisplay:        1000,
		MaxColumnsDisplay:     50,
		RemoteFetchWorkers:    5,
		RemoteFetchTimeout:    90 * time.Second,
	}
}

// ConverterOption configures a Converter instance.
type ConverterOption func(*Converter)

// WithConverterBinary overrides the external converter binary name probed at
// startup (default "pandoc").
func WithConverterBinary(name string) ConverterOption {
	return func(c *Converter) {
		c.converterBinary = name
	}
}

// WithStatusCallback registers a per-document status stream consumer, e.g.
// a GUI progress pane.
func WithStatusCallback(fn func(DocumentStatus)) ConverterOption {
	return func(c *Converter) {
		c.statusCallback = fn
	}
}

// WithLogger injects a logger. The default logger discards everything below
// warning level.
func WithLogger(logger *logrus.Logger) ConverterOption {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithHTTPClient overrides the HTTP client used for remote image fetches.
func WithHTTPClient(client httpDoer) ConverterOption {
	return func(c *Converter) {
		c.httpClient = client
	}
}
