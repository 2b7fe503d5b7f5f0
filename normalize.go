package ragprep

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	reTrailingWhitespace = regexp.MustCompile(`[ \t]+\n`)
	reMultipleNewlines   = regexp.MustCompile(`\n{3,}`)
	reCRLF               = regexp.MustCompile(`\r\n?`)
)

// normalizeMarkdown applies output post-processing shared by every
// extraction path:
//   - normalize line endings (CRLF -> LF)
//   - strip non-printable/control characters (keeping \n and \t)
//   - strip trailing whitespace from each line
//   - collapse 3+ consecutive newlines to 2
//   - guarantee valid UTF-8
func normalizeMarkdown(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	s = reCRLF.ReplaceAllString(s, "\n")

	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	s = reTrailingWhitespace.ReplaceAllString(s, "\n")
	s = reMultipleNewlines.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// fixMediaPaths repairs doubled media prefixes the external converter can
// produce when its working directory already contains a media folder.
func fixMediaPaths(md string) string {
	return strings.ReplaceAll(md, "media/media/", "media/")
}
