package ragprep

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// decodeText converts raw bytes to a UTF-8 string, detecting the source
// charset when it is not plain ASCII/UTF-8. Detection is best effort: when
// every candidate decoding looks bad the bytes are passed through as UTF-8
// with invalid sequences preserved for the output normalizer to strip.
func decodeText(data []byte) string {
	if utf8.Valid(data) && !hasHighBytes(data) {
		return string(data)
	}
	if utf8.Valid(data) {
		s := string(data)
		if !strings.ContainsRune(s, '�') {
			return s
		}
	}

	detector := chardet.NewTextDetector()
	results, err := detector.DetectAll(data)
	if err != nil || len(results) == 0 {
		return string(data)
	}

	bestScore := -1 << 31
	bestText := ""
	for _, r := range results {
		enc := lookupEncoding(r.Charset)
		if enc == nil {
			continue
		}
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		text := string(decoded)
		if score := scoreDecoded(text, r.Confidence); score > bestScore {
			bestScore = score
			bestText = text
		}
	}
	if bestText != "" {
		return bestText
	}
	return string(data)
}

func hasHighBytes(data []byte) bool {
	for _, b := range data {
		if b > 0x7F {
			return true
		}
	}
	return false
}

// scoreDecoded ranks a candidate decoding. Replacement and control
// characters signal the wrong charset; ordinary letters and CJK codepoints
// signal a plausible one.
func scoreDecoded(text string, confidence int) int {
	score := confidence
	for _, r := range text {
		switch {
		case r == '�':
			score -= 10
		case r < 0x20 && r != '\n' && r != '\r' && r != '\t':
			score -= 5
		case r >= 0x3040 && r <= 0x30FF, // kana
			r >= 0x4E00 && r <= 0x9FFF, // CJK ideographs
			r >= 0xAC00 && r <= 0xD7A3: // hangul
			score += 2
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			score++
		}
	}
	return score
}

// lookupEncoding maps detector charset names to Go encodings.
func lookupEncoding(charset string) encoding.Encoding {
	key := strings.ToLower(charset)
	key = strings.NewReplacer("-", "", "_", "").Replace(key)
	switch key {
	case "utf8", "utf8bom", "ascii", "usascii":
		return unicode.UTF8
	case "utf16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case "utf16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case "iso88591", "latin1":
		return charmap.ISO8859_1
	case "iso88592":
		return charmap.ISO8859_2
	case "iso88595":
		return charmap.ISO8859_5
	case "iso88597":
		return charmap.ISO8859_7
	case "iso88599":
		return charmap.ISO8859_9
	case "iso885915":
		return charmap.ISO8859_15
	case "windows1250", "cp1250":
		return charmap.Windows1250
	case "windows1251", "cp1251":
		return charmap.Windows1251
	case "windows1252", "cp1252":
		return charmap.Windows1252
	case "windows1254", "cp1254":
		return charmap.Windows1254
	case "koi8r":
		return charmap.KOI8R
	case "shiftjis", "sjis", "cp932", "windows31j":
		return japanese.ShiftJIS
	case "eucjp":
		return japanese.EUCJP
	case "iso2022jp":
		return japanese.ISO2022JP
	case "euckr", "cp949":
		return korean.EUCKR
	case "gb2312", "gbk", "cp936", "gb18030":
		return simplifiedchinese.GBK
	case "big5", "cp950":
		return traditionalchinese.Big5
	}
	return nil
}
