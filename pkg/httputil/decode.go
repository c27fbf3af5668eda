package httputil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// fallbackEncodings are tried after the caller's preference
var fallbackEncodings = []string{"gbk", "gb18030", "utf-8"}

// Decode converts raw upstream bytes to UTF-8.
// Encodings are tried in order (preferred, gbk, gb18030, utf-8); the first
// strict decode wins. If none succeed the bytes are decoded lossily.
func Decode(raw []byte, preferred string) string {
	tried := make(map[string]bool)
	for _, name := range append([]string{preferred}, fallbackEncodings...) {
		name = normalizeEncoding(name)
		if name == "" || tried[name] {
			continue
		}
		tried[name] = true

		if text, ok := decodeStrict(raw, name); ok {
			return text
		}
	}

	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}

func normalizeEncoding(name string) string {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "utf-8", "utf8":
		return "utf-8"
	case "gbk", "cp936", "gb2312": // gb2312 ⊂ gbk
		return "gbk"
	case "gb18030":
		return "gb18030"
	default:
		return ""
	}
}

func decodeStrict(raw []byte, name string) (string, bool) {
	var enc encoding.Encoding
	switch name {
	case "utf-8":
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	case "gbk":
		enc = simplifiedchinese.GBK
	case "gb18030":
		enc = simplifiedchinese.GB18030
	default:
		return "", false
	}

	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	// x/text substitutes invalid sequences instead of failing
	if strings.ContainsRune(string(out), utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
