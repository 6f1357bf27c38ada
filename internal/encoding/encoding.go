// Package encoding canonicalizes file encoding names and resolves them to
// decoders.
package encoding

import (
	"fmt"
	"regexp"
	"strings"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	tserrors "github.com/standardbeagle/textsearch/internal/errors"
)

var windowsCodePage = regexp.MustCompile(`windows(\d+)`)

// ToCanonicalName maps an editor style encoding id (utf16le, shiftjis,
// windows1252, ...) to the name search engines understand. Unknown names
// are returned unchanged.
func ToCanonicalName(enc string) string {
	switch enc {
	case "shiftjis":
		return "shift-jis"
	case "utf16le":
		return "utf-16le"
	case "utf16be":
		return "utf-16be"
	case "big5hkscs":
		return "big5-hkscs"
	case "eucjp":
		return "euc-jp"
	case "euckr":
		return "euc-kr"
	case "koi8r":
		return "koi8-r"
	case "koi8u":
		return "koi8-u"
	case "macroman":
		return "x-mac-roman"
	case "utf8bom":
		return "utf8"
	}

	if m := windowsCodePage.FindStringSubmatch(enc); m != nil {
		return "windows-" + m[1]
	}
	return enc
}

// IsUTF8 reports whether name denotes UTF-8, the encoding files are read in
// when no decoding is needed.
func IsUTF8(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf8", "utf-8", "utf8bom":
		return true
	}
	return false
}

// Lookup resolves an encoding name to a decoder. Both canonical and editor
// style names are accepted. UTF-8 resolves to UTF-8 with BOM stripping.
func Lookup(name string) (xencoding.Encoding, error) {
	if IsUTF8(name) {
		return unicode.UTF8BOM, nil
	}

	canonical := ToCanonicalName(name)
	if enc, err := htmlindex.Get(canonical); err == nil {
		return enc, nil
	}
	if enc, err := ianaindex.IANA.Encoding(canonical); err == nil && enc != nil {
		return enc, nil
	}
	return nil, tserrors.NewSearchError(tserrors.CodeUnknownEncoding, "", fmt.Errorf("unknown encoding %q", name))
}
