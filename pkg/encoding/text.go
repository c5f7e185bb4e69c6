// Package encoding converts names found in mesh and material files to UTF-8.
//
// Exporters on older systems write mtllib and map_Kd names in the local code
// page and with Windows path separators.
package encoding

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// legacy lists the code pages tried, in order, for names that are not UTF-8.
// Windows-1252 maps every byte and so always succeeds.
var legacy = []encoding.Encoding{
	korean.EUCKR,
	charmap.Windows1252,
}

// ToUTF8 returns s unchanged when it is valid UTF-8 and otherwise decodes it
// with the first legacy code page that yields no replacement characters.
func ToUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	for _, enc := range legacy {
		out, _, err := transform.String(enc.NewDecoder(), s)
		if err == nil && !strings.ContainsRune(out, utf8.RuneError) {
			return out
		}
	}
	return s
}

// NormalizePath converts backslashes to forward slashes.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// Name cleans a file name read from a mesh or material file.
func Name(raw string) string {
	return NormalizePath(ToUTF8(raw))
}
