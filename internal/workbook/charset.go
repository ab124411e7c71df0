package workbook

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding represents a text encoding of a CSV export.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
	EncodingISO88591    Encoding = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding guesses the encoding of a byte buffer. Supplier CSV
// exports from Windows tooling are regularly Windows-1252; anything that
// validates as UTF-8 is trusted as UTF-8 so that files containing
// á/é/í/ó/ú/ñ are never double-decoded.
func DetectEncoding(data []byte) Encoding {
	if bytes.HasPrefix(data, utf8BOM) {
		return EncodingUTF8
	}
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1252
}

// DecodeText converts a byte buffer from the given encoding to a UTF-8
// string. The UTF-8 BOM, when present, is dropped.
func DecodeText(data []byte, enc Encoding) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	switch enc {
	case EncodingWindows1252:
		if utf8.Valid(data) {
			return string(data), nil
		}
		return decodeCharmap(data, charmap.Windows1252)
	case EncodingISO88591:
		return decodeCharmap(data, charmap.ISO8859_1)
	default:
		if utf8.Valid(data) {
			return string(data), nil
		}
		return decodeCharmap(data, charmap.Windows1252)
	}
}

func decodeCharmap(data []byte, cm *charmap.Charmap) (string, error) {
	reader := transform.NewReader(bytes.NewReader(data), cm.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
