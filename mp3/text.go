package mp3

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ID3v2 text encoding bytes.
const (
	encISO88591 byte = 0
	encUTF16    byte = 1
	encUTF16BE  byte = 2
	encUTF8     byte = 3
)

func textDecoder(enc byte) *encoding.Decoder {
	switch enc {
	case encUTF16:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	case encUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	case encUTF8:
		return nil
	default:
		return charmap.ISO8859_1.NewDecoder()
	}
}

// decodeText converts frame text to UTF-8, dropping trailing terminators.
func decodeText(data []byte, enc byte) string {
	data = trimTerminators(data, enc)
	if len(data) == 0 {
		return ""
	}

	dec := textDecoder(enc)
	if dec == nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	out, err := dec.Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

// decodeFirstText returns the first value of a possibly multi-valued text
// field (ID3v2.4 separates values with terminators).
func decodeFirstText(data []byte, enc byte) string {
	if i := findTerminator(data, enc); i >= 0 {
		data = data[:i]
	}
	return decodeText(data, enc)
}

func trimTerminators(data []byte, enc byte) []byte {
	if terminatorSize(enc) == 2 {
		for len(data) >= 2 && data[len(data)-1] == 0 && data[len(data)-2] == 0 {
			data = data[:len(data)-2]
		}
		return data
	}
	return bytes.TrimRight(data, "\x00")
}

// findTerminator returns the index of the first string terminator or -1.
func findTerminator(data []byte, enc byte) int {
	if terminatorSize(enc) == 2 {
		for i := 0; i+1 < len(data); i += 2 {
			if data[i] == 0 && data[i+1] == 0 {
				return i
			}
		}
		return -1
	}
	return bytes.IndexByte(data, 0)
}

func terminatorSize(enc byte) int {
	if enc == encUTF16 || enc == encUTF16BE {
		return 2
	}
	return 1
}

// chooseEncoding picks the text encoding written for a tag version.
// ID3v2.3 has no UTF-8, so text outside Latin-1 goes out as UTF-16.
func chooseEncoding(version byte, s string) byte {
	if version == 4 {
		return encUTF8
	}
	for _, r := range s {
		if r > 0xFF {
			return encUTF16
		}
	}
	return encISO88591
}

// encodeText encodes s in enc without a terminator.
func encodeText(s string, enc byte) ([]byte, error) {
	switch enc {
	case encUTF8:
		if !utf8.ValidString(s) {
			s = strings.ToValidUTF8(s, "�")
		}
		return []byte(s), nil
	case encUTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(s))
	case encUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	default:
		return charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	}
}

func terminator(enc byte) []byte {
	if terminatorSize(enc) == 2 {
		return []byte{0, 0}
	}
	return []byte{0}
}
