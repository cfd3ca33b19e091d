package mp3

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const id3v1Size = 128

// noGenre is the ID3v1 genre byte for "unset".
const noGenre = 0xFF

// id3v1Field is a fixed-width text slot in the trailer.
type id3v1Field struct {
	field      Field
	start, end int
}

// Comment is listed without its last two bytes, which ID3v1.1 uses for the
// track number.
var id3v1Layout = []id3v1Field{
	{FieldTitle, 3, 33},
	{FieldArtist, 33, 63},
	{FieldAlbum, 63, 93},
	{FieldYear, 93, 97},
	{FieldComment, 97, 125},
}

// id3v1Offset returns where the trailer starts, or -1. A trailer inside the
// ID3v2 container does not count.
func id3v1Offset(data []byte, after int64) int {
	off := len(data) - id3v1Size
	if off < int(after) || string(data[off:off+3]) != "TAG" {
		return -1
	}
	return off
}

// readID3v1 decodes a 128 byte trailer.
func readID3v1(raw []byte) Values {
	values := Values{}
	for _, f := range id3v1Layout {
		end := f.end
		if f.field == FieldComment && raw[125] != 0 {
			// ID3v1.0: the comment runs the full 30 bytes.
			end = 127
		}
		if s := id3v1String(raw[f.start:end]); s != "" {
			values[f.field] = s
		}
	}
	if raw[125] == 0 && raw[126] != 0 {
		values[FieldTrack] = strconv.Itoa(int(raw[126]))
	}
	if g := int(raw[127]); g < len(id3v1Genres) {
		values[FieldGenre] = id3v1Genres[g]
	}
	return values
}

// id3v1String stops at the first NUL and drops space padding.
func id3v1String(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c == 0 {
			break
		}
		sb.WriteRune(charmap.ISO8859_1.DecodeByte(c))
	}
	return strings.TrimRight(sb.String(), " ")
}

// patchID3v1 rewrites the fixed fields of trailer in place from values.
// The trailer is always written in the ID3v1.1 layout.
func patchID3v1(trailer []byte, values Values) {
	clear(trailer[3:])
	for _, f := range id3v1Layout {
		putID3v1String(trailer[f.start:f.end], values.Get(f.field))
	}
	if n, err := strconv.Atoi(values.Get(FieldTrack)); err == nil && n > 0 && n <= 0xFF {
		trailer[126] = byte(n)
	}
	trailer[127] = id3v1GenreIndex(values.Get(FieldGenre))
}

// putID3v1String truncates s to the slot. Runes outside Latin-1 become '?'.
func putID3v1String(dst []byte, s string) {
	i := 0
	for _, r := range s {
		if i == len(dst) {
			return
		}
		b, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			b = '?'
		}
		dst[i] = b
		i++
	}
}

// id3v1GenreIndex maps a genre name back to its ID3v1 number. Names outside
// the table have no ID3v1 form.
func id3v1GenreIndex(genre string) byte {
	name := resolveGenre(strings.TrimSpace(genre))
	for i, g := range id3v1Genres {
		if i < noGenre && strings.EqualFold(g, name) {
			return byte(i)
		}
	}
	return noGenre
}
