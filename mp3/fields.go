package mp3

import "strings"

// Field names one editable text field of a tag.
type Field string

const (
	FieldTitle      Field = "title"
	FieldArtist     Field = "artist"
	FieldAlbum      Field = "album"
	FieldYear       Field = "year"
	FieldGenre      Field = "genre"
	FieldComment    Field = "comment"
	FieldTrack      Field = "track"
	FieldTrackTotal Field = "track-total"
	FieldDisc       Field = "disc"
	FieldDiscTotal  Field = "disc-total"
	FieldLyrics     Field = "lyrics"
	FieldComposer   Field = "composer"
	FieldLyricist   Field = "lyricist"
	FieldPublisher  Field = "publisher"
	FieldCopyright  Field = "copyright"
	FieldBPM        Field = "bpm"
	FieldISRC       Field = "isrc"
)

// AllFields lists every editable text field in display order.
var AllFields = []Field{
	FieldTitle,
	FieldArtist,
	FieldAlbum,
	FieldYear,
	FieldGenre,
	FieldComment,
	FieldTrack,
	FieldTrackTotal,
	FieldDisc,
	FieldDiscTotal,
	FieldLyrics,
	FieldComposer,
	FieldLyricist,
	FieldPublisher,
	FieldCopyright,
	FieldBPM,
	FieldISRC,
}

// ParseField resolves a field name, accepting "_" for "-" and any case.
func ParseField(name string) (Field, bool) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for _, f := range AllFields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Values maps fields to their text. A missing key and an empty string both
// mean the field is unset.
type Values map[Field]string

func (v Values) Get(f Field) string {
	if v == nil {
		return ""
	}
	return v[f]
}

func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Numeric reports whether f only accepts decimal digits.
func (f Field) Numeric() bool {
	for _, b := range bindings {
		if b.field == f {
			return b.numeric
		}
	}
	return false
}

// CheckValue reports whether v can be written to f. Blank values always pass.
func CheckValue(f Field, v string) error {
	v = strings.TrimSpace(v)
	if v == "" || !f.Numeric() || isDigits(v) {
		return nil
	}
	return &FieldError{Field: f, Value: v, Reason: "not a number"}
}

// part selects which half of an "n/total" frame a field occupies.
type part int

const (
	partWhole part = iota
	partNumber
	partTotal
)

// binding ties a field to the frame that stores it.
type binding struct {
	field   Field
	v3      string
	v4      string
	aliases []string
	part    part
	numeric bool
}

var bindings = []binding{
	{field: FieldTitle, v3: "TIT2", v4: "TIT2"},
	{field: FieldArtist, v3: "TPE1", v4: "TPE1"},
	{field: FieldAlbum, v3: "TALB", v4: "TALB"},
	{field: FieldYear, v3: "TYER", v4: "TDRC", aliases: []string{"TYER", "TDRC"}},
	{field: FieldGenre, v3: "TCON", v4: "TCON"},
	{field: FieldComment, v3: "COMM", v4: "COMM"},
	{field: FieldTrack, v3: "TRCK", v4: "TRCK", part: partNumber, numeric: true},
	{field: FieldTrackTotal, v3: "TRCK", v4: "TRCK", part: partTotal, numeric: true},
	{field: FieldDisc, v3: "TPOS", v4: "TPOS", part: partNumber, numeric: true},
	{field: FieldDiscTotal, v3: "TPOS", v4: "TPOS", part: partTotal, numeric: true},
	{field: FieldLyrics, v3: "USLT", v4: "USLT"},
	{field: FieldComposer, v3: "TCOM", v4: "TCOM"},
	{field: FieldLyricist, v3: "TEXT", v4: "TEXT"},
	{field: FieldPublisher, v3: "TPUB", v4: "TPUB"},
	{field: FieldCopyright, v3: "TCOP", v4: "TCOP"},
	{field: FieldBPM, v3: "TBPM", v4: "TBPM", numeric: true},
	{field: FieldISRC, v3: "TSRC", v4: "TSRC"},
}

const (
	frameArtwork = "APIC"
	frameEncoder = "TENC"
)

func (b binding) frameID(version byte) string {
	if version == 4 {
		return b.v4
	}
	return b.v3
}

// frameIDs returns every frame ID read for the binding, write ID first.
func (b binding) frameIDs(version byte) []string {
	ids := []string{b.frameID(version)}
	for _, a := range b.aliases {
		if a != ids[0] {
			ids = append(ids, a)
		}
	}
	return ids
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splitPair splits "n/total" into its halves.
func splitPair(s string) (number, total string) {
	number, total, _ = strings.Cut(s, "/")
	return strings.TrimSpace(number), strings.TrimSpace(total)
}

func joinPair(number, total string) string {
	if total == "" {
		return number
	}
	return number + "/" + total
}
