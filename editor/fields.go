package editor

import "tagbatch/mp3"

// FieldDescriptor describes one editable field for shells and for the
// reconciliation loop.
type FieldDescriptor struct {
	Field     mp3.Field
	Label     string
	Multiline bool
}

// Fields is the single table every projection and apply iterates.
var Fields = []FieldDescriptor{
	{Field: mp3.FieldTitle, Label: "Title"},
	{Field: mp3.FieldArtist, Label: "Artist"},
	{Field: mp3.FieldAlbum, Label: "Album"},
	{Field: mp3.FieldYear, Label: "Year"},
	{Field: mp3.FieldGenre, Label: "Genre"},
	{Field: mp3.FieldComment, Label: "Comment"},
	{Field: mp3.FieldTrack, Label: "Track"},
	{Field: mp3.FieldTrackTotal, Label: "Track total"},
	{Field: mp3.FieldDisc, Label: "Disc"},
	{Field: mp3.FieldDiscTotal, Label: "Disc total"},
	{Field: mp3.FieldLyrics, Label: "Lyrics", Multiline: true},
	{Field: mp3.FieldComposer, Label: "Composer"},
	{Field: mp3.FieldLyricist, Label: "Lyricist"},
	{Field: mp3.FieldPublisher, Label: "Publisher"},
	{Field: mp3.FieldCopyright, Label: "Copyright"},
	{Field: mp3.FieldBPM, Label: "BPM"},
	{Field: mp3.FieldISRC, Label: "ISRC"},
}

// Label returns the display label of f.
func Label(f mp3.Field) string {
	for _, d := range Fields {
		if d.Field == f {
			return d.Label
		}
	}
	return string(f)
}
