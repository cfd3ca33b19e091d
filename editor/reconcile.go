package editor

import "tagbatch/mp3"

// Projection is the common value of every editable field across a
// selection. A field whose records disagree is mixed and projects to "".
type Projection struct {
	count        int
	values       map[mp3.Field]string
	mixed        map[mp3.Field]bool
	artwork      *mp3.Artwork
	artworkMixed bool
}

// Project compares each field across records with exact string equality,
// treating an unset field as "". An empty selection projects every field to
// "".
func Project(records []*Record) Projection {
	p := Projection{
		count:  len(records),
		values: make(map[mp3.Field]string, len(Fields)),
		mixed:  make(map[mp3.Field]bool),
	}
	if len(records) == 0 {
		return p
	}

	for _, d := range Fields {
		first := records[0].Get(d.Field)
		for _, rec := range records[1:] {
			if rec.Get(d.Field) != first {
				p.mixed[d.Field] = true
				break
			}
		}
		if !p.mixed[d.Field] {
			p.values[d.Field] = first
		}
	}

	p.artwork = records[0].artwork
	for _, rec := range records[1:] {
		if !rec.artwork.Equal(p.artwork) {
			p.artworkMixed = true
			p.artwork = nil
			break
		}
	}
	return p
}

// Len is the number of records the projection was computed over.
func (p Projection) Len() int { return p.count }

// Value is the shared value of f, or "" when f is mixed.
func (p Projection) Value(f mp3.Field) string { return p.values[f] }

// Mixed reports whether the records disagree on f.
func (p Projection) Mixed(f mp3.Field) bool { return p.mixed[f] }

// Common reports whether every record holds the same value for f.
func (p Projection) Common(f mp3.Field) bool { return !p.mixed[f] }

// Values returns the projected value of every field, mixed ones as "".
func (p Projection) Values() mp3.Values {
	out := make(mp3.Values, len(Fields))
	for _, d := range Fields {
		out[d.Field] = p.values[d.Field]
	}
	return out
}

// Artwork is the shared artwork, nil when none or mixed.
func (p Projection) Artwork() *mp3.Artwork { return p.artwork.Clone() }

func (p Projection) ArtworkMixed() bool { return p.artworkMixed }

// Edits are the values staged in an editor for one apply.
type Edits struct {
	Values mp3.Values
	// Clear lists fields removed from every record whatever the projection.
	// It takes precedence over Values.
	Clear         []mp3.Field
	ArtworkEdited bool
	// Artwork is the new picture when ArtworkEdited; nil clears it.
	Artwork *mp3.Artwork
}

// EditsFromProjection stages the projection unchanged, which applies as a
// no-op.
func EditsFromProjection(p Projection) Edits {
	return Edits{Values: p.Values()}
}

// ApplyResult counts what an Apply changed.
type ApplyResult struct {
	Records int
	Fields  int
}

// Apply writes edits onto every record. A non-empty edit always overwrites.
// An empty edit overwrites only when the field was common and empty across
// the whole selection before this call; otherwise the record keeps its
// value. Fields in Clear are removed unconditionally. Artwork changes only
// when ArtworkEdited is set, and then on every record alike.
func Apply(records []*Record, edits Edits) ApplyResult {
	before := Project(records)

	cleared := make(map[mp3.Field]bool, len(edits.Clear))
	for _, f := range edits.Clear {
		cleared[f] = true
	}

	var res ApplyResult
	for _, rec := range records {
		changed := false
		for _, d := range Fields {
			v := edits.Values.Get(d.Field)
			switch {
			case cleared[d.Field]:
				v = ""
			case v == "" && !(before.Common(d.Field) && before.Value(d.Field) == ""):
				continue
			}
			if rec.set(d.Field, v) {
				res.Fields++
				changed = true
			}
		}
		if edits.ArtworkEdited && rec.setArtwork(edits.Artwork) {
			changed = true
		}
		if changed {
			res.Records++
		}
	}
	return res
}
