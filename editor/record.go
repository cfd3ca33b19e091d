package editor

import (
	"fmt"
	"math"
	"path/filepath"
	"sync/atomic"

	"tagbatch/mp3"
)

// State is the lifecycle position of a loaded record.
type State int

const (
	StateClean State = iota
	StateEdited
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateEdited:
		return "edited"
	case StateRemoved:
		return "removed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Properties are read-only values derived when a file is loaded. They are
// never written back.
type Properties struct {
	Encoder  string
	FileSize int64
	Duration float64 // seconds
	Bitrate  int     // kbps
	Format   string
}

func (p Properties) Size() string        { return FormatSize(p.FileSize) }
func (p Properties) Length() string      { return FormatDuration(p.Duration) }
func (p Properties) BitrateText() string { return FormatBitrate(p.Bitrate) }

// Record is one loaded file. A Session owns its records; callers only read
// them.
type Record struct {
	path    string
	values  mp3.Values
	artwork *mp3.Artwork
	props   Properties
	state   atomic.Int32
}

func newRecord(path string, size int64, tag *mp3.Tag) *Record {
	values := make(mp3.Values, len(tag.Values))
	for f, v := range tag.Values {
		if v != "" {
			values[f] = v
		}
	}
	return &Record{
		path:    path,
		values:  values,
		artwork: tag.Artwork,
		props: Properties{
			Encoder:  tag.Encoder,
			FileSize: size,
			Duration: tag.Audio.Seconds,
			Bitrate:  tag.Audio.Bitrate,
			Format:   tag.Audio.Format,
		},
	}
}

func (r *Record) Path() string { return r.path }

// Name is the file's base name, extension included.
func (r *Record) Name() string { return filepath.Base(r.path) }

// Get returns the field's value, "" when unset.
func (r *Record) Get(f mp3.Field) string { return r.values.Get(f) }

// Values returns a copy of the record's text fields.
func (r *Record) Values() mp3.Values { return r.values.Clone() }

// Artwork returns a copy of the record's artwork, or nil.
func (r *Record) Artwork() *mp3.Artwork { return r.artwork.Clone() }

// HasArtwork reports whether the record carries a non-empty picture.
func (r *Record) HasArtwork() bool {
	return r.artwork != nil && len(r.artwork.Data) > 0
}

func (r *Record) Properties() Properties { return r.props }

// State may be read while a save on another goroutine updates it.
func (r *Record) State() State { return State(r.state.Load()) }

func (r *Record) setState(st State) { r.state.Store(int32(st)) }

// set stores v and reports whether the value changed. Empty values are
// removed so absent and empty stay indistinguishable.
func (r *Record) set(f mp3.Field, v string) bool {
	if r.values.Get(f) == v {
		return false
	}
	if v == "" {
		delete(r.values, f)
	} else {
		r.values[f] = v
	}
	r.setState(StateEdited)
	return true
}

func (r *Record) setArtwork(art *mp3.Artwork) bool {
	if r.artwork.Equal(art) {
		return false
	}
	if art != nil && len(art.Data) == 0 {
		art = nil
	}
	r.artwork = art.Clone()
	r.setState(StateEdited)
	return true
}

// FormatSize renders a byte count as "%.2f MiB".
func FormatSize(bytes int64) string {
	return fmt.Sprintf("%.2f MiB", float64(bytes)/(1024*1024))
}

// FormatDuration renders seconds as "M min S s".
func FormatDuration(seconds float64) string {
	total := int(math.Round(seconds))
	return fmt.Sprintf("%d min %d s", total/60, total%60)
}

// FormatBitrate renders a bitrate as "N kbps".
func FormatBitrate(kbps int) string {
	return fmt.Sprintf("%d kbps", kbps)
}
