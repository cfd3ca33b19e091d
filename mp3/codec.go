package mp3

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/h2non/filetype"
	"github.com/sirupsen/logrus"
)

// DefaultPadding is the padding appended when a rewritten tag outgrows the
// space of the old one.
const DefaultPadding = 2048

// defaultVersion is used when a file has no ID3v2 tag yet.
const defaultVersion = 3

// Tag holds everything Read extracts from a file.
type Tag struct {
	// Version is the ID3v2 major version, or 0 when the file has no tag.
	Version byte
	// Size is the number of bytes the tag occupies at the start of the file.
	Size    int64
	Values  Values
	Encoder string
	Artwork *Artwork
	Audio   AudioProperties
}

// WriteResult is the rewritten file plus the fields that were left as they
// were on disk.
type WriteResult struct {
	Data    []byte
	Skipped []*FieldError
}

// TagCodec converts between file bytes and tag values.
type TagCodec interface {
	Read(data []byte) (*Tag, error)
	Write(existing []byte, values Values, artwork *Artwork) (*WriteResult, error)
}

type Option func(*tagCodec)

// WithLogger sets the logger used for skipped fields and unreadable frames.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *tagCodec) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPadding sets the padding added when a tag has to grow.
func WithPadding(n int) Option {
	return func(c *tagCodec) {
		if n >= 0 {
			c.padding = n
		}
	}
}

type tagCodec struct {
	log     logrus.FieldLogger
	padding int
}

func NewTagCodec(opts ...Option) TagCodec {
	c := &tagCodec{
		log:     logrus.StandardLogger(),
		padding: DefaultPadding,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *tagCodec) Read(data []byte) (*Tag, error) {
	tc, err := parseContainer(data)
	if err != nil {
		return nil, err
	}
	if err := checkStream(data[tc.size:]); err != nil {
		return nil, err
	}

	audio, err := probeAudio(data, tc.size)
	if err != nil {
		return nil, err
	}

	tag := &Tag{
		Version: tc.version,
		Size:    tc.size,
		Values:  Values{},
		Audio:   audio,
	}
	c.decodeFields(tc, tag)
	if off := id3v1Offset(data, tc.size); tc.version == 0 && off >= 0 {
		tag.Values = readID3v1(data[off:])
		c.log.Debug("No ID3v2 tag, using ID3v1 trailer")
	}
	return tag, nil
}

// checkStream rejects audio containers other than MPEG audio.
func checkStream(stream []byte) error {
	head := stream[:min(len(stream), 262)]
	if !filetype.IsAudio(head) && !filetype.IsVideo(head) {
		return nil
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || kind.MIME.Value == "audio/mpeg" {
		return nil
	}
	return codecErrorf(ErrUnsupportedContainer, "%s files are not supported", kind.MIME.Value)
}

func (c *tagCodec) decodeFields(tc *container, tag *Tag) {
	version := tc.version
	if version == 0 {
		return
	}

	byID := make(map[string][]*frame)
	for _, f := range tc.frames {
		if !f.opaque {
			byID[f.id] = append(byID[f.id], f)
		}
	}

	for _, b := range bindings {
		var v string
		switch b.field {
		case FieldComment:
			v = readComment(byID["COMM"])
		case FieldLyrics:
			if fs := byID["USLT"]; len(fs) > 0 {
				_, v = readLangText(fs[0].data)
			}
		default:
			for _, id := range b.frameIDs(version) {
				if fs := byID[id]; len(fs) > 0 {
					v = readText(fs[0].data)
					break
				}
			}
			switch b.part {
			case partNumber:
				v, _ = splitPair(v)
			case partTotal:
				_, v = splitPair(v)
			}
			if b.field == FieldGenre {
				v = resolveGenre(v)
			}
		}
		if v != "" {
			tag.Values[b.field] = v
		}
	}

	if fs := byID[frameEncoder]; len(fs) > 0 {
		tag.Encoder = readText(fs[0].data)
	}

	for _, f := range byID[frameArtwork] {
		art, err := parseAPIC(f.data)
		if err != nil {
			c.log.WithError(err).Debug("skipping unreadable artwork frame")
			continue
		}
		tag.Artwork = art
		break
	}
}

func readText(data []byte) string {
	if len(data) < 1 {
		return ""
	}
	return decodeFirstText(data[1:], data[0])
}

// readLangText decodes COMM/USLT payloads:
//
//	[encoding][language(3)][description\0][text]
func readLangText(data []byte) (desc, text string) {
	if len(data) < 4 {
		return "", ""
	}
	enc := data[0]
	rest := data[4:]
	i := findTerminator(rest, enc)
	if i < 0 {
		return "", decodeText(rest, enc)
	}
	return decodeText(rest[:i], enc), decodeText(rest[i+terminatorSize(enc):], enc)
}

// commentIsField reports whether a COMM frame is the user comment rather
// than player bookkeeping such as iTunNORM.
func commentIsField(data []byte) bool {
	desc, _ := readLangText(data)
	return !strings.HasPrefix(desc, "iTun")
}

func readComment(frames []*frame) string {
	var first *frame
	for _, f := range frames {
		if !commentIsField(f.data) {
			continue
		}
		if desc, text := readLangText(f.data); desc == "" {
			return text
		}
		if first == nil {
			first = f
		}
	}
	if first == nil {
		return ""
	}
	_, text := readLangText(first.data)
	return text
}

// Write rebuilds the tag of existing from values and artwork. Fields that are
// empty after trimming are removed, others replace their frame. Frames the
// codec does not own are copied verbatim and the bytes after the old tag are
// never modified.
func (c *tagCodec) Write(existing []byte, values Values, artwork *Artwork) (*WriteResult, error) {
	tc, err := parseContainer(existing)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	w := &tagWriter{
		log:     c.log,
		version: tc.version,
		old:     tc,
	}
	if w.version == 0 {
		w.version = defaultVersion
	}

	body, err := w.body(values, artwork)
	if err != nil {
		return nil, err
	}

	if tc.size == 0 && len(body) == 0 {
		out := make([]byte, len(existing))
		copy(out, existing)
		if off := id3v1Offset(out, 0); off >= 0 {
			patchID3v1(out[off:], values)
		}
		return &WriteResult{Data: out, Skipped: w.skipped}, nil
	}

	padding := c.padding
	if capacity := int(tc.bodyCap); tc.size > 0 && len(body) <= capacity {
		padding = capacity - len(body)
	}
	if len(body)+padding > maxSynchsafe {
		return nil, codecErrorf(ErrWriteFailure, "tag too large (%d bytes)", len(body)+padding)
	}

	audio := existing[tc.size:]
	out := make([]byte, 0, headerSize+len(body)+padding+len(audio))
	out = append(out, buildHeader(w.version, len(body)+padding)...)
	out = append(out, body...)
	out = append(out, make([]byte, padding)...)
	out = append(out, audio...)
	// An existing ID3v1 trailer mirrors the fixed fields. None is added.
	if id3v1Offset(audio, 0) >= 0 {
		patchID3v1(out[len(out)-id3v1Size:], values)
	}

	return &WriteResult{Data: out, Skipped: w.skipped}, nil
}

// groupAction is what happens to the frames of one group. keep leaves the
// old frames in place; otherwise they are replaced by frame (nil deletes).
type groupAction struct {
	keep  bool
	frame []byte
}

type tagWriter struct {
	log     logrus.FieldLogger
	version byte
	old     *container
	skipped []*FieldError
}

// groups lists frame groups in the order new frames are appended.
var groups = func() []string {
	var out []string
	seen := map[string]bool{}
	for _, b := range bindings {
		g := groupName(b)
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return append(out, frameArtwork)
}()

func groupName(b binding) string {
	if b.part != partWhole {
		return b.v3
	}
	return string(b.field)
}

// groupOf maps an existing frame to the group that owns it, or "".
func (w *tagWriter) groupOf(f *frame) string {
	if f.opaque {
		return ""
	}
	switch f.id {
	case frameArtwork:
		return frameArtwork
	case "COMM":
		if commentIsField(f.data) {
			return string(FieldComment)
		}
		return ""
	}
	for _, b := range bindings {
		if b.field == FieldComment {
			continue
		}
		if f.id == b.v3 || f.id == b.v4 {
			return groupName(b)
		}
		for _, a := range b.aliases {
			if f.id == a {
				return groupName(b)
			}
		}
	}
	return ""
}

func (w *tagWriter) body(values Values, artwork *Artwork) ([]byte, error) {
	actions := make(map[string]groupAction, len(groups))
	for _, b := range bindings {
		g := groupName(b)
		if _, done := actions[g]; done {
			continue
		}
		act, err := w.action(b, values)
		if err != nil {
			return nil, err
		}
		actions[g] = act
	}

	var art groupAction
	if artwork != nil && len(artwork.Data) > 0 {
		f, err := buildFrame(frameArtwork, buildAPIC(artwork), w.version)
		if err != nil {
			return nil, err
		}
		art.frame = f
	}
	actions[frameArtwork] = art

	var body bytes.Buffer
	emitted := make(map[string]bool)
	for _, f := range w.old.frames {
		g := w.groupOf(f)
		if g == "" {
			body.Write(f.raw)
			continue
		}
		act := actions[g]
		if act.keep {
			body.Write(f.raw)
			continue
		}
		if !emitted[g] {
			body.Write(act.frame)
			emitted[g] = true
		}
	}
	for _, g := range groups {
		if act := actions[g]; !act.keep && !emitted[g] {
			body.Write(act.frame)
		}
	}

	return body.Bytes(), nil
}

func (w *tagWriter) action(b binding, values Values) (groupAction, error) {
	id := b.frameID(w.version)

	if b.part != partWhole {
		return w.pairAction(id, values)
	}

	raw := values.Get(b.field)
	v := strings.TrimSpace(raw)
	if v == "" {
		return groupAction{}, nil
	}
	if b.numeric && !isDigits(v) {
		w.skip(b.field, raw, "not a number")
		return groupAction{keep: true}, nil
	}

	var payload []byte
	var err error
	switch b.field {
	case FieldComment, FieldLyrics:
		payload, err = langTextPayload(raw, w.version)
	default:
		payload, err = textPayload(raw, w.version)
	}
	if err != nil {
		w.skip(b.field, raw, err.Error())
		return groupAction{keep: true}, nil
	}

	f, err := buildFrame(id, payload, w.version)
	if err != nil {
		return groupAction{}, err
	}
	return groupAction{frame: f}, nil
}

// pairAction handles "n/total" frames, where each half can be skipped
// independently.
func (w *tagWriter) pairAction(id string, values Values) (groupAction, error) {
	numberField, totalField := FieldTrack, FieldTrackTotal
	if id == "TPOS" {
		numberField, totalField = FieldDisc, FieldDiscTotal
	}

	var oldNumber, oldTotal string
	for _, f := range w.old.frames {
		if f.id == id && !f.opaque {
			oldNumber, oldTotal = splitPair(readText(f.data))
			break
		}
	}

	number := strings.TrimSpace(values.Get(numberField))
	if number != "" && !isDigits(number) {
		w.skip(numberField, values.Get(numberField), "not a number")
		number = oldNumber
	}
	total := strings.TrimSpace(values.Get(totalField))
	if total != "" && !isDigits(total) {
		w.skip(totalField, values.Get(totalField), "not a number")
		total = oldTotal
	}

	if number == "" && total == "" {
		return groupAction{}, nil
	}
	payload, err := textPayload(joinPair(number, total), w.version)
	if err != nil {
		return groupAction{}, codecErrorf(ErrWriteFailure, "frame %s: %v", id, err)
	}
	f, err := buildFrame(id, payload, w.version)
	if err != nil {
		return groupAction{}, err
	}
	return groupAction{frame: f}, nil
}

func (w *tagWriter) skip(field Field, value, reason string) {
	fe := &FieldError{Field: field, Value: value, Reason: reason}
	w.skipped = append(w.skipped, fe)
	w.log.WithField("field", field).Warnf("Could not write field: %s", reason)
}

func textPayload(s string, version byte) ([]byte, error) {
	enc := chooseEncoding(version, s)
	text, err := encodeText(s, enc)
	if err != nil {
		return nil, err
	}
	return append([]byte{enc}, text...), nil
}

// langTextPayload builds a COMM/USLT payload with language "eng" and an
// empty description.
func langTextPayload(s string, version byte) ([]byte, error) {
	enc := chooseEncoding(version, s)
	text, err := encodeText(s, enc)
	if err != nil {
		return nil, err
	}
	desc, err := encodeText("", enc)
	if err != nil {
		return nil, err
	}
	out := []byte{enc, 'e', 'n', 'g'}
	out = append(out, desc...)
	out = append(out, terminator(enc)...)
	return append(out, text...), nil
}
