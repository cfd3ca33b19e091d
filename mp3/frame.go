package mp3

import (
	"bytes"
	"encoding/binary"
)

const (
	headerSize      = 10
	maxSynchsafe    = 1<<28 - 1
	flagUnsync      = 0x80
	flagExtended    = 0x40
	flagFooter      = 0x10
	v3FrameCompress = 0x0080
	v3FrameEncrypt  = 0x0040
	v3FrameGroup    = 0x0020
	v4FrameGroup    = 0x0040
	v4FrameCompress = 0x0008
	v4FrameEncrypt  = 0x0004
	v4FrameUnsync   = 0x0002
	v4FrameDataLen  = 0x0001
)

// container is a parsed ID3v2 tag.
type container struct {
	version byte
	// size is the number of bytes the tag occupies at the start of the file,
	// header and footer included. Zero when the file carries no tag.
	size int64
	// bodyCap is the declared body size, padding included.
	bodyCap int64
	frames  []*frame
}

// frame is one ID3v2 frame. raw holds the frame exactly as it must be
// re-emitted when the codec does not own it.
type frame struct {
	id    string
	flags uint16
	data  []byte
	raw   []byte
	// opaque frames are compressed or encrypted and are never decoded.
	opaque bool
}

func decodeSynchsafe(b []byte) uint32 {
	return uint32(b[0]&0x7F)<<21 |
		uint32(b[1]&0x7F)<<14 |
		uint32(b[2]&0x7F)<<7 |
		uint32(b[3]&0x7F)
}

func encodeSynchsafe(n uint32) []byte {
	return []byte{
		byte(n>>21) & 0x7F,
		byte(n>>14) & 0x7F,
		byte(n>>7) & 0x7F,
		byte(n) & 0x7F,
	}
}

func isSynchsafe(b []byte) bool {
	return b[0]&0x80 == 0 && b[1]&0x80 == 0 && b[2]&0x80 == 0 && b[3]&0x80 == 0
}

// removeUnsync reverses ID3v2 unsynchronisation (0xFF 0x00 → 0xFF).
func removeUnsync(b []byte) []byte {
	if bytes.IndexByte(b, 0xFF) < 0 {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		out = append(out, b[i])
		if b[i] == 0xFF && i+1 < len(b) && b[i+1] == 0x00 {
			i++
		}
	}
	return out
}

func validFrameID(id []byte) bool {
	for _, c := range id {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// parseContainer parses the ID3v2 tag at the start of data. A file without a
// tag yields an empty container with size 0.
func parseContainer(data []byte) (*container, error) {
	if len(data) < headerSize || string(data[0:3]) != "ID3" {
		return &container{}, nil
	}

	version := data[3]
	if version < 3 || version > 4 {
		return nil, codecErrorf(ErrUnsupportedContainer, "ID3v2.%d tags are not supported", version)
	}
	flags := data[5]
	if !isSynchsafe(data[6:10]) {
		return nil, codecErrorf(ErrCorruptTag, "tag size is not synchsafe")
	}

	bodySize := int64(decodeSynchsafe(data[6:10]))
	size := headerSize + bodySize
	if flags&flagFooter != 0 && version == 4 {
		size += headerSize
	}
	if size > int64(len(data)) {
		return nil, codecErrorf(ErrCorruptTag, "tag size %d exceeds file size %d", size, len(data))
	}

	body := data[headerSize : headerSize+bodySize]
	if version == 3 && flags&flagUnsync != 0 {
		body = removeUnsync(body)
	}

	if flags&flagExtended != 0 {
		skip, err := extendedHeaderSize(body, version)
		if err != nil {
			return nil, err
		}
		body = body[skip:]
	}

	frames, err := parseFrames(body, version)
	if err != nil {
		return nil, err
	}

	return &container{version: version, size: size, bodyCap: bodySize, frames: frames}, nil
}

func extendedHeaderSize(body []byte, version byte) (int, error) {
	if len(body) < 4 {
		return 0, codecErrorf(ErrCorruptTag, "extended header truncated")
	}
	var n int
	if version == 4 {
		// v2.4 counts the size field itself.
		n = int(decodeSynchsafe(body[0:4]))
	} else {
		n = int(binary.BigEndian.Uint32(body[0:4])) + 4
	}
	if n < 4 || n > len(body) {
		return 0, codecErrorf(ErrCorruptTag, "extended header size %d out of range", n)
	}
	return n, nil
}

func parseFrames(body []byte, version byte) ([]*frame, error) {
	var frames []*frame
	offset := 0

	for offset+headerSize <= len(body) {
		hdr := body[offset : offset+headerSize]
		if hdr[0] == 0 {
			// Padding.
			break
		}
		if !validFrameID(hdr[0:4]) {
			return nil, codecErrorf(ErrCorruptTag, "invalid frame ID %q at offset %d", hdr[0:4], offset)
		}

		size := frameSize(body, offset, version)
		end := offset + headerSize + size
		if size < 0 || end > len(body) {
			return nil, codecErrorf(ErrCorruptTag, "frame %s size %d exceeds tag", hdr[0:4], size)
		}

		f := &frame{
			id:    string(hdr[0:4]),
			flags: binary.BigEndian.Uint16(hdr[8:10]),
			raw:   body[offset:end],
		}
		f.data, f.opaque = framePayload(body[offset+headerSize:end], f.flags, version)
		frames = append(frames, f)

		offset = end
	}

	return frames, nil
}

// frameSize reads the frame size at offset. ID3v2.4 sizes are synchsafe, but
// some writers store plain integers; fall back to the plain reading when only
// it lands on a frame boundary.
func frameSize(body []byte, offset int, version byte) int {
	raw := body[offset+4 : offset+8]
	plain := int(binary.BigEndian.Uint32(raw))
	if version != 4 || !isSynchsafe(raw) {
		return plain
	}

	safe := int(decodeSynchsafe(raw))
	if safe == plain || frameBoundary(body, offset+headerSize+safe) {
		return safe
	}
	if frameBoundary(body, offset+headerSize+plain) {
		return plain
	}
	return safe
}

func frameBoundary(body []byte, at int) bool {
	if at == len(body) {
		return true
	}
	if at+4 > len(body) {
		return false
	}
	return body[at] == 0 || validFrameID(body[at:at+4])
}

// framePayload strips per-frame encodings the codec understands.
func framePayload(data []byte, flags uint16, version byte) ([]byte, bool) {
	if version == 3 {
		if flags&(v3FrameCompress|v3FrameEncrypt) != 0 {
			return data, true
		}
		if flags&v3FrameGroup != 0 && len(data) > 0 {
			data = data[1:]
		}
		return data, false
	}

	if flags&(v4FrameCompress|v4FrameEncrypt) != 0 {
		return data, true
	}
	if flags&v4FrameGroup != 0 && len(data) > 0 {
		data = data[1:]
	}
	if flags&v4FrameDataLen != 0 && len(data) >= 4 {
		data = data[4:]
	}
	if flags&v4FrameUnsync != 0 {
		data = removeUnsync(data)
	}
	return data, false
}

// buildFrame serialises a frame owned by the codec (no flags).
func buildFrame(id string, payload []byte, version byte) ([]byte, error) {
	if len(payload) > maxSynchsafe {
		return nil, codecErrorf(ErrWriteFailure, "frame %s too large (%d bytes)", id, len(payload))
	}
	out := make([]byte, 0, headerSize+len(payload))
	out = append(out, id...)
	if version == 4 {
		out = append(out, encodeSynchsafe(uint32(len(payload)))...)
	} else {
		out = binary.BigEndian.AppendUint32(out, uint32(len(payload)))
	}
	out = append(out, 0, 0)
	return append(out, payload...), nil
}

// buildHeader serialises a tag header without flags.
func buildHeader(version byte, bodySize int) []byte {
	out := []byte{'I', 'D', '3', version, 0, 0}
	return append(out, encodeSynchsafe(uint32(bodySize))...)
}
