package mp3

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

const testFrameLen = 417 // MPEG-1 Layer III, 128 kbps, 44.1 kHz, no padding

// mpegFrame returns one joint-stereo MPEG-1 Layer III frame.
func mpegFrame() []byte {
	f := bytes.Repeat([]byte{0x55}, testFrameLen)
	copy(f, []byte{0xFF, 0xFB, 0x90, 0x64})
	return f
}

// audioStream returns n frames. With xing set the first frame carries a
// Xing header announcing xingFrames frames.
func audioStream(n int, xing bool, xingFrames uint32) []byte {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		f := mpegFrame()
		if i == 0 && xing {
			const at = 4 + 32
			copy(f[at:], "Xing")
			binary.BigEndian.PutUint32(f[at+4:], 0x3)
			binary.BigEndian.PutUint32(f[at+8:], xingFrames)
			binary.BigEndian.PutUint32(f[at+12:], xingFrames*testFrameLen)
		}
		buf.Write(f)
	}
	return buf.Bytes()
}

func id3v1Trailer(title string) []byte {
	return id3v1Full(title, "", "", "", "", 0, 0xFF)
}

// id3v1Full returns an ID3v1.1 trailer. A zero track leaves the comment
// its full 30 bytes.
func id3v1Full(title, artist, album, year, comment string, track, genre byte) []byte {
	t := make([]byte, 128)
	copy(t, "TAG")
	copy(t[3:33], title)
	copy(t[33:63], artist)
	copy(t[63:93], album)
	copy(t[93:97], year)
	copy(t[97:127], comment)
	if track != 0 {
		t[125] = 0
		t[126] = track
	}
	t[127] = genre
	return t
}

type testFrame struct {
	id      string
	flags   uint16
	payload []byte
}

func textFrame(id, s string) testFrame {
	return testFrame{id: id, payload: append([]byte{encISO88591}, s...)}
}

func utf8Frame(id, s string) testFrame {
	return testFrame{id: id, payload: append([]byte{encUTF8}, s...)}
}

// utf16Frame encodes s as UTF-16 with a little-endian BOM.
func utf16Frame(id, s string) testFrame {
	payload := []byte{encUTF16, 0xFF, 0xFE}
	for _, r := range s {
		payload = append(payload, byte(r), byte(r>>8))
	}
	return testFrame{id: id, payload: payload}
}

func langFrame(id, desc, s string) testFrame {
	payload := []byte{encISO88591, 'e', 'n', 'g'}
	payload = append(payload, desc...)
	payload = append(payload, 0)
	return testFrame{id: id, payload: append(payload, s...)}
}

func apicFrame(mime string, pictureType byte, data []byte) testFrame {
	payload := []byte{encISO88591}
	payload = append(payload, mime...)
	payload = append(payload, 0, pictureType, 0)
	return testFrame{id: "APIC", payload: append(payload, data...)}
}

func (f testFrame) bytes(version byte) []byte {
	out := []byte(f.id)
	if version == 4 {
		out = append(out, encodeSynchsafe(uint32(len(f.payload)))...)
	} else {
		out = binary.BigEndian.AppendUint32(out, uint32(len(f.payload)))
	}
	out = binary.BigEndian.AppendUint16(out, f.flags)
	return append(out, f.payload...)
}

// id3Tag builds a tag with the given header flags and trailing padding.
func id3Tag(version, flags byte, padding int, frames ...testFrame) []byte {
	var body []byte
	for _, f := range frames {
		body = append(body, f.bytes(version)...)
	}
	body = append(body, make([]byte, padding)...)
	out := []byte{'I', 'D', '3', version, 0, flags}
	out = append(out, encodeSynchsafe(uint32(len(body)))...)
	return append(out, body...)
}

func mp3File(tag []byte, audio []byte) []byte {
	out := make([]byte, 0, len(tag)+len(audio))
	out = append(out, tag...)
	return append(out, audio...)
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 0x80, A: 0xFF})
		}
	}
	return img
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}
