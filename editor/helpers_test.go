package editor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"tagbatch/mp3"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// audioStream returns n MPEG-1 Layer III frames at 128 kbps, 44.1 kHz.
func audioStream(n int) []byte {
	frame := bytes.Repeat([]byte{0x55}, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x64})
	return bytes.Repeat(frame, n)
}

// writeMP3 creates an MP3 file in dir carrying values and art.
func writeMP3(t *testing.T, dir, name string, values mp3.Values, art *mp3.Artwork) string {
	t.Helper()
	codec := mp3.NewTagCodec(mp3.WithLogger(quietLogger()))
	res, err := codec.Write(audioStream(8), values, art)
	if err != nil {
		t.Fatalf("codec.Write: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestSession(opts ...Option) *Session {
	return NewSession(append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func loadAll(t *testing.T, s *Session, paths ...string) []*Record {
	t.Helper()
	res := s.LoadFiles(t.Context(), paths)
	if len(res.Failures) != 0 {
		t.Fatalf("LoadFiles failures: %v", res.Failures)
	}
	sel, err := s.Select(paths...)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	return sel
}

func record(values mp3.Values) *Record {
	return &Record{path: "/virtual", values: values.Clone()}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x40, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// tempDir is t.TempDir with symlinks resolved, matching the canonical
// paths the session stores.
func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}
