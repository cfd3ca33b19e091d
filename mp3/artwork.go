package mp3

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/h2non/filetype"
)

// MIMEPNG is the MIME type written on every artwork frame.
const MIMEPNG = "image/png"

const pictureFrontCover = 3

// DefaultMaxArtworkBytes bounds artwork accepted by ValidateArtwork.
const DefaultMaxArtworkBytes = 5 * 1024 * 1024

// Artwork is an embedded picture.
type Artwork struct {
	Data []byte
	MIME string
}

// Clone returns a deep copy; nil stays nil.
func (a *Artwork) Clone() *Artwork {
	if a == nil {
		return nil
	}
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	return &Artwork{Data: data, MIME: a.MIME}
}

// Equal reports whether two artworks carry the same bytes. A nil artwork
// equals an empty one.
func (a *Artwork) Equal(b *Artwork) bool {
	var ad, bd []byte
	if a != nil {
		ad = a.Data
	}
	if b != nil {
		bd = b.Data
	}
	return bytes.Equal(ad, bd)
}

// parseAPIC decodes an APIC payload:
//
//	[encoding][MIME\0][picture type][description\0][data]
func parseAPIC(data []byte) (*Artwork, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("APIC frame too short")
	}

	enc := data[0]
	pos := 1
	mimeEnd := bytes.IndexByte(data[pos:], 0)
	if mimeEnd < 0 {
		return nil, fmt.Errorf("APIC MIME type not terminated")
	}
	mime := string(data[pos : pos+mimeEnd])
	pos += mimeEnd + 1

	if pos >= len(data) {
		return nil, fmt.Errorf("APIC frame truncated after MIME type")
	}
	pos++ // picture type

	if descEnd := findTerminator(data[pos:], enc); descEnd >= 0 {
		pos += descEnd + terminatorSize(enc)
	}
	if pos >= len(data) {
		return nil, fmt.Errorf("APIC frame has no image data")
	}

	pic := data[pos:]
	if detected := DetectMIME(pic); detected != "" {
		mime = detected
	}
	switch mime {
	case "JPG", "jpg", "":
		mime = "image/jpeg"
	case "PNG", "png":
		mime = MIMEPNG
	}

	out := make([]byte, len(pic))
	copy(out, pic)
	return &Artwork{Data: out, MIME: mime}, nil
}

// buildAPIC encodes a front-cover APIC payload labelled image/png.
func buildAPIC(art *Artwork) []byte {
	out := make([]byte, 0, len(art.Data)+len(MIMEPNG)+4)
	out = append(out, encISO88591)
	out = append(out, MIMEPNG...)
	out = append(out, 0, pictureFrontCover, 0)
	return append(out, art.Data...)
}

// DetectMIME sniffs image bytes and returns their MIME type, or "" when the
// data is not a recognised image.
func DetectMIME(data []byte) string {
	if !filetype.IsImage(data) {
		return ""
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return ""
	}
	return kind.MIME.Value
}

// ValidateArtwork checks that data is an image no larger than maxBytes.
func ValidateArtwork(data []byte, maxBytes int) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxArtworkBytes
	}
	if len(data) == 0 {
		return fmt.Errorf("artwork is empty")
	}
	if len(data) > maxBytes {
		return fmt.Errorf("artwork exceeds %d bytes", maxBytes)
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return fmt.Errorf("failed to determine file type: %w", err)
	}
	if !filetype.IsImage(data) {
		return fmt.Errorf("file is not an image: %s", kind.Extension)
	}
	return nil
}

// NormalizeArtwork returns the picture as PNG, scaled down to fit within
// maxDim×maxDim when maxDim > 0. PNG input that already fits is returned
// unchanged.
func NormalizeArtwork(data []byte, maxDim int) (*Artwork, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	fits := maxDim <= 0 || (bounds.Dx() <= maxDim && bounds.Dy() <= maxDim)
	if format == "png" && fits {
		return &Artwork{Data: data, MIME: MIMEPNG}, nil
	}
	if !fits {
		img = scaleToFit(img, maxDim)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode artwork: %w", err)
	}
	return &Artwork{Data: buf.Bytes(), MIME: MIMEPNG}, nil
}

// scaleToFit resizes with nearest-neighbour sampling, keeping aspect ratio.
func scaleToFit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	ratio := float64(width) / float64(height)
	var newWidth, newHeight int
	if ratio > 1 {
		newWidth = maxDim
		newHeight = max(int(float64(maxDim)/ratio), 1)
	} else {
		newHeight = maxDim
		newWidth = max(int(float64(maxDim)*ratio), 1)
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	for y := 0; y < newHeight; y++ {
		for x := 0; x < newWidth; x++ {
			srcX := bounds.Min.X + x*width/newWidth
			srcY := bounds.Min.Y + y*height/newHeight
			resized.Set(x, y, img.At(srcX, srcY))
		}
	}
	return resized
}
