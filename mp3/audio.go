package mp3

import (
	"encoding/binary"
	"fmt"
)

// AudioProperties describes the MPEG audio stream. They come from the stream
// headers only and do not depend on the tag.
type AudioProperties struct {
	Seconds    float64
	Bitrate    int // kbps, averaged for VBR streams
	SampleRate int
	Channels   int
	VBR        bool
	Format     string
}

const (
	mpeg25 = 0
	mpeg2  = 2
	mpeg1  = 3
)

var bitrates = map[[2]int][]int{
	{mpeg1, 1}: {0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448},
	{mpeg1, 2}: {0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384},
	{mpeg1, 3}: {0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320},
	{mpeg2, 1}: {0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256},
	{mpeg2, 2}: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
	{mpeg2, 3}: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
}

var sampleRates = map[int][3]int{
	mpeg1:  {44100, 48000, 32000},
	mpeg2:  {22050, 24000, 16000},
	mpeg25: {11025, 12000, 8000},
}

// frameHeader is a decoded MPEG audio frame header.
type frameHeader struct {
	version    int
	layer      int
	bitrate    int // kbps
	sampleRate int
	padding    int
	mono       bool
}

func parseFrameHeader(b []byte) (frameHeader, bool) {
	h := binary.BigEndian.Uint32(b)
	if h&0xFFE00000 != 0xFFE00000 {
		return frameHeader{}, false
	}

	version := int(h>>19) & 0x3
	layerBits := int(h>>17) & 0x3
	bitrateIdx := int(h>>12) & 0xF
	rateIdx := int(h>>10) & 0x3
	if version == 1 || layerBits == 0 || bitrateIdx == 0 || bitrateIdx == 15 || rateIdx == 3 {
		return frameHeader{}, false
	}

	layer := 4 - layerBits
	tableVersion := version
	if version == mpeg25 {
		tableVersion = mpeg2
	}

	return frameHeader{
		version:    version,
		layer:      layer,
		bitrate:    bitrates[[2]int{tableVersion, layer}][bitrateIdx],
		sampleRate: sampleRates[version][rateIdx],
		padding:    int(h>>9) & 0x1,
		mono:       (h>>6)&0x3 == 3,
	}, true
}

func (h frameHeader) samplesPerFrame() int {
	switch {
	case h.layer == 1:
		return 384
	case h.layer == 3 && h.version != mpeg1:
		return 576
	default:
		return 1152
	}
}

func (h frameHeader) length() int {
	if h.layer == 1 {
		return (12*h.bitrate*1000/h.sampleRate + h.padding) * 4
	}
	return h.samplesPerFrame()/8*h.bitrate*1000/h.sampleRate + h.padding
}

// sideInfoSize is the Layer III side information length, which places the
// Xing header.
func (h frameHeader) sideInfoSize() int {
	if h.version == mpeg1 {
		if h.mono {
			return 17
		}
		return 32
	}
	if h.mono {
		return 9
	}
	return 17
}

func (h frameHeader) format() string {
	v := "1"
	switch h.version {
	case mpeg2:
		v = "2"
	case mpeg25:
		v = "2.5"
	}
	return fmt.Sprintf("MPEG-%s Layer %d", v, h.layer)
}

func (h frameHeader) sameStream(o frameHeader) bool {
	return h.version == o.version && h.layer == o.layer && h.sampleRate == o.sampleRate
}

// probeAudio locates the first MPEG frame at or after start and derives the
// stream properties.
func probeAudio(data []byte, start int64) (AudioProperties, error) {
	end := len(data)
	if end-128 >= int(start) && string(data[end-128:end-125]) == "TAG" {
		end -= 128
	}

	for off := int(start); off+4 <= end; off++ {
		if data[off] != 0xFF {
			continue
		}
		h, ok := parseFrameHeader(data[off : off+4])
		if !ok {
			continue
		}
		next := off + h.length()
		if next > end {
			continue
		}
		if next+4 <= end {
			h2, ok := parseFrameHeader(data[next : next+4])
			if !ok || !h.sameStream(h2) {
				continue
			}
		}
		return streamProperties(data[off:end], h), nil
	}

	return AudioProperties{}, codecErrorf(ErrUnreadableFormat, "no MPEG audio frame found")
}

func streamProperties(stream []byte, h frameHeader) AudioProperties {
	props := AudioProperties{
		Bitrate:    h.bitrate,
		SampleRate: h.sampleRate,
		Channels:   2,
		Format:     h.format(),
	}
	if h.mono {
		props.Channels = 1
	}

	audioBytes := len(stream)
	frames, byteCount, vbr := vbrInfo(stream, h)
	if frames > 0 {
		props.Seconds = float64(frames) * float64(h.samplesPerFrame()) / float64(h.sampleRate)
		props.VBR = vbr
		if byteCount > 0 {
			audioBytes = byteCount
		}
		if vbr && props.Seconds > 0 {
			props.Bitrate = int(float64(audioBytes) * 8 / props.Seconds / 1000)
		}
		return props
	}

	props.Seconds = float64(audioBytes) * 8 / float64(h.bitrate*1000)
	return props
}

// vbrInfo reads a Xing/Info or VBRI header from the first frame. The returned
// vbr flag is false for Info headers, which LAME writes on CBR streams.
func vbrInfo(stream []byte, h frameHeader) (frames, byteCount int, vbr bool) {
	xing := 4 + h.sideInfoSize()
	if xing+8 <= len(stream) {
		marker := string(stream[xing : xing+4])
		if marker == "Xing" || marker == "Info" {
			flags := binary.BigEndian.Uint32(stream[xing+4 : xing+8])
			pos := xing + 8
			if flags&0x1 != 0 && pos+4 <= len(stream) {
				frames = int(binary.BigEndian.Uint32(stream[pos : pos+4]))
				pos += 4
			}
			if flags&0x2 != 0 && pos+4 <= len(stream) {
				byteCount = int(binary.BigEndian.Uint32(stream[pos : pos+4]))
			}
			return frames, byteCount, marker == "Xing"
		}
	}

	const vbri = 4 + 32
	if vbri+18 <= len(stream) && string(stream[vbri:vbri+4]) == "VBRI" {
		byteCount = int(binary.BigEndian.Uint32(stream[vbri+10 : vbri+14]))
		frames = int(binary.BigEndian.Uint32(stream[vbri+14 : vbri+18]))
		return frames, byteCount, true
	}
	return 0, 0, false
}
