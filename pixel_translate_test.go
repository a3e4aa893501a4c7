package avacadovnc

import (
	"bytes"
	"testing"
)

// rgb888Client is the S1 fixture from the scenario table: a 24bpp
// true-color client with the standard byte-swapped RGB888 layout.
func rgb888Client() PixelFormat {
	return PixelFormat{
		BPP: 24, Depth: 24, BigEndian: 1, TrueColor: 1,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 16, GreenShift: 8, BlueShift: 0,
	}
}

// rgba32Client is the S4 fixture: a 32bpp true-color client whose channels
// all fit in the low three bytes of the packed pixel, so it qualifies for
// the 3-byte CPIXEL form (the 24A case).
func rgba32Client() PixelFormat {
	return PixelFormat{
		BPP: 32, Depth: 24, BigEndian: 0, TrueColor: 1,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 0, GreenShift: 8, BlueShift: 16,
	}
}

func TestTranslatePixelRGB888(t *testing.T) {
	pf := rgb888Client()
	internal := uint32(0) | uint32(0)<<8 | uint32(200)<<16 // R=0 G=0 B=200
	got := TranslatePixel(internal, pf)
	want := []byte{0x00, 0x00, 0xC8}
	if !bytes.Equal(got, want) {
		t.Fatalf("TranslatePixel(S1 color) = %#v, want %#v", got, want)
	}
}

func TestBytesPerCPixelRGBA32Is3(t *testing.T) {
	pf := rgba32Client()
	if n := pf.BytesPerCPixel(); n != 3 {
		t.Fatalf("BytesPerCPixel() = %d, want 3", n)
	}
}

func TestWriteCPixelRGBA32(t *testing.T) {
	pf := rgba32Client()
	internal := uint32(0) | uint32(0)<<8 | uint32(200)<<16 // R=0 G=0 B=200
	got := WriteCPixel(nil, internal, pf)
	want := []byte{0x00, 0x00, 0xC8}
	if !bytes.Equal(got, want) {
		t.Fatalf("WriteCPixel(S4 color) = %#v, want %#v", got, want)
	}
}

func TestBytesPerCPixelFallsBackWhenChannelsSpanBothHalves(t *testing.T) {
	// A format whose channels don't fit entirely in the low or high three
	// bytes (here 8-bit channels at shifts 4/12/20, so red starts below
	// bit 8 and blue ends above bit 23) must fall back to full
	// bytes_per_pixel.
	pf := PixelFormat{
		BPP: 32, Depth: 24, BigEndian: 0, TrueColor: 1,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 4, GreenShift: 12, BlueShift: 20,
	}
	if n := pf.BytesPerCPixel(); n != 4 {
		t.Fatalf("BytesPerCPixel() = %d, want 4 (no qualifying 3-byte window)", n)
	}
}

func TestCPixelRoundTrip(t *testing.T) {
	formats := []PixelFormat{rgb888Client(), rgba32Client()}
	colors := []uint32{0x00000000, 0x00FFFFFF, 0x00C80000, 0x00112233}

	for _, pf := range formats {
		for _, c := range colors {
			buf := WriteCPixel(nil, c, pf)
			got, n := ReadCPixel(buf, pf)
			if n != len(buf) {
				t.Errorf("ReadCPixel consumed %d bytes, want %d", n, len(buf))
			}
			if got != c {
				t.Errorf("CPixel round trip of 0x%06X produced 0x%06X (pf=%+v)", c, got, pf)
			}
		}
	}
}

func TestTranslatePixelRoundTrip(t *testing.T) {
	formats := []PixelFormat{
		rgb888Client(),
		rgba32Client(),
		NewPixelFormat(32),
		NewPixelFormat(16),
	}
	colors := []uint32{0x00000000, 0x00FFFFFF, 0x00C80000, 0x00010203}

	for _, pf := range formats {
		for _, c := range colors {
			wire := TranslatePixel(c, pf)
			got := ReadTranslatedPixel(wire, pf)
			if pf.BPP < 24 {
				// Lossy for narrow formats; only full-width formats round
				// trip exactly.
				continue
			}
			if got != c {
				t.Errorf("TranslatePixel round trip of 0x%06X produced 0x%06X (pf=%+v)", c, got, pf)
			}
		}
	}
}
