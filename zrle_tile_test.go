package avacadovnc

import (
	"bytes"
	"testing"
)

func TestEncodeZRLETileSolidScenarioS4(t *testing.T) {
	pf := rgba32Client()
	w, h := 64, 64
	rgba := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		o := i * 4
		rgba[o], rgba[o+1], rgba[o+2], rgba[o+3] = 0, 0, 200, 0xFF
	}

	out := encodeZRLETile(nil, rgba, w, h, pf)
	want := []byte{zrleSubencodingSolid, 0x00, 0x00, 0xC8}
	if !bytes.Equal(out, want) {
		t.Fatalf("encodeZRLETile(solid) = %#v, want %#v", out, want)
	}
}

func TestEncodeZRLETileRawForHighEntropyInput(t *testing.T) {
	pf := rgba32Client()
	w, h := 8, 8
	rgba := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		o := i * 4
		rgba[o] = byte(i * 37)
		rgba[o+1] = byte(i * 53)
		rgba[o+2] = byte(i * 61)
		rgba[o+3] = 0xFF
	}
	out := encodeZRLETile(nil, rgba, w, h, pf)
	if len(out) == 0 || out[0] != zrleSubencodingRaw {
		t.Fatalf("encodeZRLETile(high entropy) subencoding = %d, want raw(%d)", out[0], zrleSubencodingRaw)
	}
	wantLen := 1 + w*h*3 // subencoding byte + w*h CPIXELs
	if len(out) != wantLen {
		t.Fatalf("len(out) = %d, want %d", len(out), wantLen)
	}
}

func TestEncodePackedPaletteTileRoundTripsThroughDecoder(t *testing.T) {
	pf := rgba32Client()
	width, height := 8, 4
	palette := []uint32{0x00010101, 0x00020202, 0x00030303}
	pixels := make([]uint32, width*height)
	for i := range pixels {
		pixels[i] = palette[i%len(palette)]
	}

	buf := encodePackedPaletteTile(nil, pixels, width, height, palette, pf)

	r := bytes.NewReader(buf)
	var paletteSize uint8
	if err := binaryReadByte(r, &paletteSize); err != nil {
		t.Fatalf("reading palette size: %v", err)
	}
	if int(paletteSize) != len(palette) {
		t.Fatalf("encoded palette size = %d, want %d", paletteSize, len(palette))
	}

	got := make([]uint32, len(pixels))
	if err := decodePackedPaletteTile(r, got, width, height, int(paletteSize), pf); err != nil {
		t.Fatalf("decodePackedPaletteTile: %v", err)
	}
	for i := range pixels {
		if got[i] != pixels[i] {
			t.Fatalf("pixel %d = 0x%06X, want 0x%06X", i, got[i], pixels[i])
		}
	}
}

func TestEncodePackedPaletteRLETileRoundTrips(t *testing.T) {
	pf := rgba32Client()
	palette := []uint32{0x00AAAAAA, 0x00BBBBBB}
	pixels := []uint32{
		palette[0], palette[0], palette[0], palette[0], palette[0], // run of 5
		palette[1], // single
		palette[0], palette[0], // run of 2
	}

	buf := encodePackedPaletteRLETile(nil, pixels, palette, pf)
	r := bytes.NewReader(buf)
	var subEncoding uint8
	if err := binaryReadByte(r, &subEncoding); err != nil {
		t.Fatalf("reading subencoding: %v", err)
	}
	paletteSize := int(subEncoding & 0x7F)
	if paletteSize != len(palette) {
		t.Fatalf("paletteSize = %d, want %d", paletteSize, len(palette))
	}

	got := make([]uint32, len(pixels))
	if err := decodePackedPaletteRLETile(r, got, paletteSize, pf); err != nil {
		t.Fatalf("decodePackedPaletteRLETile: %v", err)
	}
	for i := range pixels {
		if got[i] != pixels[i] {
			t.Fatalf("pixel %d = 0x%06X, want 0x%06X", i, got[i], pixels[i])
		}
	}
}

func TestEncodeRLEToBufRoundTripsWithLongRun(t *testing.T) {
	pf := rgba32Client()
	color := uint32(0x00123456)
	pixels := make([]uint32, 600) // forces a run length > 255, exercising the sentinel chunking
	for i := range pixels {
		pixels[i] = color
	}

	buf := encodeRLEToBuf(nil, pixels, pf)
	r := bytes.NewReader(buf)
	got := make([]uint32, len(pixels))
	if err := decodeRLETile(r, got, pf); err != nil {
		t.Fatalf("decodeRLETile: %v", err)
	}
	for i := range pixels {
		if got[i] != color {
			t.Fatalf("pixel %d = 0x%06X, want 0x%06X", i, got[i], color)
		}
	}
}

// binaryReadByte is a tiny local helper so tests don't need to import
// encoding/binary just to peel off a single length-prefix byte.
func binaryReadByte(r *bytes.Reader, out *uint8) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	*out = b
	return nil
}
