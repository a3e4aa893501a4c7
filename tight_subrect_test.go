package avacadovnc

import (
	"bytes"
	"testing"
)

func TestEncodeSolidRectScenarioS1(t *testing.T) {
	pf := rgb888Client()
	color := uint32(0) | uint32(0)<<8 | uint32(200)<<16 // (R,G,B) = (0,0,200)
	got := encodeSolidRect(color, pf)
	want := []byte{0x80, 0x00, 0x00, 0xC8}
	if !bytes.Equal(got, want) {
		t.Fatalf("encodeSolidRect(S1) = %#v, want %#v", got, want)
	}
}

func TestPaletteConfIndexMapping(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
	}
	for _, tc := range cases {
		if got := paletteConfIndex(tc.in); got != tc.want {
			t.Errorf("paletteConfIndex(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestEncodeMonoBitmapRowByteAlignment(t *testing.T) {
	// width=9 doesn't divide evenly into bytes: 2 bytes/row (9 bits -> 16
	// bits of storage, last 7 bits unused in the trailing byte).
	width, height := uint16(9), uint16(2)
	pixels := make([]uint32, int(width)*int(height))
	bg := uint32(0x00000000)
	fg := uint32(0x00FFFFFF)
	for i := range pixels {
		pixels[i] = bg
	}
	pixels[0] = fg // first pixel of row 0 differs from bg

	bitmap := encodeMonoBitmap(pixels, width, height, bg)
	wantLen := 2 * 2 // bytesPerRow(2) * height(2)
	if len(bitmap) != wantLen {
		t.Fatalf("len(bitmap) = %d, want %d", len(bitmap), wantLen)
	}
	// Row 0 byte 0: MSB set (pixel 0 is fg), rest of the first 8 bits clear.
	if bitmap[0] != 0x80 {
		t.Errorf("bitmap[0] = %#x, want 0x80", bitmap[0])
	}
	if bitmap[1] != 0x00 {
		t.Errorf("bitmap[1] (trailing partial byte) = %#x, want 0x00", bitmap[1])
	}
}

func TestEncodeMonoBitmapExactByteWidthHasNoDoubleEmit(t *testing.T) {
	// width=8 divides evenly; each row must be exactly 1 byte, not 2
	// (the reference bug this package fixes per the design notes).
	width, height := uint16(8), uint16(3)
	pixels := make([]uint32, int(width)*int(height))
	bitmap := encodeMonoBitmap(pixels, width, height, 0)
	if len(bitmap) != int(height) {
		t.Fatalf("len(bitmap) = %d, want %d (one byte per row)", len(bitmap), height)
	}
}

func TestBuildManyPaletteDeduplicatesAndCapsAt17(t *testing.T) {
	pixels := []uint32{1, 2, 1, 3, 2, 4}
	got := buildManyPalette(pixels)
	want := []uint32{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("len(buildManyPalette) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("buildManyPalette[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	many := make([]uint32, 0, 20)
	for i := uint32(0); i < 20; i++ {
		many = append(many, i)
	}
	got = buildManyPalette(many)
	if len(got) <= 16 {
		t.Fatalf("len(buildManyPalette) = %d for 20 distinct colors, want >16 (caller treats as overflow)", len(got))
	}
}

func TestCompressDataBelowThresholdIsRawUnframed(t *testing.T) {
	streams := NewZlibStreamSet()
	data := []byte{1, 2, 3} // well under tightMinToCompress
	buf := compressData([]byte{0xAA}, data, 6, streamIDFullColor, streams)
	want := append([]byte{0xAA}, data...)
	if !bytes.Equal(buf, want) {
		t.Fatalf("compressData(below threshold) = %#v, want %#v", buf, want)
	}
}

func TestCompressDataZlibLevelZeroIsLengthPrefixedRaw(t *testing.T) {
	streams := NewZlibStreamSet()
	data := make([]byte, 20)
	for i := range data {
		data[i] = byte(i)
	}
	buf := compressData([]byte{0xAA}, data, 0, streamIDFullColor, streams)
	want := append([]byte{0xAA}, EncodeCompactLength(len(data))...)
	want = append(want, data...)
	if !bytes.Equal(buf, want) {
		t.Fatalf("compressData(zlibLevel=0) = %#v, want %#v", buf, want)
	}
}

func TestCompressDataCompressedIsSmallerThanRawForRepetitiveInput(t *testing.T) {
	streams := NewZlibStreamSet()
	data := bytes.Repeat([]byte{0x42}, 200)
	buf := compressData(nil, data, 6, streamIDFullColor, streams)
	if len(buf) >= len(data) {
		t.Fatalf("compressed output (%d bytes) not smaller than raw input (%d bytes)", len(buf), len(data))
	}
}
