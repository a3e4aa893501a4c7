package avacadovnc

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"testing"
)

func TestZrleZlibLevelBuckets(t *testing.T) {
	cases := []struct{ compression, want int }{
		{-1, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 3}, {4, 6}, {6, 6}, {7, 9}, {9, 9}, {20, 9},
	}
	for _, tc := range cases {
		if got := zrleZlibLevel(tc.compression); got != tc.want {
			t.Errorf("zrleZlibLevel(%d) = %d, want %d", tc.compression, got, tc.want)
		}
	}
}

// TestBuildZRLETileStreamNonAlignedDimensionsScenarioS5 mirrors scenario
// S5: a 100x75 framebuffer must tile into ceil(100/64)*ceil(75/64) = 4
// tiles (64x64, 36x64, 64x11, 36x11), each contributing exactly one
// subencoding byte plus its CPIXEL payload to the tile stream.
func TestBuildZRLETileStreamNonAlignedDimensionsScenarioS5(t *testing.T) {
	pf := rgba32Client()
	w, h := 100, 75
	fb := gradientFramebuffer(w, h)

	stream, err := buildZRLETileStream(fb, uint16(w), uint16(h), pf)
	if err != nil {
		t.Fatalf("buildZRLETileStream: %v", err)
	}
	if len(stream) == 0 {
		t.Fatal("expected a non-empty tile stream")
	}
	// A gradient tile is guaranteed to never land on the solid subencoding,
	// so every one of the 4 tiles contributes at least its own
	// subencoding byte; the stream can't be shorter than 4 bytes.
	if len(stream) < 4 {
		t.Fatalf("len(stream) = %d, too short for 4 non-solid tiles", len(stream))
	}
}

func TestEncodeZRLEFramesWithBigEndianLengthPrefix(t *testing.T) {
	pf := rgba32Client()
	streams := NewZlibStreamSet()
	w, h := 16, 16
	fb := solidFramebuffer(w, h, 5, 5, 5)

	out, err := EncodeZRLE(fb, uint16(w), uint16(h), pf, 6, streams)
	if err != nil {
		t.Fatalf("EncodeZRLE: %v", err)
	}
	if len(out) < 4 {
		t.Fatalf("len(out) = %d, too short to contain a length prefix", len(out))
	}

	length := binary.BigEndian.Uint32(out[:4])
	if int(length) != len(out)-4 {
		t.Fatalf("length prefix = %d, want %d (len(out)-4)", length, len(out)-4)
	}

	zr, err := zlib.NewReader(bytes.NewReader(out[4:]))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	// EncodeZRLE sync-flushes a persistent stream and never closes it, so
	// there is no end-of-stream marker and the reader reports
	// io.ErrUnexpectedEOF after returning every flushed byte.
	decompressed, err := io.ReadAll(zr)
	if err != nil && err != io.ErrUnexpectedEOF {
		t.Fatalf("reading decompressed tile stream: %v", err)
	}

	wantTileStream, err := buildZRLETileStream(fb, uint16(w), uint16(h), pf)
	if err != nil {
		t.Fatalf("buildZRLETileStream: %v", err)
	}
	if !bytes.Equal(decompressed, wantTileStream) {
		t.Fatalf("decompressed tile stream mismatch:\ngot  %#v\nwant %#v", decompressed, wantTileStream)
	}
}

func TestEncodeZRLEPersistsDictionaryAcrossCalls(t *testing.T) {
	pf := rgba32Client()
	streams := NewZlibStreamSet()
	w, h := 16, 16
	fb := solidFramebuffer(w, h, 9, 9, 9)

	first, err := EncodeZRLE(fb, uint16(w), uint16(h), pf, 6, streams)
	if err != nil {
		t.Fatalf("EncodeZRLE (first call): %v", err)
	}
	second, err := EncodeZRLE(fb, uint16(w), uint16(h), pf, 6, streams)
	if err != nil {
		t.Fatalf("EncodeZRLE (second call): %v", err)
	}

	// With a warm dictionary, repeating the exact same tile stream should
	// compress to no more bytes than the first (cold) call.
	if len(second) > len(first) {
		t.Fatalf("second call (%d bytes) larger than first (%d bytes); expected dictionary reuse to help or tie", len(second), len(first))
	}
}
