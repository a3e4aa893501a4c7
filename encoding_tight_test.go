package avacadovnc

import "testing"

// bgrClient is the conventional little-endian 32bpp client format (R/G/B
// shifts 16/8/0, little-endian byte order). VncCanvas.Fill reads a wire
// color's bytes in reverse (B,G,R) order, which happens to match this
// format's actual output, so the Fill-backed solid round trip below uses
// it. VncCanvas.DrawBytes/DrawPalette, in contrast, treat wire bytes as
// already laid out R,G,B,A — an inconsistency between the two helpers
// inherited as-is (see DESIGN.md) — so the DrawBytes-backed round trips
// below use rgbaWireClient instead.
func bgrClient() PixelFormat {
	return NewPixelFormat(32)
}

// rgbaWireClient is a 32bpp true-color format whose little-endian wire
// bytes land straight as R,G,B,0 (RedShift 0, GreenShift 8, BlueShift
// 16), matching what VncCanvas.DrawBytes/DrawPalette assume of their
// input.
func rgbaWireClient() PixelFormat {
	return PixelFormat{
		BPP: 32, Depth: 24, BigEndian: 0, TrueColor: 1,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 0, GreenShift: 8, BlueShift: 16,
	}
}

func decodeTightInto(t *testing.T, payload []byte, width, height uint16, pf PixelFormat) *ClientConn {
	t.Helper()
	cc := NewClientConnFromBytes(payload, pf, width, height)
	enc := &TightEncoding{}
	rect := &Rectangle{X: 0, Y: 0, Width: width, Height: height}
	if err := enc.Read(cc, rect); err != nil {
		t.Fatalf("TightEncoding.Read: %v", err)
	}
	return cc
}

func TestTightRoundTripSolidFill(t *testing.T) {
	pf := bgrClient()
	streams := NewZlibStreamSet()
	w, h := uint16(16), uint16(16)
	fb := solidFramebuffer(int(w), int(h), 10, 20, 30)

	payload := encodeSubrectSingle(fb, w, tightRect{X: 0, Y: 0, W: w, H: h}, 85, 2, pf, streams)
	cc := decodeTightInto(t, payload, w, h, pf)

	img := cc.Canvas.Image()
	r, g, b, _ := img.At(0, 0).RGBA()
	if byte(r>>8) != 10 || byte(g>>8) != 20 || byte(b>>8) != 30 {
		t.Fatalf("decoded color = (%d,%d,%d), want (10,20,30)", byte(r>>8), byte(g>>8), byte(b>>8))
	}
}

func TestTightRoundTripFullColorZlib(t *testing.T) {
	pf := rgbaWireClient()
	streams := NewZlibStreamSet()
	w, h := uint16(40), uint16(40)
	fb := gradientFramebuffer(int(w), int(h))

	payload := encodeSubrectSingle(fb, w, tightRect{X: 0, Y: 0, W: w, H: h}, 85, 2, pf, streams)
	cc := decodeTightInto(t, payload, w, h, pf)

	img := cc.Canvas.Image()
	for _, p := range []struct{ x, y int }{{0, 0}, {39, 0}, {0, 39}, {20, 20}, {39, 39}} {
		wantR, wantG, wantB := byte(p.x), byte(p.y), byte(p.x+p.y)
		r, g, b, _ := img.At(p.x, p.y).RGBA()
		if byte(r>>8) != wantR || byte(g>>8) != wantG || byte(b>>8) != wantB {
			t.Errorf("pixel (%d,%d) = (%d,%d,%d), want (%d,%d,%d)", p.x, p.y, byte(r>>8), byte(g>>8), byte(b>>8), wantR, wantG, wantB)
		}
	}
}

func TestTightRoundTripIndexedPalette(t *testing.T) {
	pf := rgbaWireClient()
	streams := NewZlibStreamSet()
	w, h := uint16(8), uint16(8)
	fb := make([]byte, int(w)*int(h)*4)
	colors := [][3]byte{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 0}}
	for i := 0; i < int(w)*int(h); i++ {
		c := colors[i%len(colors)]
		o := i * 4
		fb[o], fb[o+1], fb[o+2], fb[o+3] = c[0], c[1], c[2], 0xFF
	}

	payload := encodeSubrectSingle(fb, w, tightRect{X: 0, Y: 0, W: w, H: h}, 85, 2, pf, streams)
	cc := decodeTightInto(t, payload, w, h, pf)

	img := cc.Canvas.Image()
	for i, want := range colors {
		// Pixels at indices 0..3 land at (0,0)..(3,0) in row-major order.
		r, g, b, _ := img.At(i, 0).RGBA()
		if byte(r>>8) != want[0] || byte(g>>8) != want[1] || byte(b>>8) != want[2] {
			t.Errorf("pixel %d = (%d,%d,%d), want (%d,%d,%d)", i, byte(r>>8), byte(g>>8), byte(b>>8), want[0], want[1], want[2])
		}
	}
}

// TestTightDecodePersistsZlibStreamAcrossRectangles mirrors §5's
// persistent-compressor requirement: a single TightEncoding instance must
// decode a second zlib-backed rectangle correctly after the first,
// because the encoder's dictionary carried state forward between calls.
func TestTightDecodePersistsZlibStreamAcrossRectangles(t *testing.T) {
	pf := rgbaWireClient()
	streams := NewZlibStreamSet()
	w, h := uint16(32), uint16(32)
	fb1 := gradientFramebuffer(int(w), int(h))
	fb2 := gradientFramebuffer(int(w), int(h))
	// Perturb fb2 so it isn't byte-identical to fb1, while still staying
	// on the full-color-zlib path (many distinct colors) through the same
	// stream id, exercising the decoder's single persistent zlib.Reader
	// continuing across two Read calls on the same TightEncoding.
	for i := 0; i < len(fb2); i += 4 {
		fb2[i] ^= 0xFF
	}

	p1 := encodeSubrectSingle(fb1, w, tightRect{X: 0, Y: 0, W: w, H: h}, 85, 2, pf, streams)
	p2 := encodeSubrectSingle(fb2, w, tightRect{X: 0, Y: 0, W: w, H: h}, 85, 2, pf, streams)

	enc := &TightEncoding{}

	cc1 := NewClientConnFromBytes(p1, pf, w, h)
	if err := enc.Read(cc1, &Rectangle{Width: w, Height: h}); err != nil {
		t.Fatalf("first Read: %v", err)
	}
	r, g, b, _ := cc1.Canvas.Image().At(10, 10).RGBA()
	if wantR, wantG, wantB := byte(10), byte(10), byte(20); byte(r>>8) != wantR || byte(g>>8) != wantG || byte(b>>8) != wantB {
		t.Fatalf("first rect pixel(10,10) = (%d,%d,%d), want (%d,%d,%d)", byte(r>>8), byte(g>>8), byte(b>>8), wantR, wantG, wantB)
	}

	cc2 := NewClientConnFromBytes(p2, pf, w, h)
	if err := enc.Read(cc2, &Rectangle{Width: w, Height: h}); err != nil {
		t.Fatalf("second Read (persistent stream): %v", err)
	}
	r, g, b, _ = cc2.Canvas.Image().At(10, 10).RGBA()
	if wantR, wantG, wantB := byte(10)^0xFF, byte(10), byte(20); byte(r>>8) != wantR || byte(g>>8) != wantG || byte(b>>8) != wantB {
		t.Fatalf("second rect pixel(10,10) = (%d,%d,%d), want (%d,%d,%d)", byte(r>>8), byte(g>>8), byte(b>>8), wantR, wantG, wantB)
	}
}
