package avacadovnc

import (
	"bytes"
	"compress/zlib"
)

// zrleZlibLevel maps the VNC compression knob [0..9] to a deflate level
// for the ZRLE wrapper stream, mirroring flate2::Compression's
// fast/default/best buckets: 0 -> fastest, 1-3 -> that level verbatim,
// 4-6 -> default (6), 7-9 -> best (9).
func zrleZlibLevel(compression int) int {
	switch {
	case compression <= 0:
		return 1
	case compression <= 3:
		return compression
	case compression <= 6:
		return 6
	default:
		return 9
	}
}

// buildZRLETileStream walks the framebuffer in 64x64 blocks (partial at
// the right/bottom edges per §8's S5 scenario) and concatenates each
// tile's encodeZRLETile output.
func buildZRLETileStream(framebuffer []byte, fbWidth, fbHeight uint16, pf PixelFormat) ([]byte, error) {
	width := int(fbWidth)
	height := int(fbHeight)
	if width == 0 || height == 0 {
		return nil, newInvalidInput("zrle: empty framebuffer %dx%d", width, height)
	}

	var tileStream []byte
	for y := 0; y < height; y += zrleTileSize {
		tileH := zrleTileSize
		if height-y < tileH {
			tileH = height - y
		}
		for x := 0; x < width; x += zrleTileSize {
			tileW := zrleTileSize
			if width-x < tileW {
				tileW = width - x
			}

			rgba := extractZRLETile(framebuffer, fbWidth, x, y, tileW, tileH)
			tileStream = encodeZRLETile(tileStream, rgba, tileW, tileH, pf)
		}
	}
	return tileStream, nil
}

func framePrefixedLength(n int) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

// EncodeZRLE implements §6's encode_zrle entry point: the tile stream is
// wrapped in one persistent deflate call (always stream 0 of streams,
// ZRLE's compressor set is independent of Tight's) with a 4-byte
// big-endian length prefix, per RFC 6143 section 7.7.
func EncodeZRLE(framebuffer []byte, fbWidth, fbHeight uint16, pf PixelFormat, compression int, streams *ZlibStreamSet) ([]byte, error) {
	tileStream, err := buildZRLETileStream(framebuffer, fbWidth, fbHeight, pf)
	if err != nil {
		return nil, err
	}

	compressed, err := streams.Compress(0, zrleZlibLevel(compression), tileStream)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 4+len(compressed))
	out = append(out, framePrefixedLength(len(compressed))...)
	out = append(out, compressed...)
	return out, nil
}

// EncodeZRLENonPersistent is §6's non-persistent variant: a fresh zlib
// stream per call, with no dictionary continuity across rectangles.
// Provided for compatibility with callers that cannot hold a
// ZlibStreamSet between calls; EncodeZRLE is the RFC-faithful path.
func EncodeZRLENonPersistent(framebuffer []byte, fbWidth, fbHeight uint16, pf PixelFormat, compression int) ([]byte, error) {
	tileStream, err := buildZRLETileStream(framebuffer, fbWidth, fbHeight, pf)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, clampZlibLevel(zrleZlibLevel(compression)))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(tileStream); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 4+buf.Len())
	out = append(out, framePrefixedLength(buf.Len())...)
	out = append(out, buf.Bytes()...)
	return out, nil
}
