package avacadovnc

import "github.com/bigangryrobot/avacadovnc/logger"

// tightRect is a rectangle in framebuffer pixel coordinates, used
// internally by the Tight optimizer and subrectangle encoder. It is
// distinct from the wire-facing Rectangle type, which additionally
// carries an encoding handle for the decode path.
type tightRect struct {
	X, Y, W, H uint16
}

func (r tightRect) area() int { return int(r.W) * int(r.H) }

// extractRectRGBA copies the RGBA bytes of r out of a framebuffer whose
// row stride is fbWidth pixels (4 bytes each).
func extractRectRGBA(framebuffer []byte, fbWidth uint16, r tightRect) []byte {
	out := make([]byte, 0, r.area()*4)
	stride := int(fbWidth) * 4
	for dy := 0; dy < int(r.H); dy++ {
		rowOffset := (int(r.Y)+dy)*stride + int(r.X)*4
		out = append(out, framebuffer[rowOffset:rowOffset+int(r.W)*4]...)
	}
	return out
}

// internalPixelsFromRGBA converts a tightly packed RGBA byte slice (as
// produced by extractRectRGBA) into one internal RGB24 value per pixel.
func internalPixelsFromRGBA(rgba []byte) []uint32 {
	n := len(rgba) / 4
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = internalPixelAt(rgba, i)
	}
	return out
}

// encodeSubrectSingle analyzes and encodes one subrectangle already known
// to satisfy the Tight size envelope (w <= 2048, w*h <= 65536). It never
// splits or searches for solid areas; that is the geometric optimizer's
// job.
func encodeSubrectSingle(framebuffer []byte, fbWidth uint16, r tightRect, quality, compression int, pf PixelFormat, streams *ZlibStreamSet) []byte {
	rgba := extractRectRGBA(framebuffer, fbWidth, r)
	pixels := internalPixelsFromRGBA(rgba)

	confIdx := paletteConfIndex(compression)
	palette := AnalyzeTightPalette(pixels, tightConfTable[confIdx].monoMinRectSize)

	switch palette.Kind {
	case PaletteSolid:
		return encodeSolidRect(palette.Color, pf)
	case PaletteMono:
		return encodeMonoRect(pixels, r.W, r.H, palette.Background, palette.Foreground, compression, pf, streams)
	case PaletteMany:
		many := buildManyPalette(pixels)
		if len(many) >= 3 && len(many) <= 16 {
			return encodeIndexedRect(pixels, many, compression, pf, streams)
		}
		if quality < 10 {
			jpegQuality := jpegQualityFor(quality)
			return encodeJPEGRect(rgbaToRGB(rgba), r.W, r.H, jpegQuality, streams)
		}
		return encodeFullColorRect(rgbaToRGB(rgba), r.W, r.H, compression, streams)
	}
	return encodeFullColorRect(rgbaToRGB(rgba), r.W, r.H, compression, streams)
}

// paletteConfIndex mirrors the reference analyzer's own compression-level
// match (distinct from normalizeCompressionLevel's config index, though
// the two coincide for every reachable input): 0->0, 1->1, 2|3->2, else->3.
func paletteConfIndex(compression int) int {
	switch compression {
	case 0:
		return 0
	case 1:
		return 1
	case 2, 3:
		return 2
	default:
		return 3
	}
}

// buildManyPalette collects up to 17 distinct colors in first-seen order;
// the caller only uses this when AnalyzeTightPalette reported "many" (a
// third color was found), and only treats it as an indexed palette when
// the true count is between 3 and 16 inclusive; 17+ distinct colors (or a
// palette this function gives up on early) fall through to full-color.
func buildManyPalette(pixels []uint32) []uint32 {
	palette := make([]uint32, 0, 17)
	seen := make(map[uint32]struct{}, 17)
	for _, p := range pixels {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		palette = append(palette, p)
		if len(palette) > 16 {
			return palette
		}
	}
	return palette
}

func rgbaToRGB(rgba []byte) []byte {
	n := len(rgba) / 4
	out := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		o := i * 4
		out = append(out, rgba[o], rgba[o+1], rgba[o+2])
	}
	return out
}

// rgbToRGBA is the inverse of rgbaToRGB: it expands a tightly packed
// RGB888 stream (as sent by the full-color mode) back into the opaque
// RGBA form the canvas draws.
func rgbToRGBA(rgb []byte) []byte {
	n := len(rgb) / 3
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		si, di := i*3, i*4
		out[di], out[di+1], out[di+2], out[di+3] = rgb[si], rgb[si+1], rgb[si+2], 0xFF
	}
	return out
}

// encodeSolidRect implements §4.5's solid-fill mode: a single control
// byte (TIGHT_FILL << 4) followed by the color translated to the
// client's pixel format.
func encodeSolidRect(color uint32, pf PixelFormat) []byte {
	buf := make([]byte, 0, 16)
	buf = append(buf, tightFill<<4)
	buf = append(buf, TranslatePixel(color, pf)...)
	return buf
}

// encodeMonoRect implements §4.5's mono mode: control byte, explicit
// palette filter, 2-color palette, compressed (or raw) 1-bpp bitmap.
func encodeMonoRect(pixels []uint32, width, height uint16, bg, fg uint32, compression int, pf PixelFormat, streams *ZlibStreamSet) []byte {
	confIdx := paletteConfIndex(compression)
	zlibLevel := tightConfTable[confIdx].monoZlibLevel

	bitmap := encodeMonoBitmap(pixels, width, height, bg)

	buf := make([]byte, 0, 8+len(bitmap))
	if zlibLevel == 0 {
		buf = append(buf, byte((tightNoZlib|tightExplicitFilter)<<4))
	} else {
		buf = append(buf, byte((streamIDMono|tightExplicitFilter)<<4))
	}
	buf = append(buf, tightFilterPalette)
	buf = append(buf, 1) // n_colors - 1, n_colors == 2

	buf = append(buf, TranslatePixel(bg, pf)...)
	buf = append(buf, TranslatePixel(fg, pf)...)

	buf = compressData(buf, bitmap, zlibLevel, streamIDMono, streams)
	return buf
}

// encodeIndexedRect implements §4.5's indexed mode for 3-16 colors.
func encodeIndexedRect(pixels []uint32, palette []uint32, compression int, pf PixelFormat, streams *ZlibStreamSet) []byte {
	confIdx := paletteConfIndex(compression)
	zlibLevel := tightConfTable[confIdx].idxZlibLevel

	colorIndex := make(map[uint32]byte, len(palette))
	for i, c := range palette {
		colorIndex[c] = byte(i)
	}

	indices := make([]byte, len(pixels))
	for i, p := range pixels {
		indices[i] = colorIndex[p]
	}

	buf := make([]byte, 0, 8+len(palette)*4+len(indices))
	if zlibLevel == 0 {
		buf = append(buf, byte((tightNoZlib|tightExplicitFilter)<<4))
	} else {
		buf = append(buf, byte((streamIDIndexed|tightExplicitFilter)<<4))
	}
	buf = append(buf, tightFilterPalette)
	buf = append(buf, byte(len(palette)-1))

	for _, c := range palette {
		buf = append(buf, TranslatePixel(c, pf)...)
	}

	buf = compressData(buf, indices, zlibLevel, streamIDIndexed, streams)
	return buf
}

// encodeFullColorRect implements §4.5's full-color mode: an RGB888
// stream, compressed or raw depending on the level table.
func encodeFullColorRect(rgb []byte, width, height uint16, compression int, streams *ZlibStreamSet) []byte {
	confIdx := paletteConfIndex(compression)
	zlibLevel := tightConfTable[confIdx].rawZlibLevel

	var control byte
	if zlibLevel == 0 {
		control = tightNoZlib << 4
	} else {
		control = streamIDFullColor << 4
	}

	buf := make([]byte, 0, 4+len(rgb))
	buf = append(buf, control)
	buf = compressData(buf, rgb, zlibLevel, streamIDFullColor, streams)
	return buf
}

// encodeJPEGRect implements §4.5's JPEG mode. JPEG encoding itself is an
// external collaborator (image/jpeg, the same library the decode path
// already depends on); on failure the subrectangle degrades to
// full-color-zlib at internal compression index 2, per §7.
func encodeJPEGRect(rgb []byte, width, height uint16, jpegQuality int, streams *ZlibStreamSet) []byte {
	jpegBytes, err := encodeJPEGBytes(rgb, int(width), int(height), jpegQuality)
	if err != nil {
		logger.Warnf("tight: jpeg encode failed, falling back to full-color: %v", err)
		return encodeFullColorRect(rgb, width, height, 2, streams)
	}

	buf := make([]byte, 0, 4+len(jpegBytes))
	buf = append(buf, tightJPEG<<4)
	buf = append(buf, EncodeCompactLength(len(jpegBytes))...)
	buf = append(buf, jpegBytes...)
	return buf
}

// compressData implements §4.5's payload-framing rule: payloads under
// tightMinToCompress bytes are written raw with no length prefix;
// zlib-level 0 means "raw, but length-prefixed"; otherwise the payload is
// compressed via the stream manager and a compact length precedes it. A
// compression failure falls back to the uncompressed length-prefixed
// form, per §7's recovery policy.
func compressData(buf []byte, data []byte, zlibLevel int, streamID int, streams *ZlibStreamSet) []byte {
	if len(data) < tightMinToCompress {
		return append(buf, data...)
	}

	if zlibLevel == 0 {
		buf = append(buf, EncodeCompactLength(len(data))...)
		return append(buf, data...)
	}

	compressed, err := streams.Compress(streamID, zlibLevel, data)
	if err != nil {
		logger.Warnf("tight: compression failed on stream %d, sending raw: %v", streamID, err)
		buf = append(buf, EncodeCompactLength(len(data))...)
		return append(buf, data...)
	}

	buf = append(buf, EncodeCompactLength(len(compressed))...)
	return append(buf, compressed...)
}

// encodeMonoBitmap packs a 2-color tile into 1 bit per pixel, MSB-first,
// each row starting on a byte boundary; a row's trailing partial byte is
// only emitted when its width isn't a multiple of 8 (the corrected
// behavior required by §9, since the naive reference emission path can
// double-emit a zero byte when a row ends exactly on a byte boundary).
func encodeMonoBitmap(pixels []uint32, width, height uint16, bg uint32) []byte {
	w := int(width)
	h := int(height)
	bytesPerRow := (w + 7) / 8
	bitmap := make([]byte, bytesPerRow*h)

	idx := 0
	for y := 0; y < h; y++ {
		var byteVal byte
		bitPos := 7
		nbits := 0
		for x := 0; x < w; x++ {
			if pixels[y*w+x] != bg {
				byteVal |= 1 << uint(bitPos)
			}
			bitPos--
			nbits++
			if bitPos < 0 {
				bitmap[idx] = byteVal
				idx++
				byteVal = 0
				bitPos = 7
				nbits = 0
			}
		}
		if nbits > 0 {
			bitmap[idx] = byteVal
			idx++
		}
	}

	return bitmap
}
