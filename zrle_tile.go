package avacadovnc

const zrleTileSize = 64

// zrleSubencoding tags are RFC 6143 section 7.7.5's ZRLE tile subencoding
// byte values: 0 raw, 1 solid, 2-16 packed palette, 128 plain RLE,
// 130-255 packed palette RLE (128 | palette size).
const (
	zrleSubencodingRaw   = 0
	zrleSubencodingSolid = 1
	zrleSubencodingRLE   = 128
)

// extractZRLETile copies one tile's worth of RGBA bytes out of a
// framebuffer whose row stride is fbWidth pixels.
func extractZRLETile(framebuffer []byte, fbWidth uint16, x, y, w, h int) []byte {
	stride := int(fbWidth) * 4
	out := make([]byte, w*h*4)
	rowBytes := w * 4
	for row := 0; row < h; row++ {
		srcStart := (y+row)*stride + x*4
		dstStart := row * rowBytes
		copy(out[dstStart:dstStart+rowBytes], framebuffer[srcStart:srcStart+rowBytes])
	}
	return out
}

// encodeZRLETile implements §4.7's per-tile subencoding choice: scan for
// a solid tile first (cheap, common case), then fall back to the cost
// model comparing raw / plain-RLE / packed-palette / packed-palette-RLE
// estimates and picking the cheapest.
func encodeZRLETile(buf []byte, rgba []byte, width, height int, pf PixelFormat) []byte {
	pixels := internalPixelsFromRGBA(rgba)

	if allSame(pixels) {
		buf = append(buf, zrleSubencodingSolid)
		return WriteCPixel(buf, pixels[0], pf)
	}

	analysis := AnalyzeZRLERuns(pixels)
	cpixelSize := len(WriteCPixel(nil, pixels[0], pf))

	estimated := width * height * cpixelSize
	useRLE := false
	usePalette := false

	plainRLEBytes := (cpixelSize + 1) * (analysis.Runs + analysis.Singles)
	if plainRLEBytes < estimated {
		useRLE = true
		estimated = plainRLEBytes
	}

	paletteSize := len(analysis.Palette)
	if paletteSize < 128 {
		paletteRLEBytes := cpixelSize*paletteSize + 2*analysis.Runs + analysis.Singles
		if paletteRLEBytes < estimated {
			useRLE = true
			usePalette = true
			estimated = paletteRLEBytes
		}

		if paletteSize < 17 {
			bitsPerPixel := bitsPerPackedPixel(paletteSize)
			bytesPerRow := (width*bitsPerPixel + 7) / 8
			packedBytes := cpixelSize*paletteSize + bytesPerRow*height
			if packedBytes < estimated {
				useRLE = false
				usePalette = true
			}
		}
	}

	switch {
	case usePalette && useRLE:
		return encodePackedPaletteRLETile(buf, pixels, analysis.Palette, pf)
	case usePalette:
		return encodePackedPaletteTile(buf, pixels, width, height, analysis.Palette, pf)
	case useRLE:
		buf = append(buf, zrleSubencodingRLE)
		return encodeRLEToBuf(buf, pixels, pf)
	default:
		return encodeRawTile(buf, pixels, pf)
	}
}

func allSame(pixels []uint32) bool {
	first := pixels[0]
	for _, p := range pixels[1:] {
		if p != first {
			return false
		}
	}
	return true
}

func bitsPerPackedPixel(paletteSize int) int {
	switch {
	case paletteSize == 2:
		return 1
	case paletteSize <= 4:
		return 2
	default:
		return 4
	}
}

func encodeRawTile(buf []byte, pixels []uint32, pf PixelFormat) []byte {
	buf = append(buf, zrleSubencodingRaw)
	for _, p := range pixels {
		buf = WriteCPixel(buf, p, pf)
	}
	return buf
}

// encodePackedPaletteTile packs one palette index per pixel into
// bitsPerPackedPixel(len(palette))-wide fields, MSB first, each row
// starting its own byte (the corrected behavior required by §9: a row's
// trailing partial byte is only emitted when bits remain, never an
// unconditional zero pad byte).
func encodePackedPaletteTile(buf []byte, pixels []uint32, width, height int, palette []uint32, pf PixelFormat) []byte {
	paletteSize := len(palette)
	bitsPerPixel := bitsPerPackedPixel(paletteSize)

	buf = append(buf, byte(paletteSize))
	for _, c := range palette {
		buf = WriteCPixel(buf, c, pf)
	}

	colorIndex := make(map[uint32]byte, paletteSize)
	for i, c := range palette {
		colorIndex[c] = byte(i)
	}

	for row := 0; row < height; row++ {
		var packed byte
		nbits := 0
		rowStart := row * width
		for _, p := range pixels[rowStart : rowStart+width] {
			idx := colorIndex[p]
			packed = (packed << uint(bitsPerPixel)) | idx
			nbits += bitsPerPixel
			if nbits >= 8 {
				buf = append(buf, packed)
				packed = 0
				nbits = 0
			}
		}
		if nbits > 0 {
			packed <<= uint(8 - nbits)
			buf = append(buf, packed)
		}
	}

	return buf
}

// encodePackedPaletteRLETile implements the palette-index RLE
// subencoding: a run of length 1 is a bare index byte; a run of 2+ sets
// bit 7 on the index byte and follows it with a 255-sentinel
// variable-length run-length-minus-1 encoding.
func encodePackedPaletteRLETile(buf []byte, pixels []uint32, palette []uint32, pf PixelFormat) []byte {
	paletteSize := len(palette)
	buf = append(buf, 128|byte(paletteSize))
	for _, c := range palette {
		buf = WriteCPixel(buf, c, pf)
	}

	colorIndex := make(map[uint32]byte, paletteSize)
	for i, c := range palette {
		colorIndex[c] = byte(i)
	}

	i := 0
	for i < len(pixels) {
		color := pixels[i]
		idx := colorIndex[color]

		runLen := 1
		for i+runLen < len(pixels) && pixels[i+runLen] == color {
			runLen++
		}

		if runLen == 1 {
			buf = append(buf, idx)
		} else {
			buf = append(buf, idx|128)
			remaining := runLen - 1
			for remaining >= 255 {
				buf = append(buf, 255)
				remaining -= 255
			}
			buf = append(buf, byte(remaining))
		}
		i += runLen
	}

	return buf
}

// encodeRLEToBuf implements the plain-RLE subencoding (no palette): each
// run is a CPIXEL followed by a 255-sentinel run-length-minus-1.
func encodeRLEToBuf(buf []byte, pixels []uint32, pf PixelFormat) []byte {
	i := 0
	for i < len(pixels) {
		color := pixels[i]
		runLen := 1
		for i+runLen < len(pixels) && pixels[i+runLen] == color {
			runLen++
		}

		buf = WriteCPixel(buf, color, pf)

		remaining := runLen - 1
		for remaining >= 255 {
			buf = append(buf, 255)
			remaining -= 255
		}
		buf = append(buf, byte(remaining))

		i += runLen
	}
	return buf
}
