package avacadovnc

// BytesPerPixel returns bpp/8, the wire width of one pixel in this format.
func (pf PixelFormat) BytesPerPixel() int {
	return int(pf.BPP) / 8
}

// cpixelLayout describes how bytes_per_cpixel was derived for a format, so
// WriteCPixel and ReadCPixel agree on which 3 of the 4 bytes of a packed
// 32-bit pixel carry the channel data.
type cpixelLayout struct {
	size  int  // bytes_per_cpixel
	use24 bool // true when the format qualifies for the 3-byte CPIXEL form
	use24A bool // true: low-order bytes (0,1,2); false: high-order bytes (1,2,3)
}

// cpixelLayoutFor implements the bytes_per_cpixel rule of §4.1: a format
// qualifies for the 3-byte CPIXEL form when it is true-color, 32bpp, depth
// <= 24, and every channel's (max << shift) fits entirely within the low
// 3 bytes of the 32-bit pixel, or entirely within the high 3 bytes.
func cpixelLayoutFor(pf PixelFormat) cpixelLayout {
	full := pf.BytesPerPixel()
	if pf.TrueColor == 0 || pf.BPP != 32 || pf.Depth > 24 {
		return cpixelLayout{size: full}
	}

	rgbLower := uint32(pf.RedMax)<<pf.RedShift < (1<<24) &&
		uint32(pf.GreenMax)<<pf.GreenShift < (1<<24) &&
		uint32(pf.BlueMax)<<pf.BlueShift < (1<<24)
	rgbUpper := pf.RedShift > 7 && pf.GreenShift > 7 && pf.BlueShift > 7

	if !rgbLower && !rgbUpper {
		return cpixelLayout{size: full}
	}

	bigEndian := pf.BigEndian != 0
	use24A := (rgbLower && !bigEndian) || (rgbUpper && bigEndian)
	return cpixelLayout{size: 3, use24: true, use24A: use24A}
}

// BytesPerCPixel returns the ZRLE-specific compact pixel width for this
// format: 3 when the RGB channels fit inside three adjacent bytes of the
// packed pixel, otherwise bytes_per_pixel.
func (pf PixelFormat) BytesPerCPixel() int {
	return cpixelLayoutFor(pf).size
}

// packPixelValue shifts an internal RGB24 pixel (R low byte, G mid byte,
// B high byte, top byte zero) into the client's per-channel shift/max
// layout, scaling each 0-255 channel up to the channel's max value.
func packPixelValue(internal uint32, pf PixelFormat) uint32 {
	r := internal & 0xFF
	g := (internal >> 8) & 0xFF
	b := (internal >> 16) & 0xFF

	rv := scaleChannel(r, uint32(pf.RedMax))
	gv := scaleChannel(g, uint32(pf.GreenMax))
	bv := scaleChannel(b, uint32(pf.BlueMax))

	return (rv << pf.RedShift) | (gv << pf.GreenShift) | (bv << pf.BlueShift)
}

// unpackPixelValue is the inverse of packPixelValue: extract each channel
// via the client's shift/max and scale back up to an 0-255 internal value.
func unpackPixelValue(wire uint32, pf PixelFormat) uint32 {
	r := (wire >> pf.RedShift) & uint32(pf.RedMax)
	g := (wire >> pf.GreenShift) & uint32(pf.GreenMax)
	b := (wire >> pf.BlueShift) & uint32(pf.BlueMax)

	ri := unscaleChannel(r, uint32(pf.RedMax))
	gi := unscaleChannel(g, uint32(pf.GreenMax))
	bi := unscaleChannel(b, uint32(pf.BlueMax))

	return ri | (gi << 8) | (bi << 16)
}

func scaleChannel(v, max uint32) uint32 {
	if max == 0 || max == 255 {
		return v
	}
	return (v*max + 127) / 255
}

func unscaleChannel(v, max uint32) uint32 {
	if max == 0 || max == 255 {
		return v
	}
	return (v*255 + max/2) / max
}

// TranslatePixel packs an internal RGB24 pixel into the client's wire
// format: bytes_per_pixel() bytes, in the client's declared byte order.
func TranslatePixel(internal uint32, pf PixelFormat) []byte {
	wire := packPixelValue(internal, pf)
	n := pf.BytesPerPixel()
	out := make([]byte, n)
	order := pf.order()
	switch n {
	case 1:
		out[0] = byte(wire)
	case 2:
		order.PutUint16(out, uint16(wire))
	case 3:
		var full [4]byte
		order.PutUint32(full[:], wire)
		if pf.BigEndian != 0 {
			copy(out, full[1:4])
		} else {
			copy(out, full[0:3])
		}
	case 4:
		order.PutUint32(out, wire)
	}
	return out
}

// ReadTranslatedPixel is the inverse of TranslatePixel: given bpp/8 wire
// bytes in the client's byte order, recover the internal RGB24 value.
func ReadTranslatedPixel(data []byte, pf PixelFormat) uint32 {
	order := pf.order()
	var wire uint32
	switch pf.BytesPerPixel() {
	case 1:
		wire = uint32(data[0])
	case 2:
		wire = uint32(order.Uint16(data))
	case 3:
		var full [4]byte
		if pf.BigEndian != 0 {
			full[1], full[2], full[3] = data[0], data[1], data[2]
		} else {
			full[0], full[1], full[2] = data[0], data[1], data[2]
		}
		wire = order.Uint32(full[:])
	case 4:
		wire = order.Uint32(data)
	}
	if pf.TrueColor == 0 {
		return wire
	}
	return unpackPixelValue(wire, pf)
}

// WriteCPixel appends the ZRLE compact-pixel encoding of an internal
// RGB24 pixel to dst, honoring the 24A/24B byte-order distinction from
// cpixelLayoutFor, and returns the extended slice.
func WriteCPixel(dst []byte, internal uint32, pf PixelFormat) []byte {
	layout := cpixelLayoutFor(pf)
	if !layout.use24 {
		return append(dst, TranslatePixel(internal, pf)...)
	}

	wire := packPixelValue(internal, pf)
	var full [4]byte
	// full[] is staged in the client's own declared byte order (not
	// always big-endian), exactly as the reference encoder picks
	// to_be_bytes/to_le_bytes before slicing. 24A takes bytes 0,1,2 of
	// that serialization; 24B takes bytes 1,2,3.
	pf.order().PutUint32(full[:], wire)
	if layout.use24A {
		return append(dst, full[0], full[1], full[2])
	}
	return append(dst, full[1], full[2], full[3])
}

// ReadCPixel reads one ZRLE compact pixel from data and returns the
// internal RGB24 value plus the number of bytes consumed.
func ReadCPixel(data []byte, pf PixelFormat) (uint32, int) {
	layout := cpixelLayoutFor(pf)
	if !layout.use24 {
		n := pf.BytesPerPixel()
		return ReadTranslatedPixel(data[:n], pf), n
	}

	var full [4]byte
	if layout.use24A {
		full[0], full[1], full[2] = data[0], data[1], data[2]
		full[3] = 0
	} else {
		full[0] = 0
		full[1], full[2], full[3] = data[0], data[1], data[2]
	}
	wire := pf.order().Uint32(full[:])
	return unpackPixelValue(wire, pf), 3
}
