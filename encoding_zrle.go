package avacadovnc

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// ZRLEEncoding implements the ZRLE (Zlib-compressed Run-Length Encoding),
// which is a highly efficient encoding that combines zlib with RLE.
type ZRLEEncoding struct {
	// zlibBuf is the append-only feed for zlibReader: ZRLE wraps its
	// whole rectangle stream in a single persistent deflate stream, so
	// every rectangle after the first is a headerless sync-flush
	// continuation that must be appended to, not used to start a new
	// reader.
	zlibBuf    *bytes.Buffer
	zlibReader io.ReadCloser

	// encodeStreams holds the persistent compressor set used by Encode.
	encodeStreams *ZlibStreamSet
}

// Type returns the encoding type identifier.
func (e *ZRLEEncoding) Type() EncodingType {
	return EncZRLE
}

// Read decodes ZRLE-encoded data.
func (e *ZRLEEncoding) Read(c Conn, rect *Rectangle) error {
	var compressedLen uint32
	if err := binary.Read(c, binary.BigEndian, &compressedLen); err != nil {
		return fmt.Errorf("zrle: failed to read compressed data length: %w", err)
	}

	if compressedLen == 0 {
		return nil
	}

	compressedData := make([]byte, compressedLen)
	if _, err := io.ReadFull(c, compressedData); err != nil {
		return fmt.Errorf("zrle: failed to read compressed data: %w", err)
	}

	if e.zlibReader == nil {
		e.zlibBuf = bytes.NewBuffer(compressedData)
		var err error
		e.zlibReader, err = zlib.NewReader(e.zlibBuf)
		if err != nil {
			return fmt.Errorf("zrle: failed to create zlib reader: %w", err)
		}
	} else {
		e.zlibBuf.Write(compressedData)
	}

	clientConn, ok := c.(*ClientConn)
	if !ok {
		return fmt.Errorf("zrle: connection is not a client connection")
	}

	pf := c.PixelFormat()

	for y := uint16(0); y < rect.Height; {
		tileH := zrleTileSize
		if int(rect.Height-y) < tileH {
			tileH = int(rect.Height - y)
		}
		for x := uint16(0); x < rect.Width; {
			tileW := zrleTileSize
			if int(rect.Width-x) < tileW {
				tileW = int(rect.Width - x)
			}

			if err := e.decodeTile(clientConn, rect.X+x, rect.Y+y, uint16(tileW), uint16(tileH), pf); err != nil {
				return err
			}

			x += uint16(tileW)
		}
		y += uint16(tileH)
	}

	return nil
}

// decodeTile decodes a single 64x64 (or edge-clipped) ZRLE tile from the
// active zlib stream and draws it to the canvas. It handles every
// subencoding produced by encodeZRLETile: raw, solid, packed palette
// (2-16 colors), plain RLE, and packed-palette RLE.
func (e *ZRLEEncoding) decodeTile(cc *ClientConn, x, y, w, h uint16, pf PixelFormat) error {
	var subEncoding uint8
	if err := binary.Read(e.zlibReader, binary.BigEndian, &subEncoding); err != nil {
		return fmt.Errorf("zrle: failed to read sub-encoding: %w", err)
	}

	width, height := int(w), int(h)
	pixels := make([]uint32, width*height)

	switch {
	case subEncoding == zrleSubencodingRaw:
		buf := make([]byte, pf.BytesPerCPixel())
		for i := range pixels {
			if _, err := io.ReadFull(e.zlibReader, buf); err != nil {
				return fmt.Errorf("zrle: failed to read raw pixel: %w", err)
			}
			v, _ := ReadCPixel(buf, pf)
			pixels[i] = v
		}

	case subEncoding == zrleSubencodingSolid:
		v, err := readOneCPixel(e.zlibReader, pf)
		if err != nil {
			return err
		}
		for i := range pixels {
			pixels[i] = v
		}

	case subEncoding == zrleSubencodingRLE:
		if err := decodeRLETile(e.zlibReader, pixels, pf); err != nil {
			return err
		}

	case subEncoding >= 2 && subEncoding <= 16:
		if err := decodePackedPaletteTile(e.zlibReader, pixels, width, height, int(subEncoding), pf); err != nil {
			return err
		}

	case subEncoding >= 130:
		paletteSize := int(subEncoding & 0x7F)
		if err := decodePackedPaletteRLETile(e.zlibReader, pixels, paletteSize, pf); err != nil {
			return err
		}

	default:
		return fmt.Errorf("zrle: unsupported sub-encoding %d", subEncoding)
	}

	rgba := make([]byte, width*height*4)
	for i, v := range pixels {
		o := i * 4
		rgba[o] = byte(v)
		rgba[o+1] = byte(v >> 8)
		rgba[o+2] = byte(v >> 16)
		rgba[o+3] = 0xFF
	}

	return cc.Canvas.DrawBytes(rgba, &Rectangle{X: x, Y: y, Width: w, Height: h})
}

func readOneCPixel(r io.Reader, pf PixelFormat) (uint32, error) {
	n := pf.BytesPerCPixel()
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, fmt.Errorf("zrle: failed to read cpixel: %w", err)
	}
	v, _ := ReadCPixel(buf, pf)
	return v, nil
}

func readRunLength(r io.Reader) (int, error) {
	total := 0
	for {
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, fmt.Errorf("zrle: failed to read run length: %w", err)
		}
		total += int(b[0])
		if b[0] != 255 {
			break
		}
	}
	return total + 1, nil
}

func decodeRLETile(r io.Reader, pixels []uint32, pf PixelFormat) error {
	i := 0
	for i < len(pixels) {
		color, err := readOneCPixel(r, pf)
		if err != nil {
			return err
		}
		runLen, err := readRunLength(r)
		if err != nil {
			return err
		}
		for j := 0; j < runLen && i < len(pixels); j++ {
			pixels[i] = color
			i++
		}
	}
	return nil
}

func decodePackedPaletteTile(r io.Reader, pixels []uint32, width, height, paletteSize int, pf PixelFormat) error {
	palette := make([]uint32, paletteSize)
	for i := range palette {
		v, err := readOneCPixel(r, pf)
		if err != nil {
			return err
		}
		palette[i] = v
	}

	bitsPerPixel := bitsPerPackedPixel(paletteSize)
	bytesPerRow := (width*bitsPerPixel + 7) / 8

	for row := 0; row < height; row++ {
		rowBytes := make([]byte, bytesPerRow)
		if _, err := io.ReadFull(r, rowBytes); err != nil {
			return fmt.Errorf("zrle: failed to read packed palette row: %w", err)
		}

		bitPos := 0
		for col := 0; col < width; col++ {
			byteIdx := bitPos / 8
			shift := 8 - bitsPerPixel - (bitPos % 8)
			idx := (rowBytes[byteIdx] >> uint(shift)) & byte((1<<bitsPerPixel)-1)
			pixels[row*width+col] = palette[idx]
			bitPos += bitsPerPixel
		}
	}
	return nil
}

func decodePackedPaletteRLETile(r io.Reader, pixels []uint32, paletteSize int, pf PixelFormat) error {
	palette := make([]uint32, paletteSize)
	for i := range palette {
		v, err := readOneCPixel(r, pf)
		if err != nil {
			return err
		}
		palette[i] = v
	}

	i := 0
	for i < len(pixels) {
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return fmt.Errorf("zrle: failed to read palette rle index: %w", err)
		}
		idx := b[0] & 0x7F
		runLen := 1
		if b[0]&0x80 != 0 {
			n, err := readRunLength(r)
			if err != nil {
				return err
			}
			runLen = n
		}
		color := palette[idx]
		for j := 0; j < runLen && i < len(pixels); j++ {
			pixels[i] = color
			i++
		}
	}
	return nil
}

// Reset cleans up the zlib reader.
func (e *ZRLEEncoding) Reset() {
	if e.zlibReader != nil {
		e.zlibReader.Close()
		e.zlibReader = nil
	}
	e.zlibBuf = nil
}

// Encode implements the Encoder capability (§6) for ZRLE: pixels is
// treated as the whole framebuffer (width x height), tiled and wrapped
// via EncodeZRLE using this encoding's own persistent compressor set
// (stream 0; independent of Tight's ZlibStreamSet).
func (e *ZRLEEncoding) Encode(pixels []byte, width, height uint16, quality, compression int, pf PixelFormat) ([]byte, error) {
	if e.encodeStreams == nil {
		e.encodeStreams = NewZlibStreamSet()
	}
	return EncodeZRLE(pixels, width, height, pf, compression, e.encodeStreams)
}
