package avacadovnc

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/bigangryrobot/avacadovnc/logger"
)

// tightZlibStream holds one persistent decompression stream: buf is an
// append-only feed (each rectangle's compressed bytes are written onto
// the end of whatever the deflate reader hasn't consumed yet) and zr is
// the single zlib.Reader kept alive across rectangles, since the
// encoder's sync-flushed continuations carry no zlib header of their
// own and only decode correctly against the reader that already holds
// the matching 32KB back-reference window.
type tightZlibStream struct {
	buf *bytes.Buffer
	zr  io.ReadCloser
}

// TightEncoding implements the Tight VNC encoding, a highly efficient encoding
// that uses zlib compression and various filters to reduce bandwidth.
type TightEncoding struct {
	// zlibs holds the persistent decompression streams. The protocol
	// allows for up to 4 separate streams to be used for different types
	// of data.
	zlibs [4]*tightZlibStream
	// buffer is a reusable buffer for reading compressed data, to reduce allocations.
	buffer *bytes.Buffer

	// encodeStreams holds the persistent compressor set used by Encode.
	// Lazily constructed so a TightEncoding used only for decoding never
	// allocates it.
	encodeStreams *ZlibStreamSet
}

// Type returns the encoding type identifier.
func (e *TightEncoding) Type() EncodingType {
	return EncTight
}

// Read decodes a rectangle of pixel data using the Tight encoding.
func (e *TightEncoding) Read(c Conn, rect *Rectangle) error {
	// The first byte is the compression control byte. It determines which
	// zlib streams to reset and which sub-encoding (filter) to use.
	var compControl [1]byte
	if _, err := io.ReadFull(c, compControl[:]); err != nil {
		return fmt.Errorf("tight: failed to read compression control: %w", err)
	}

	// Bits 0-3 of compControl indicate which zlib streams should be reset.
	for i := 0; i < 4; i++ {
		if (compControl[0]>>i)&1 != 0 {
			if e.zlibs[i] != nil {
				e.zlibs[i].zr.Close()
				e.zlibs[i] = nil
			}
		}
	}

	// Dispatch to the correct sub-encoding handler based on the compControl byte.
	if compControl[0]&0x80 == 0 {
		// Bit 7 is 0: Basic compression (Copy, Palette, Gradient, or plain zlib).
		// Bits 4-5 carry the stream id; bit 6 set means an explicit filter
		// id byte follows, otherwise the filter is Copy.
		streamID := (compControl[0] >> 4) & 0x03
		filterID := byte(0)
		if compControl[0]&0x40 != 0 {
			var f [1]byte
			if _, err := io.ReadFull(c, f[:]); err != nil {
				return fmt.Errorf("tight: failed to read filter id: %w", err)
			}
			filterID = f[0]
		}

		switch filterID {
		case 2: // Gradient filter
			return e.handleGradient(c, rect)
		case 1: // Palette filter
			return e.handlePalette(c, rect, streamID)
		case 0: // Copy (plain zlib)
			return e.handleCopy(c, rect, streamID)
		default:
			return fmt.Errorf("tight: unsupported basic filter: %x", filterID)
		}
	}

	// Bit 7 is 1: Fill, JPEG, or PNG compression.
	switch compControl[0] & 0xF0 {
	case 0x80: // Fill compression
		return e.handleFill(c, rect)
	case 0x90: // JPEG compression
		return e.handleJPEG(c, rect)
	case 0xA0: // PNG compression
		return e.handlePNG(c, rect)
	default:
		return fmt.Errorf("tight: unsupported compression control value: %x", compControl[0])
	}
}

// handleCopy decodes full-color pixel data compressed with zlib. The
// full-color mode always transmits plain RGB888 (3 bytes/pixel), matching
// the encoder's rgbaToRGB packing, regardless of the client's declared
// pixel format.
func (e *TightEncoding) handleCopy(c Conn, rect *Rectangle, streamID byte) error {
	rowSize := int(rect.Width) * 3
	uncompressedSize := rowSize * int(rect.Height)

	compressedData, err := e.readCompressedData(c)
	if err != nil {
		return err
	}
	if len(compressedData) == 0 {
		return nil // No data to process.
	}

	// Decompress the data using the appropriate zlib stream.
	rgbData, err := e.decompress(compressedData, uncompressedSize, streamID)
	if err != nil {
		return err
	}

	// Draw the raw pixel data to the canvas.
	clientConn, ok := c.(*ClientConn)
	if !ok || clientConn.Canvas == nil {
		return nil // No canvas to draw on.
	}
	return clientConn.Canvas.DrawBytes(rgbToRGBA(rgbData), rect)
}

// handleFill decodes a rectangle filled with a single color.
func (e *TightEncoding) handleFill(c Conn, rect *Rectangle) error {
	bytesPerPixel := c.PixelFormat().BytesPerPixel()
	colorBytes := make([]byte, bytesPerPixel)
	if _, err := io.ReadFull(c, colorBytes); err != nil {
		return fmt.Errorf("tight: failed to read fill color: %w", err)
	}

	clientConn, ok := c.(*ClientConn)
	if !ok || clientConn.Canvas == nil {
		return nil // No canvas to draw on.
	}
	return clientConn.Canvas.Fill(colorBytes, rect)
}

// handleJPEG decodes a JPEG-encoded rectangle.
func (e *TightEncoding) handleJPEG(c Conn, rect *Rectangle) error {
	jpegData, err := e.readCompressedData(c)
	if err != nil {
		return err
	}
	if len(jpegData) == 0 {
		return nil
	}

	img, err := jpeg.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return fmt.Errorf("tight: failed to decode jpeg: %w", err)
	}

	clientConn, ok := c.(*ClientConn)
	if !ok || clientConn.Canvas == nil {
		return nil
	}
	clientConn.Canvas.Draw(img, rect)
	return nil
}

// handlePNG decodes a PNG-compressed rectangle.
func (e *TightEncoding) handlePNG(c Conn, rect *Rectangle) error {
	pngData, err := e.readCompressedData(c)
	if err != nil {
		return err
	}
	if len(pngData) == 0 {
		return nil
	}

	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return fmt.Errorf("tight: failed to decode png: %w", err)
	}

	clientConn, ok := c.(*ClientConn)
	if !ok || clientConn.Canvas == nil {
		return nil
	}
	clientConn.Canvas.Draw(img, rect)
	return nil
}

// handlePalette decodes indexed color data.
func (e *TightEncoding) handlePalette(c Conn, rect *Rectangle, streamID byte) error {
	var numColors [1]byte
	if _, err := io.ReadFull(c, numColors[:]); err != nil {
		return fmt.Errorf("tight: failed to read palette size: %w", err)
	}
	paletteSize := int(numColors[0]) + 1
	bytesPerPixel := c.PixelFormat().BytesPerPixel()

	// Read the palette.
	paletteData := make([]byte, paletteSize*int(bytesPerPixel))
	if _, err := io.ReadFull(c, paletteData); err != nil {
		return fmt.Errorf("tight: failed to read palette data: %w", err)
	}

	// Determine if the indexed data is 1-bit or 8-bit.
	var bitsPerIndex int
	var rowSize int
	if paletteSize <= 2 {
		bitsPerIndex = 1
		rowSize = (int(rect.Width) + 7) / 8
	} else {
		bitsPerIndex = 8
		rowSize = int(rect.Width)
	}
	uncompressedSize := rowSize * int(rect.Height)

	// Decompress the indexed data.
	compressedData, err := e.readCompressedData(c)
	if err != nil {
		return err
	}
	indexedData, err := e.decompress(compressedData, uncompressedSize, streamID)
	if err != nil {
		return err
	}

	// Convert indexed data to full color and draw.
	clientConn, ok := c.(*ClientConn)
	if !ok || clientConn.Canvas == nil {
		return nil
	}
	return clientConn.Canvas.DrawPalette(indexedData, paletteData, bitsPerIndex, paletteSize, rect)
}

// handleGradient is a placeholder for gradient-filled rectangles.
// This is rarely used in practice, so we log and skip it.
func (e *TightEncoding) handleGradient(c Conn, rect *Rectangle) error {
	logger.Warn("tight: gradient filter is not implemented, skipping rectangle")
	// Gradient data is uncompressed raw pixel data.
	bytesToRead := int(rect.Width) * int(rect.Height) * c.PixelFormat().BytesPerPixel()
	if _, err := io.CopyN(io.Discard, c, int64(bytesToRead)); err != nil {
		return fmt.Errorf("tight: failed to discard gradient data: %w", err)
	}
	return nil
}

// decompress feeds data onto the persistent stream addressed by
// streamID and reads exactly uncompressedSize bytes back out of it. The
// stream's zlib.Reader is created once (on the first rectangle, or the
// first rectangle after an explicit reset-bit) and kept alive
// thereafter: every later rectangle on this streamID is a headerless
// sync-flush continuation of the same deflate stream, so it is simply
// appended to the stream's feed buffer rather than used to start a new
// reader.
func (e *TightEncoding) decompress(data []byte, uncompressedSize int, streamID byte) ([]byte, error) {
	st := e.zlibs[streamID]
	if st == nil {
		buf := bytes.NewBuffer(data)
		zr, err := zlib.NewReader(buf)
		if err != nil {
			return nil, fmt.Errorf("tight: failed to create zlib reader: %w", err)
		}
		st = &tightZlibStream{buf: buf, zr: zr}
		e.zlibs[streamID] = st
	} else {
		st.buf.Write(data)
	}

	if e.buffer == nil {
		e.buffer = &bytes.Buffer{}
	}
	e.buffer.Reset()
	e.buffer.Grow(uncompressedSize)
	if _, err := io.CopyN(e.buffer, st.zr, int64(uncompressedSize)); err != nil {
		return nil, fmt.Errorf("tight: zlib decompression failed: %w", err)
	}
	return e.buffer.Bytes(), nil
}

// readCompressedData reads a compactly represented length (see
// compactlen.go's DecodeCompactLength) followed by the data itself.
func (e *TightEncoding) readCompressedData(c io.Reader) ([]byte, error) {
	var lenBytes [3]byte
	n := 0
	for {
		if _, err := io.ReadFull(c, lenBytes[n:n+1]); err != nil {
			return nil, fmt.Errorf("tight: failed to read length byte %d: %w", n+1, err)
		}
		n++
		if lenBytes[n-1]&0x80 == 0 || n == 3 {
			break
		}
	}
	length, _ := DecodeCompactLength(lenBytes[:n])

	if length == 0 {
		return nil, nil
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(c, data); err != nil {
		return nil, fmt.Errorf("tight: failed to read compressed data (len=%d): %w", length, err)
	}
	return data, nil
}

// Encode implements the Encoder capability (§6) for Tight: it runs the
// geometric optimizer over the whole of the supplied pixels (treated as
// one dirty rectangle the size of width x height) and concatenates each
// resulting subrectangle as a wire-format Rectangle header followed by
// its encoded payload, so the caller can splice the fragment directly
// into a FramebufferUpdate's rectangle list (bumping the rectangle
// count by len(subrects)).
func (e *TightEncoding) Encode(pixels []byte, width, height uint16, quality, compression int, pf PixelFormat) ([]byte, error) {
	if e.encodeStreams == nil {
		e.encodeStreams = NewZlibStreamSet()
	}

	subrects, err := EncodeTightRects(pixels, width, height, tightRect{X: 0, Y: 0, W: width, H: height}, quality, compression, pf, e.encodeStreams)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	for _, sr := range subrects {
		if err := writeRectangleHeader(&out, sr.Rect.X, sr.Rect.Y, sr.Rect.W, sr.Rect.H, EncTight); err != nil {
			return nil, fmt.Errorf("tight: failed to write rectangle header: %w", err)
		}
		out.Write(sr.Bytes)
	}
	return out.Bytes(), nil
}

// Reset cleans up the zlib streams.
func (e *TightEncoding) Reset() {
	for i := range e.zlibs {
		if e.zlibs[i] != nil {
			e.zlibs[i].zr.Close()
			e.zlibs[i] = nil
		}
	}
	e.buffer = nil
}
