package avacadovnc

import (
	"bufio"
	"bytes"
	"net"
)

// ClientConn is a minimal decode-side connection used to exercise an
// Encoding's Read method against a VncCanvas. It does not perform the RFB
// handshake; it exists so the encode/decode round trip can be verified
// against a real Canvas without a live socket.
type ClientConn struct {
	br *bufio.Reader
	bw *bufio.Writer

	pf          PixelFormat
	colorMap    ColorMap
	desktopName []byte
	encodings   []Encoding
	protocol    string
	width       uint16
	height      uint16

	securityHandler SecurityHandler

	// Canvas is the framebuffer target that decode handlers paint into.
	Canvas *VncCanvas
}

// NewClientConnFromBytes builds a ClientConn that reads from buf and
// paints into a freshly allocated canvas of the given dimensions.
func NewClientConnFromBytes(buf []byte, pf PixelFormat, width, height uint16) *ClientConn {
	return &ClientConn{
		br:     bufio.NewReader(bytes.NewReader(buf)),
		bw:     bufio.NewWriter(new(bytes.Buffer)),
		pf:     pf,
		width:  width,
		height: height,
		Canvas: NewVncCanvas(int(width), int(height), pf),
	}
}

func (cc *ClientConn) Conn() net.Conn                      { return nil }
func (cc *ClientConn) ColorMap() ColorMap                  { return cc.colorMap }
func (cc *ClientConn) SetColorMap(cm ColorMap)             { cc.colorMap = cm }
func (cc *ClientConn) DesktopName() []byte                 { return cc.desktopName }
func (cc *ClientConn) SetDesktopName(name []byte)          { cc.desktopName = name }
func (cc *ClientConn) Encodings() []Encoding               { return cc.encodings }
func (cc *ClientConn) SetEncodings(encs []EncodingType) error {
	return nil
}
func (cc *ClientConn) GetEncInstance(typ EncodingType) Encoding {
	for _, enc := range cc.encodings {
		if enc.Type() == typ {
			return enc
		}
	}
	return nil
}
func (cc *ClientConn) ResetAllEncodings() {
	for _, enc := range cc.encodings {
		enc.Reset()
	}
}
func (cc *ClientConn) Flush() error                         { return cc.bw.Flush() }
func (cc *ClientConn) PixelFormat() PixelFormat              { return cc.pf }
func (cc *ClientConn) SetPixelFormat(pf PixelFormat) error    { cc.pf = pf; return nil }
func (cc *ClientConn) Protocol() string                       { return cc.protocol }
func (cc *ClientConn) SetProtoVersion(pv string)              { cc.protocol = pv }
func (cc *ClientConn) SecurityHandler() SecurityHandler       { return cc.securityHandler }
func (cc *ClientConn) SetSecurityHandler(sh SecurityHandler) error {
	cc.securityHandler = sh
	return nil
}
func (cc *ClientConn) Width() uint16          { return cc.width }
func (cc *ClientConn) SetWidth(w uint16)      { cc.width = w }
func (cc *ClientConn) Height() uint16         { return cc.height }
func (cc *ClientConn) SetHeight(h uint16)     { cc.height = h }
func (cc *ClientConn) Config() interface{}    { return nil }

func (cc *ClientConn) Read(buf []byte) (int, error)  { return cc.br.Read(buf) }
func (cc *ClientConn) Write(buf []byte) (int, error) { return cc.bw.Write(buf) }
func (cc *ClientConn) Close() error                  { return nil }
