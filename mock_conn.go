package avacadovnc

import (
	"bytes"
	"net"
)

// mockConn is a minimal Conn implementation backed by in-memory buffers,
// used by this package's decode-path tests to drive Encoding.Read
// without a real socket.
type mockConn struct {
	r *bytes.Reader
	w *bytes.Buffer

	pixelFormat     PixelFormat
	desktopName     []byte
	width, height   uint16
	encs            []Encoding
	protocol        string
	colorMap        ColorMap
	securityHandler SecurityHandler
}

func newMockConn(data []byte, encs []Encoding, pf PixelFormat) *mockConn {
	return &mockConn{
		r:           bytes.NewReader(data),
		w:           &bytes.Buffer{},
		encs:        encs,
		pixelFormat: pf,
	}
}

func (m *mockConn) Read(p []byte) (int, error)  { return m.r.Read(p) }
func (m *mockConn) Write(p []byte) (int, error) { return m.w.Write(p) }

func (m *mockConn) Close() error       { return nil }
func (m *mockConn) Conn() net.Conn     { return nil }
func (m *mockConn) Flush() error       { return nil }
func (m *mockConn) Wait()              {}
func (m *mockConn) Config() interface{} { return nil }

func (m *mockConn) ResetAllEncodings() {
	for _, e := range m.encs {
		e.Reset()
	}
}

func (m *mockConn) SetEncodings([]EncodingType) error { return nil }
func (m *mockConn) Encodings() []Encoding             { return m.encs }

func (m *mockConn) GetEncInstance(typ EncodingType) Encoding {
	for _, enc := range m.encs {
		if enc.Type() == typ {
			return enc
		}
	}
	return nil
}

func (m *mockConn) PixelFormat() PixelFormat            { return m.pixelFormat }
func (m *mockConn) SetPixelFormat(pf PixelFormat) error { m.pixelFormat = pf; return nil }
func (m *mockConn) DesktopName() []byte                 { return m.desktopName }
func (m *mockConn) SetDesktopName(b []byte)             { m.desktopName = b }
func (m *mockConn) Width() uint16                       { return m.width }
func (m *mockConn) SetWidth(w uint16)                   { m.width = w }
func (m *mockConn) Height() uint16                      { return m.height }
func (m *mockConn) SetHeight(h uint16)                  { m.height = h }
func (m *mockConn) Protocol() string                    { return m.protocol }
func (m *mockConn) SetProtoVersion(p string)            { m.protocol = p }
func (m *mockConn) ColorMap() ColorMap                  { return m.colorMap }
func (m *mockConn) SetColorMap(cm ColorMap)             { m.colorMap = cm }
func (m *mockConn) SecurityHandler() SecurityHandler    { return m.securityHandler }
func (m *mockConn) SetSecurityHandler(sh SecurityHandler) error {
	m.securityHandler = sh
	return nil
}
