package avacadovnc

import (
	"reflect"
	"testing"
)

// var _ Conn asserts mockConn satisfies the full Conn interface at
// compile time, independent of any test function exercising it.
var _ Conn = (*mockConn)(nil)

func TestNewEncodingInstanceReturnsDistinctInstances(t *testing.T) {
	types := []EncodingType{EncRaw, EncZlib, EncTight, EncZRLE}
	for _, typ := range types {
		a, err := NewEncodingInstance(typ)
		if err != nil {
			t.Fatalf("NewEncodingInstance(%d): %v", typ, err)
		}
		b, err := NewEncodingInstance(typ)
		if err != nil {
			t.Fatalf("NewEncodingInstance(%d) second call: %v", typ, err)
		}
		// Pointers to distinct zero-size values (RawEncoding has no
		// fields) may compare equal in Go, so identity is only checked
		// for types that carry state.
		if reflect.TypeOf(a).Elem().Size() > 0 && a == b {
			t.Fatalf("NewEncodingInstance(%d) returned the same instance twice", typ)
		}
		if a.Type() != typ {
			t.Errorf("instance.Type() = %d, want %d", a.Type(), typ)
		}
	}
}

func TestNewEncodingInstanceUnsupportedType(t *testing.T) {
	if _, err := NewEncodingInstance(EncodingType(9999)); err == nil {
		t.Fatal("expected an error for an unregistered encoding type")
	}
}

func TestGetEncoderReturnsEncoderCapability(t *testing.T) {
	types := []EncodingType{EncRaw, EncZlib, EncTight, EncZRLE}
	for _, typ := range types {
		enc, err := GetEncoder(typ)
		if err != nil {
			t.Fatalf("GetEncoder(%d): %v", typ, err)
		}
		if enc == nil {
			t.Fatalf("GetEncoder(%d) returned a nil Encoder", typ)
		}
	}
}

func TestGetEncoderUnregisteredType(t *testing.T) {
	if _, err := GetEncoder(EncodingType(9999)); err == nil {
		t.Fatal("expected an error for an unregistered encoding type")
	}
}

// TestMockConnDrivesRawDecodeWithoutCanvas exercises mockConn end-to-end
// through RawEncoding.Read: mockConn has no backing Canvas (unlike
// ClientConn), so this also confirms the decode handlers degrade to a
// no-op draw rather than panicking when c isn't a *ClientConn.
func TestMockConnDrivesRawDecodeWithoutCanvas(t *testing.T) {
	pf := rgba32Client()
	raw := &RawEncoding{}
	payload := make([]byte, 4*4*pf.BytesPerPixel())
	for i := range payload {
		payload[i] = byte(i)
	}

	conn := newMockConn(payload, []Encoding{raw}, pf)
	conn.SetWidth(4)
	conn.SetHeight(4)

	if got := conn.GetEncInstance(EncRaw); got != raw {
		t.Fatalf("GetEncInstance(EncRaw) = %v, want %v", got, raw)
	}

	rect := &Rectangle{X: 0, Y: 0, Width: 4, Height: 4}
	if err := raw.Read(conn, rect); err != nil {
		t.Fatalf("RawEncoding.Read over mockConn: %v", err)
	}

	conn.ResetAllEncodings()
}
