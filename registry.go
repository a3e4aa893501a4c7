package avacadovnc

import "fmt"

// registry maps the numeric EncodingType IDs this package implements to
// their Encoding capability. RRE, CoRRE, Hextile, Zlibhex, and TightPNG
// are named in RFC 6143 and carry numeric IDs in EncodingType, but per
// §1 they are out-of-scope external collaborators here — they reuse
// the same pixel/zlib primitives without adding new design, so this
// package does not implement them. A client negotiating one of those
// IDs is a configuration error this façade reports rather than papers
// over with a silent fallback to Raw.
var registry = map[EncodingType]Encoding{
	EncRaw:   &RawEncoding{},
	EncZlib:  &ZlibEncoding{},
	EncTight: &TightEncoding{},
	EncZRLE:  &ZRLEEncoding{},
}

// NewEncodingInstance returns a fresh Encoding for the given wire type.
// Unlike Conn.GetEncInstance (which looks up an already-negotiated
// instance on a live connection), this always constructs a new
// zero-value instance: encodings carry per-stream decompressor state
// (e.g. TightEncoding.zlibs) that must not be shared across rectangles
// decoded concurrently on different connections.
func NewEncodingInstance(encType EncodingType) (Encoding, error) {
	switch encType {
	case EncRaw:
		return &RawEncoding{}, nil
	case EncZlib:
		return &ZlibEncoding{}, nil
	case EncTight:
		return &TightEncoding{}, nil
	case EncZRLE:
		return &ZRLEEncoding{}, nil
	default:
		return nil, fmt.Errorf("registry: unsupported encoding type %d", encType)
	}
}

// GetEncoder returns the Encoder capability for a wire type, for
// server-side callers producing a FramebufferUpdate. It fails loudly on
// an unregistered or decode-only type rather than silently falling back
// to Raw, so a misconfigured encoding list surfaces immediately.
func GetEncoder(encType EncodingType) (Encoder, error) {
	enc, ok := registry[encType]
	if !ok {
		return nil, fmt.Errorf("registry: unregistered encoding type %d", encType)
	}
	encoder, ok := enc.(Encoder)
	if !ok {
		return nil, fmt.Errorf("registry: encoding type %d has no Encoder capability", encType)
	}
	return encoder, nil
}
