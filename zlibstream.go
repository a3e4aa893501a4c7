package avacadovnc

import (
	"bytes"
	"compress/zlib"
)

// zlibStream holds one persistent deflate stream: the Writer itself
// carries the dictionary across calls, while buf is reset after each
// call so the only thing measured is the delta produced by this call.
type zlibStream struct {
	level int
	w     *zlib.Writer
	buf   *bytes.Buffer
}

// ZlibStreamSet implements the persistent zlib stream manager of §4.3:
// up to four independently addressed deflate streams, lazily constructed
// at the level requested on first use and never recreated at a
// different level afterwards. Tight owns one ZlibStreamSet per
// connection (stream-ids 0/1/2 for full-color/mono/indexed data); ZRLE
// owns a second, separate instance and always addresses stream 0.
type ZlibStreamSet struct {
	streams [4]*zlibStream
}

// NewZlibStreamSet returns an empty stream set; streams are created on
// first Compress call.
func NewZlibStreamSet() *ZlibStreamSet {
	return &ZlibStreamSet{}
}

func clampZlibLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > 9 {
		return 9
	}
	return level
}

// Compress deflates input on the stream addressed by streamID, performs
// a sync-flush, and returns exactly the bytes produced by this call. The
// stream's internal dictionary is retained for the next call.
func (s *ZlibStreamSet) Compress(streamID int, level int, input []byte) ([]byte, error) {
	if streamID < 0 || streamID >= len(s.streams) {
		return nil, newInvalidInput("zlib stream id %d out of range", streamID)
	}

	st := s.streams[streamID]
	if st == nil {
		level = clampZlibLevel(level)
		buf := new(bytes.Buffer)
		w, err := zlib.NewWriterLevel(buf, level)
		if err != nil {
			return nil, &CompressionError{StreamID: streamID, Err: err}
		}
		st = &zlibStream{level: level, w: w, buf: buf}
		s.streams[streamID] = st
	}

	st.buf.Reset()
	if _, err := st.w.Write(input); err != nil {
		return nil, &CompressionError{StreamID: streamID, Err: err}
	}
	if err := st.w.Flush(); err != nil {
		return nil, &CompressionError{StreamID: streamID, Err: err}
	}

	out := make([]byte, st.buf.Len())
	copy(out, st.buf.Bytes())
	return out, nil
}

// Reset discards the stream at streamID, so the next Compress call on it
// starts a fresh dictionary at a newly chosen level.
func (s *ZlibStreamSet) Reset(streamID int) {
	if streamID >= 0 && streamID < len(s.streams) {
		s.streams[streamID] = nil
	}
}

// ResetAll discards every stream in the set.
func (s *ZlibStreamSet) ResetAll() {
	for i := range s.streams {
		s.streams[i] = nil
	}
}
