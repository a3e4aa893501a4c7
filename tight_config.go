package avacadovnc

// Tight encoding protocol constants (RFC 6143 section 7.7.4).
const (
	tightExplicitFilter = 0x04
	tightFill            = 0x08
	tightJPEG            = 0x09
	tightNoZlib          = 0x0A

	tightFilterPalette = 0x01

	streamIDFullColor = 0
	streamIDMono      = 1
	streamIDIndexed   = 2
)

// Compression thresholds for Tight encoding optimization.
const (
	tightMinToCompress   = 12
	minSplitRectSize     = 4096
	minSolidSubrectSize  = 2048
	maxSplitTileSize     = 16
	tightMaxRectSize     = 65536
	tightMaxRectWidth    = 2048
)

// tightConf holds the per-level parameters the palette analyzer and the
// three Tight zlib streams use; indexed by the normalized internal config
// index (0-3), not the raw compression level.
type tightConf struct {
	monoMinRectSize int
	idxZlibLevel    int
	monoZlibLevel   int
	rawZlibLevel    int
}

var tightConfTable = [4]tightConf{
	{monoMinRectSize: 6, idxZlibLevel: 0, monoZlibLevel: 0, rawZlibLevel: 0},
	{monoMinRectSize: 32, idxZlibLevel: 1, monoZlibLevel: 1, rawZlibLevel: 1},
	{monoMinRectSize: 32, idxZlibLevel: 3, monoZlibLevel: 3, rawZlibLevel: 2},
	{monoMinRectSize: 32, idxZlibLevel: 7, monoZlibLevel: 7, rawZlibLevel: 5},
}

// normalizeCompressionLevel applies §4.5's three-step normalization and
// returns the resulting internal config index (0-3) into tightConfTable.
func normalizeCompressionLevel(compression, quality int) int {
	if quality < 10 {
		if compression < 1 {
			compression = 1
		} else if compression > 2 {
			compression = 2
		}
	} else if compression > 1 {
		compression = 1
	}

	if compression == 9 {
		return 3
	}
	switch {
	case compression <= 0:
		return 0
	case compression == 1:
		return 1
	default:
		return 2
	}
}

// jpegQualityFor maps the VNC quality knob [0..9] to a JPEG quality value,
// per §4.5: 95 - 7*q, saturated into a sane range even though peers accept
// anything in [0,100].
func jpegQualityFor(vncQuality int) int {
	q := 95 - 7*vncQuality
	if q < 0 {
		q = 0
	}
	if q > 100 {
		q = 100
	}
	return q
}
