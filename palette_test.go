package avacadovnc

import "testing"

func TestAnalyzeTightPaletteSolid(t *testing.T) {
	pixels := make([]uint32, 64)
	for i := range pixels {
		pixels[i] = 0x00C80000
	}
	result := AnalyzeTightPalette(pixels, 32)
	if result.Kind != PaletteSolid {
		t.Fatalf("Kind = %v, want PaletteSolid", result.Kind)
	}
	if result.Color != 0x00C80000 {
		t.Fatalf("Color = 0x%06X, want 0x00C80000", result.Color)
	}
}

func TestAnalyzeTightPaletteMono(t *testing.T) {
	// A checkerboard of two colors, large enough to clear monoMinRectSize.
	bg, fg := uint32(0x00000000), uint32(0x00FFFFFF)
	pixels := make([]uint32, 64)
	for i := range pixels {
		if i%2 == 0 {
			pixels[i] = bg
		} else {
			pixels[i] = fg
		}
	}
	result := AnalyzeTightPalette(pixels, 32)
	if result.Kind != PaletteMono {
		t.Fatalf("Kind = %v, want PaletteMono", result.Kind)
	}
	// 32 bg pixels vs 32 fg pixels: a tie, so the first-seen color (bg)
	// must win the background slot.
	if result.Background != bg {
		t.Fatalf("Background = %#x, want first-seen color %#x on a tie", result.Background, bg)
	}
	if result.Foreground == result.Background {
		t.Fatalf("Foreground and Background must differ")
	}
}

func TestAnalyzeTightPaletteTooSmallForMonoFallsToMany(t *testing.T) {
	bg, fg := uint32(0x00000000), uint32(0x00FFFFFF)
	pixels := []uint32{bg, fg, bg, fg} // only 4 pixels, below any realistic threshold
	result := AnalyzeTightPalette(pixels, 32)
	if result.Kind != PaletteMany {
		t.Fatalf("Kind = %v, want PaletteMany (rect too small for mono check)", result.Kind)
	}
}

func TestAnalyzeTightPaletteManyOnThirdColor(t *testing.T) {
	pixels := make([]uint32, 64)
	for i := range pixels {
		switch i % 3 {
		case 0:
			pixels[i] = 0x00000000
		case 1:
			pixels[i] = 0x00FFFFFF
		default:
			pixels[i] = 0x0000FF00
		}
	}
	result := AnalyzeTightPalette(pixels, 32)
	if result.Kind != PaletteMany {
		t.Fatalf("Kind = %v, want PaletteMany", result.Kind)
	}
}

func TestAnalyzeTightPaletteLeadingRunTieBreak(t *testing.T) {
	// c0 is seen first (a leading run of 3) and reappears after c1's run;
	// every pixel counts, so the majority color wins the background slot
	// rather than the color of the leading run.
	c0, c1 := uint32(0x00010101), uint32(0x00020202)
	pixels := make([]uint32, 0, 40)
	for i := 0; i < 3; i++ {
		pixels = append(pixels, c0) // leading run of 3
	}
	for i := 0; i < 30; i++ {
		pixels = append(pixels, c1) // c1 dominates afterward
	}
	for i := 0; i < 10; i++ {
		pixels = append(pixels, c0) // more c0 after c1 has appeared
	}
	result := AnalyzeTightPalette(pixels, 32)
	if result.Kind != PaletteMono {
		t.Fatalf("Kind = %v, want PaletteMono", result.Kind)
	}
	// c0 totals 13 pixels and c1 30, so c1 must win background even
	// though c0 was seen first.
	if result.Background != c1 {
		t.Fatalf("Background = 0x%06X, want c1 0x%06X (majority color)", result.Background, c1)
	}
}

func TestAnalyzeZRLERunsCountsRunsAndSingles(t *testing.T) {
	pixels := []uint32{1, 1, 1, 2, 3, 3, 4, 4, 4, 4}
	result := AnalyzeZRLERuns(pixels)
	// runs: [1,1,1], [3,3] and [4,4,4,4] -> 3 runs; singles: [2] -> 1
	// single.
	if result.Runs != 3 {
		t.Fatalf("Runs = %d, want 3", result.Runs)
	}
	if result.Singles != 1 {
		t.Fatalf("Singles = %d, want 1", result.Singles)
	}
	if len(result.Palette) != 4 {
		t.Fatalf("Palette length = %d, want 4", len(result.Palette))
	}
}

func TestAnalyzeZRLERunsPaletteCapsAt256(t *testing.T) {
	pixels := make([]uint32, 300)
	for i := range pixels {
		pixels[i] = uint32(i)
	}
	result := AnalyzeZRLERuns(pixels)
	if len(result.Palette) != 256 {
		t.Fatalf("Palette length = %d, want 256 (capped)", len(result.Palette))
	}
}
