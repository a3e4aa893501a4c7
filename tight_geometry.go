package avacadovnc

// TightSubrect is one wire subrectangle produced by the Tight geometric
// optimizer: a region of the original dirty rectangle plus its already
// encoded payload bytes (the mode control byte onward, everything after
// the x/y/w/h/enctype header that Rectangle.Write emits).
type TightSubrect struct {
	Rect  tightRect
	Bytes []byte
}

// EncodeTightRects implements §6's encode_tight_rects entry point: given
// a framebuffer (4-byte RGBA per pixel, row-major, stride fbWidth) and a
// dirty area within it, produce the ordered list of Tight subrectangles
// that together cover the area exactly.
func EncodeTightRects(framebuffer []byte, fbWidth, fbHeight uint16, area tightRect, quality, compression int, pf PixelFormat, streams *ZlibStreamSet) ([]TightSubrect, error) {
	if area.X+area.W > fbWidth || area.Y+area.H > fbHeight {
		return nil, newInvalidInput("tight: area %+v exceeds framebuffer %dx%d", area, fbWidth, fbHeight)
	}
	if area.W == 0 || area.H == 0 {
		return nil, nil
	}

	var out []TightSubrect
	encodeRectOptimized(framebuffer, fbWidth, area, quality, compression, pf, streams, &out)
	return out, nil
}

// encodeRectOptimized ports the reference optimizer: below
// minSplitRectSize it only worries about the size ceiling; above it, it
// scans 16x16 tiles looking for a solid-color seed to grow into a large
// solid subrectangle, emitting up to five pieces (top/left/solid/right/
// bottom) around the first one found and returning immediately — it
// never recurses into those five pieces looking for further solid areas.
func encodeRectOptimized(framebuffer []byte, fbWidth uint16, rect tightRect, quality, compression int, pf PixelFormat, streams *ZlibStreamSet, out *[]TightSubrect) {
	confIdx := normalizeCompressionLevel(compression, quality)

	rectSize := int(rect.W) * int(rect.H)
	if rectSize < minSplitRectSize {
		if rect.W > tightMaxRectWidth || rectSize > tightMaxRectSize {
			encodeLargeRect(framebuffer, fbWidth, rect, quality, confIdx, pf, streams, out)
		} else {
			emitSingle(framebuffer, fbWidth, rect, quality, confIdx, pf, streams, out)
		}
		return
	}

	nMaxWidth := rect.W
	if nMaxWidth > tightMaxRectWidth {
		nMaxWidth = tightMaxRectWidth
	}
	nMaxRows := uint16(tightMaxRectSize / int(nMaxWidth))

	currentY := rect.Y
	baseY := rect.Y
	remainingH := rect.H

	for currentY < baseY+remainingH {
		if currentY-baseY >= nMaxRows {
			chunk := tightRect{X: rect.X, Y: baseY, W: rect.W, H: nMaxRows}
			if chunk.W > tightMaxRectWidth {
				encodeLargeRect(framebuffer, fbWidth, chunk, quality, confIdx, pf, streams, out)
			} else {
				emitSingle(framebuffer, fbWidth, chunk, quality, confIdx, pf, streams, out)
			}
			baseY += nMaxRows
			remainingH -= nMaxRows
		}

		dyEnd := currentY + maxSplitTileSize
		if dyEnd > baseY+remainingH {
			dyEnd = baseY + remainingH
		}
		dh := dyEnd - currentY
		if dh == 0 {
			break
		}

		currentX := rect.X
		foundSolid := false
		for currentX < rect.X+rect.W {
			dxEnd := currentX + maxSplitTileSize
			if dxEnd > rect.X+rect.W {
				dxEnd = rect.X + rect.W
			}
			dw := dxEnd - currentX
			if dw == 0 {
				break
			}

			color, ok := checkSolidTile(framebuffer, fbWidth, currentX, currentY, dw, dh, false, 0)
			if ok {
				wBest, hBest := findBestSolidArea(framebuffer, fbWidth, currentX, currentY,
					rect.W-(currentX-rect.X), remainingH-(currentY-baseY), color)

				if int(wBest)*int(hBest) != int(rect.W)*int(remainingH) && int(wBest)*int(hBest) < minSolidSubrectSize {
					currentX += dw
					continue
				}

				xBest, yBest, wBest, hBest := extendSolidArea(framebuffer, fbWidth,
					rect.X, baseY, rect.W, remainingH, color, currentX, currentY, wBest, hBest)

				if yBest != baseY {
					top := tightRect{X: rect.X, Y: baseY, W: rect.W, H: yBest - baseY}
					emitMaybeLarge(framebuffer, fbWidth, top, quality, confIdx, pf, streams, out)
				}
				if xBest != rect.X {
					left := tightRect{X: rect.X, Y: yBest, W: xBest - rect.X, H: hBest}
					emitMaybeLarge(framebuffer, fbWidth, left, quality, confIdx, pf, streams, out)
				}

				solid := tightRect{X: xBest, Y: yBest, W: wBest, H: hBest}
				*out = append(*out, TightSubrect{Rect: solid, Bytes: encodeSolidRect(color, pf)})

				if xBest+wBest != rect.X+rect.W {
					right := tightRect{X: xBest + wBest, Y: yBest, W: rect.W - (xBest - rect.X) - wBest, H: hBest}
					emitMaybeLarge(framebuffer, fbWidth, right, quality, confIdx, pf, streams, out)
				}
				if yBest+hBest != baseY+remainingH {
					bottom := tightRect{X: rect.X, Y: yBest + hBest, W: rect.W, H: remainingH - (yBest - baseY) - hBest}
					emitMaybeLarge(framebuffer, fbWidth, bottom, quality, confIdx, pf, streams, out)
				}

				foundSolid = true
				break
			}

			currentX += dw
		}

		if foundSolid {
			return
		}
		currentY += dh
	}

	// Only the rows not already emitted as nMaxRows strips remain.
	rest := tightRect{X: rect.X, Y: baseY, W: rect.W, H: remainingH}
	if rest.W > tightMaxRectWidth || rest.area() > tightMaxRectSize {
		encodeLargeRect(framebuffer, fbWidth, rest, quality, confIdx, pf, streams, out)
	} else {
		emitSingle(framebuffer, fbWidth, rest, quality, confIdx, pf, streams, out)
	}
}

// emitSingle encodes rect directly with the already-normalized confIdx
// used as the "compression" argument, since encodeSubrectSingle expects
// that same 0-3 identity-mapped value (see paletteConfIndex).
func emitSingle(framebuffer []byte, fbWidth uint16, rect tightRect, quality, confIdx int, pf PixelFormat, streams *ZlibStreamSet, out *[]TightSubrect) {
	buf := encodeSubrectSingle(framebuffer, fbWidth, rect, quality, confIdx, pf, streams)
	*out = append(*out, TightSubrect{Rect: rect, Bytes: buf})
}

func emitMaybeLarge(framebuffer []byte, fbWidth uint16, rect tightRect, quality, confIdx int, pf PixelFormat, streams *ZlibStreamSet, out *[]TightSubrect) {
	if rect.W > tightMaxRectWidth || rect.area() > tightMaxRectSize {
		encodeLargeRect(framebuffer, fbWidth, rect, quality, confIdx, pf, streams, out)
		return
	}
	emitSingle(framebuffer, fbWidth, rect, quality, confIdx, pf, streams, out)
}

// encodeLargeRect tiles a too-big rectangle into a grid of subrectangles,
// each within the Tight size envelope, encoding each independently.
func encodeLargeRect(framebuffer []byte, fbWidth uint16, rect tightRect, quality, confIdx int, pf PixelFormat, streams *ZlibStreamSet, out *[]TightSubrect) {
	subMaxWidth := rect.W
	if subMaxWidth > tightMaxRectWidth {
		subMaxWidth = tightMaxRectWidth
	}
	subMaxHeight := uint16(tightMaxRectSize / int(subMaxWidth))

	for dy := uint16(0); dy < rect.H; dy += subMaxHeight {
		for dx := uint16(0); dx < rect.W; dx += tightMaxRectWidth {
			rw := rect.W - dx
			if rw > tightMaxRectWidth {
				rw = tightMaxRectWidth
			}
			rh := rect.H - dy
			if rh > subMaxHeight {
				rh = subMaxHeight
			}

			sub := tightRect{X: rect.X + dx, Y: rect.Y + dy, W: rw, H: rh}
			emitSingle(framebuffer, fbWidth, sub, quality, confIdx, pf, streams, out)
		}
	}
}

// checkSolidTile scans a w x h tile and reports whether every pixel
// shares one color, optionally requiring that color to equal
// requiredColor (when requireColor is true).
func checkSolidTile(framebuffer []byte, fbWidth, x, y, w, h uint16, requireColor bool, requiredColor uint32) (uint32, bool) {
	stride := int(fbWidth) * 4
	offset := int(y)*stride + int(x)*4
	first := uint32(framebuffer[offset]) | uint32(framebuffer[offset+1])<<8 | uint32(framebuffer[offset+2])<<16

	if requireColor && first != requiredColor {
		return 0, false
	}

	for dy := uint16(0); dy < h; dy++ {
		rowOffset := int(y+dy)*stride + int(x)*4
		for dx := uint16(0); dx < w; dx++ {
			pixOffset := rowOffset + int(dx)*4
			color := uint32(framebuffer[pixOffset]) | uint32(framebuffer[pixOffset+1])<<8 | uint32(framebuffer[pixOffset+2])<<16
			if color != first {
				return 0, false
			}
		}
	}

	return first, true
}

// findBestSolidArea greedily grows a 16x16-tile-aligned solid rectangle
// downward and rightward from (x, y), tracking the largest area seen.
func findBestSolidArea(framebuffer []byte, fbWidth, x, y, w, h uint16, color uint32) (uint16, uint16) {
	var wBest, hBest uint16
	wPrev := w

	dy := uint16(0)
	for dy < h {
		dh := h - dy
		if dh > maxSplitTileSize {
			dh = maxSplitTileSize
		}
		dw := wPrev
		if dw > maxSplitTileSize {
			dw = maxSplitTileSize
		}

		if _, ok := checkSolidTile(framebuffer, fbWidth, x, y+dy, dw, dh, true, color); !ok {
			break
		}

		dx := dw
		for dx < wPrev {
			dwCheck := wPrev - dx
			if dwCheck > maxSplitTileSize {
				dwCheck = maxSplitTileSize
			}
			if _, ok := checkSolidTile(framebuffer, fbWidth, x+dx, y+dy, dwCheck, dh, true, color); !ok {
				break
			}
			dx += dwCheck
		}

		wPrev = dx
		if int(wPrev)*int(dy+dh) > int(wBest)*int(hBest) {
			wBest = wPrev
			hBest = dy + dh
		}

		dy += dh
	}

	return wBest, hBest
}

// extendSolidArea grows a confirmed solid rectangle outward in all four
// directions, one pixel row/column at a time, until it hits the
// bounds of the enclosing area or a non-matching pixel.
func extendSolidArea(framebuffer []byte, fbWidth, baseX, baseY, maxW, maxH uint16, color uint32, x, y, w, h uint16) (uint16, uint16, uint16, uint16) {
	for y > baseY {
		if _, ok := checkSolidTile(framebuffer, fbWidth, x, y-1, w, 1, true, color); !ok {
			break
		}
		y--
		h++
	}
	for y+h < baseY+maxH {
		if _, ok := checkSolidTile(framebuffer, fbWidth, x, y+h, w, 1, true, color); !ok {
			break
		}
		h++
	}
	for x > baseX {
		if _, ok := checkSolidTile(framebuffer, fbWidth, x-1, y, 1, h, true, color); !ok {
			break
		}
		x--
		w++
	}
	for x+w < baseX+maxW {
		if _, ok := checkSolidTile(framebuffer, fbWidth, x+w, y, 1, h, true, color); !ok {
			break
		}
		w++
	}
	return x, y, w, h
}
