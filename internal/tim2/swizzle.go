package tim2

// Unswizzle undoes GS texture tiling. The source is a sequence of 16x8
// tiles in raster order, each tile stored row by row. Tile cells that fall
// outside width x height still consume a source element. The result holds
// exactly width*height elements; source elements past the last tile (mip
// levels, padding) are dropped.
func Unswizzle[T any](src []T, width, height int) []T {
	if width <= 0 || height <= 0 {
		return nil
	}
	dst := make([]T, width*height)

	i := 0
	for y := 0; y < height; y += SwizzleHeight {
		for x := 0; x < width; x += SwizzleWidth {
			for ty := y; ty < y+SwizzleHeight; ty++ {
				for tx := x; tx < x+SwizzleWidth; tx++ {
					if tx < width && ty < height && i < len(src) {
						dst[ty*width+tx] = src[i]
					}
					i++
				}
			}
		}
	}

	return dst
}

// LinearizePalette reorders a CLUT stored in the GS interleaved layout.
// Within every block of 32 entries the second and third runs of 8 are
// swapped. Entries past the last full block keep their position.
func LinearizePalette[T any](palette []T) []T {
	const (
		colorCount  = 8
		blockCount  = 2
		stripeCount = 2
		partSize    = colorCount * blockCount * stripeCount
	)

	out := make([]T, len(palette))
	copy(out, palette)

	i := 0
	for part := 0; part < len(palette)/partSize; part++ {
		for block := 0; block < blockCount; block++ {
			for stripe := 0; stripe < stripeCount; stripe++ {
				for color := 0; color < colorCount; color++ {
					out[i] = palette[part*partSize+block*colorCount+stripe*stripeCount*colorCount+color]
					i++
				}
			}
		}
	}

	return out
}
