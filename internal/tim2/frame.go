package tim2

import (
	"bytes"
	"fmt"
	"io"
)

// DataKind tells whether a frame holds palette indices or resolved colors.
type DataKind int

const (
	KindIndices DataKind = iota
	KindPixels
)

func (k DataKind) String() string {
	switch k {
	case KindIndices:
		return "Indices"
	case KindPixels:
		return "Pixels"
	default:
		return "Unknown"
	}
}

// Frame is one picture of a TIM2 container. Exactly one of Indices and
// Pixels is populated, as told by Kind. Both are unswizzled, row-major and
// hold exactly Width*Height elements.
type Frame struct {
	Header  Header
	Kind    DataKind
	Indices []byte
	Pixels  []Pixel

	// Palettes holds every CLUT of the frame, all the same size. Only the
	// first one is used to resolve indices.
	Palettes [][]Pixel
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return int(f.Header.Width) }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return int(f.Header.Height) }

// readFrame reads one frame starting at the reader's current position and
// leaves the reader at the start of the next frame.
func readFrame(r *bytes.Reader) (*Frame, error) {
	start := r.Size() - int64(r.Len())

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	f := &Frame{Header: h}

	if err := need(r, h.ImageSize, "image data"); err != nil {
		return nil, err
	}
	data := make([]byte, h.ImageSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read %d bytes of image data: %w", h.ImageSize, err)
	}

	if h.Bpp == 4 {
		data = expandNibbles(data)
	}

	if h.ClutSize > 0 {
		if err := covers(len(data), h); err != nil {
			return nil, err
		}
		f.Kind = KindIndices
		f.Indices = Unswizzle(data, f.Width(), f.Height())
	} else {
		format, err := h.PixelFormat()
		if err != nil {
			return nil, err
		}
		if format == FormatIndexed {
			return nil, fmt.Errorf("%w: %d bpp", ErrMissingPalette, h.Bpp)
		}

		colors, err := readColors(data, h.ColorSize())
		if err != nil {
			return nil, fmt.Errorf("failed to read pixels: %w", err)
		}

		if err := covers(len(colors), h); err != nil {
			return nil, err
		}
		f.Kind = KindPixels
		f.Pixels = Unswizzle(colors, f.Width(), f.Height())
	}

	if f.Palettes, err = readPalettes(r, h); err != nil {
		return nil, err
	}

	if f.Kind == KindIndices {
		if err := checkIndices(f.Indices, len(f.Palettes[0])); err != nil {
			return nil, err
		}
	}

	// honor TotalSize when the header declares more than was consumed
	consumed := r.Size() - int64(r.Len()) - start
	if rest := int64(h.TotalSize) - consumed; rest > 0 {
		if _, err := r.Seek(rest, io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("failed to skip frame padding: %w", err)
		}
	}

	return f, nil
}

// need fails when fewer than n bytes remain in r.
func need(r *bytes.Reader, n uint32, what string) error {
	if int64(n) > int64(r.Len()) {
		return fmt.Errorf("failed to read %d bytes of %s, %d left: %w", n, what, r.Len(), io.ErrUnexpectedEOF)
	}
	return nil
}

// covers fails when n stored elements cannot fill the frame's raster.
func covers(n int, h Header) error {
	if area := int(h.Width) * int(h.Height); n < area {
		return fmt.Errorf("%w: %d elements for a %dx%d frame", ErrInvalidRange, n, h.Width, h.Height)
	}
	return nil
}

// expandNibbles splits each byte into two 4-bit indices, high nibble first.
func expandNibbles(packed []byte) []byte {
	out := make([]byte, len(packed)*2)
	for i, b := range packed {
		out[i*2] = (b & 0xF0) >> 4
		out[i*2+1] = b & 0x0F
	}
	return out
}

// readPalettes reads ClutSize bytes and slices them into equally sized CLUTs.
func readPalettes(r *bytes.Reader, h Header) ([][]Pixel, error) {
	if h.ClutSize == 0 {
		return nil, nil
	}

	if err := need(r, h.ClutSize, "palette data"); err != nil {
		return nil, err
	}

	buf := make([]byte, h.ClutSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to read %d bytes of palette data: %w", h.ClutSize, err)
	}

	colorSize := h.ColorSize()
	size := int(h.ClutColorCount) * colorSize
	if size == 0 {
		return nil, fmt.Errorf("%w: %d colors of %d bytes", ErrInvalidRange, h.ClutColorCount, colorSize)
	}

	count := len(buf) / size
	if count == 0 {
		return nil, fmt.Errorf("%w: %d palette bytes for %d colors", ErrMissingPalette, len(buf), h.ClutColorCount)
	}

	palettes := make([][]Pixel, 0, count)
	for i := range count {
		palette, err := readColors(buf[i*size:(i+1)*size], colorSize)
		if err != nil {
			return nil, fmt.Errorf("failed to read palette %d: %w", i, err)
		}

		if h.Bpp == 8 && !h.IsLinearPalette() {
			palette = LinearizePalette(palette)
		}

		palettes = append(palettes, palette)
	}

	return palettes, nil
}

func checkIndices(indices []byte, paletteLen int) error {
	var highest byte
	for _, idx := range indices {
		highest = max(highest, idx)
	}
	if len(indices) > 0 && int(highest) >= paletteLen {
		return fmt.Errorf("%w: index %d, palette has %d colors", ErrPaletteIndex, highest, paletteLen)
	}
	return nil
}

// Colors resolves the frame to one color per pixel. Indexed frames are
// looked up in the first palette.
func (f *Frame) Colors() []Pixel {
	if f.Kind == KindPixels {
		out := make([]Pixel, len(f.Pixels))
		copy(out, f.Pixels)
		return out
	}

	var palette []Pixel
	if len(f.Palettes) > 0 {
		palette = f.Palettes[0]
	}

	out := make([]Pixel, len(f.Indices))
	for i, idx := range f.Indices {
		// frames from Parse are checked; a zero Pixel stands in otherwise
		if int(idx) < len(palette) {
			out[i] = palette[idx]
		}
	}
	return out
}

// ToRaw returns tightly packed RGBA8 bytes, row-major, top to bottom. When
// key is non-nil, pixels whose RGB equals the key's RGB get alpha 0.
func (f *Frame) ToRaw(key *Pixel) []byte {
	colors := f.Colors()
	out := make([]byte, 0, len(colors)*4)

	for _, p := range colors {
		alpha := p.A
		if key != nil && p.SameColor(*key) {
			alpha = 0
		}
		out = append(out, p.R, p.G, p.B, alpha)
	}

	return out
}
