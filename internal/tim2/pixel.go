package tim2

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Pixel is an 8-bit per channel RGBA color.
type Pixel struct {
	R, G, B, A uint8
}

// RGB returns an opaque pixel.
func RGB(r, g, b uint8) Pixel {
	return Pixel{R: r, G: g, B: b, A: 255}
}

// SameColor reports whether p and o have the same RGB channels, ignoring alpha.
func (p Pixel) SameColor(o Pixel) bool {
	return p.R == o.R && p.G == o.G && p.B == o.B
}

func (p Pixel) String() string {
	return fmt.Sprintf("px<%d %d %d %d>", p.R, p.G, p.B, p.A)
}

// PixelFromBytes decodes one stored color entry. The entry size selects the
// layout:
//   - 2 bytes: big-endian ABGR1555, alpha is the top bit
//   - 3 bytes: RGB, opaque
//   - 4 bytes: RGBA
func PixelFromBytes(buf []byte) (Pixel, error) {
	switch len(buf) {
	case 2:
		raw := binary.BigEndian.Uint16(buf)

		p := Pixel{
			R: expand5(raw),
			G: expand5(raw >> 5),
			B: expand5(raw >> 10),
		}
		if raw>>15 == 1 {
			p.A = 255
		}
		return p, nil
	case 3:
		return Pixel{R: buf[0], G: buf[1], B: buf[2], A: 255}, nil
	case 4:
		return Pixel{R: buf[0], G: buf[1], B: buf[2], A: buf[3]}, nil
	default:
		return Pixel{}, fmt.Errorf("%w: %d bytes", ErrInvalidRange, len(buf))
	}
}

// expand5 scales the low 5 bits of v to 0..255.
func expand5(v uint16) uint8 {
	return uint8(math.Round(float64(v&0x1F) / 31 * 255))
}

// readColors decodes a run of fixed-size color entries. A trailing partial
// entry is ignored.
func readColors(buf []byte, size int) ([]Pixel, error) {
	if size < 2 || size > 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidRange, size)
	}

	colors := make([]Pixel, 0, len(buf)/size)
	for i := 0; i+size <= len(buf); i += size {
		p, err := PixelFromBytes(buf[i : i+size])
		if err != nil {
			return nil, err
		}
		colors = append(colors, p)
	}

	return colors, nil
}
