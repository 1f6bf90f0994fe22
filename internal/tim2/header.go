package tim2

import (
	"encoding/binary"
	"fmt"
	"io"
)

// rawHeader is the fixed 48-byte on-disk layout of a frame header.
type rawHeader struct {
	TotalSize      uint32
	ClutSize       uint32
	ImageSize      uint32
	HeaderSize     uint16
	ClutColorCount uint16
	PictureFormat  uint8
	MipmapCount    uint8
	ClutFormat     uint8
	BppFormat      uint8
	Width          uint16
	Height         uint16
	GsTex0         [8]byte
	GsTex1         [8]byte
	GsRegs         uint32
	GsTexClut      uint32
}

// Header describes a single frame.
type Header struct {
	TotalSize      uint32 // header + image + palette bytes
	ClutSize       uint32 // palette bytes, 0 when there is no palette
	ImageSize      uint32 // pixel data bytes
	HeaderSize     uint16
	ClutColorCount uint16
	PictureFormat  uint8
	MipmapCount    uint8
	ClutFormat     uint8
	Bpp            uint8 // resolved from the format selector
	Width          uint16
	Height         uint16
	GsTex0         [8]byte
	GsTex1         [8]byte
	GsRegs         uint32
	GsTexClut      uint32
	UserData       []byte
}

// readHeader reads a frame header, including its trailing user data.
func readHeader(r io.Reader) (Header, error) {
	var raw rawHeader
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return Header{}, fmt.Errorf("failed to read frame header: %w", err)
	}

	bpp, ok := bppFormats[raw.BppFormat]
	if !ok {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidBppFormat, raw.BppFormat)
	}

	h := Header{
		TotalSize:      raw.TotalSize,
		ClutSize:       raw.ClutSize,
		ImageSize:      raw.ImageSize,
		HeaderSize:     raw.HeaderSize,
		ClutColorCount: raw.ClutColorCount,
		PictureFormat:  raw.PictureFormat,
		MipmapCount:    raw.MipmapCount,
		ClutFormat:     raw.ClutFormat,
		Bpp:            bpp,
		Width:          raw.Width,
		Height:         raw.Height,
		GsTex0:         raw.GsTex0,
		GsTex1:         raw.GsTex1,
		GsRegs:         raw.GsRegs,
		GsTexClut:      raw.GsTexClut,
	}

	if n := int(h.HeaderSize) - FrameHeaderSize; n > 0 {
		h.UserData = make([]byte, n)
		if _, err := io.ReadFull(r, h.UserData); err != nil {
			return Header{}, fmt.Errorf("failed to read %d bytes of user data: %w", n, err)
		}
	}

	if h.ClutSize > 0 && h.Bpp > 8 {
		return Header{}, fmt.Errorf("%w: %d bpp, %d palette bytes", ErrTrueColorAndPalette, h.Bpp, h.ClutSize)
	}

	return h, nil
}

// HasMipmaps reports whether the frame carries more than one mip level.
func (h Header) HasMipmaps() bool {
	return h.MipmapCount > 1
}

// IsLinearPalette reports whether the CLUT is stored in linear order.
// When it is not, 8-bit palettes use the GS interleaved layout.
func (h Header) IsLinearPalette() bool {
	return h.ClutFormat&linearPaletteFlag != 0
}

// ColorSize returns the size in bytes of one palette entry, or of one pixel
// for true color frames.
func (h Header) ColorSize() int {
	if h.Bpp > 8 {
		return int(h.Bpp) / 8
	}
	return int(h.ClutFormat&0x07) + 1
}

// PixelFormat maps the bit depth to the layout of the pixel data.
func (h Header) PixelFormat() (PixelFormat, error) {
	switch h.Bpp {
	case 4, 8:
		return FormatIndexed, nil
	case 16:
		return FormatABGR1555, nil
	case 24:
		return FormatRGB888, nil
	case 32:
		return FormatRGBA8888, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidBpp, h.Bpp)
	}
}
