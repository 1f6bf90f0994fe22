package tim2

// Magic identifies a TIM2 container ("TIM2", read big-endian).
var Magic = [4]byte{'T', 'I', 'M', '2'}

const (
	// Identifier is Magic as a big-endian uint32.
	Identifier = 0x54494D32

	// FileHeaderSize is the size of the container header that precedes
	// the first frame.
	FileHeaderSize = 16

	// FrameHeaderSize is the fixed part of a frame header. Anything past
	// it (up to Header.HeaderSize) is user data.
	FrameHeaderSize = 48

	// SwizzleWidth and SwizzleHeight are the dimensions of one GS tile.
	SwizzleWidth  = 16
	SwizzleHeight = 8

	// linearPaletteFlag is set in ClutFormat when the CLUT is stored in
	// plain linear order.
	linearPaletteFlag = 0x80
)

// bppFormats maps the header's format selector byte to bits per pixel.
var bppFormats = map[uint8]uint8{
	1: 16,
	2: 24,
	3: 32,
	4: 4,
	5: 8,
}

// PixelFormat is the color layout of pixel or palette entries.
type PixelFormat int

const (
	FormatIndexed PixelFormat = iota
	FormatABGR1555
	FormatRGB888
	FormatRGBA8888
)

func (f PixelFormat) String() string {
	switch f {
	case FormatIndexed:
		return "Indexed"
	case FormatABGR1555:
		return "ABGR1555"
	case FormatRGB888:
		return "RGB888"
	case FormatRGBA8888:
		return "RGBA8888"
	default:
		return "Unknown"
	}
}
