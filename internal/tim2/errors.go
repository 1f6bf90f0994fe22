package tim2

import "errors"

var (
	// ErrInvalidIdentifier is returned when the container does not start with Magic.
	ErrInvalidIdentifier = errors.New("tim2: invalid identifier")

	// ErrInvalidBppFormat is returned for an unknown format selector byte.
	ErrInvalidBppFormat = errors.New("tim2: invalid bpp format")

	// ErrInvalidBpp is returned when a bit depth has no pixel format.
	ErrInvalidBpp = errors.New("tim2: invalid bpp")

	// ErrTrueColorAndPalette is returned when a frame declares a palette
	// together with a bit depth above 8.
	ErrTrueColorAndPalette = errors.New("tim2: true color frame with a palette")

	// ErrInvalidRange is returned for a color entry size other than 2, 3 or 4 bytes.
	ErrInvalidRange = errors.New("tim2: invalid color entry size")

	// ErrMissingPalette is returned for an indexed frame without a palette.
	ErrMissingPalette = errors.New("tim2: indexed frame without a palette")

	// ErrPaletteIndex is returned when an index points past the end of the palette.
	ErrPaletteIndex = errors.New("tim2: palette index out of range")
)
