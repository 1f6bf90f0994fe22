// Package lzss decodes the LZSS variant used for .lzs entries in PAC archives.
//
// The stream is the classic 4096-byte sliding window scheme: one flag byte
// governs the next eight tokens (LSB first). A set bit is a literal byte, a
// clear bit is a two-byte reference holding a 12-bit absolute window position
// and a 4-bit length. There is no encoder.
package lzss

import (
	"errors"
	"fmt"
)

const (
	// WindowSize is the size of the sliding window in bytes.
	WindowSize = 4096

	// MaxLength is the longest match a single reference can produce.
	MaxLength = 18

	// Threshold is added to the stored 4-bit length. The copy runs for
	// length + Threshold + 1 bytes, so the shortest match is 3 bytes.
	Threshold = 2

	// PreambleSize is the number of leading bytes skipped before the
	// first flag byte.
	PreambleSize = 4

	// initialWritePos is where the window cursor starts (0xFEE).
	initialWritePos = WindowSize - MaxLength
)

// ErrInvalidDecodeLength is returned when the stream ends inside a
// two-byte match reference.
var ErrInvalidDecodeLength = errors.New("lzss: stream ends inside a match reference")

// DecodeLengthError reports the input offset at which a match reference was
// cut short.
type DecodeLengthError struct {
	Offset int // offset of the first byte of the truncated reference
	Len    int // total input length
}

func (e *DecodeLengthError) Error() string {
	return fmt.Sprintf("lzss: stream ends inside a match reference at offset %d of %d", e.Offset, e.Len)
}

func (e *DecodeLengthError) Unwrap() error { return ErrInvalidDecodeLength }

// Decode decompresses src. The first PreambleSize bytes of src are not part
// of the stream and are ignored.
func Decode(src []byte) ([]byte, error) {
	var (
		window [WindowSize + MaxLength - 1]byte
		flags  byte
		bit    int
	)

	n := len(src)
	r := initialWritePos
	pos := PreambleSize
	dst := make([]byte, 0, 2*n)

	for pos < n {
		if bit == 0 {
			flags = src[pos]
			pos++

			if pos == n {
				break
			}
		}

		if flags&1 == 1 {
			c := src[pos]
			pos++

			dst = append(dst, c)
			window[r] = c
			r = (r + 1) % WindowSize
		} else {
			if pos+1 == n {
				return nil, &DecodeLengthError{Offset: pos, Len: n}
			}

			b0 := int(src[pos])
			b1 := int(src[pos+1])
			pos += 2

			matchPos := b0 | (b1&0xF0)<<4
			matchLen := b1&0x0F + Threshold

			// byte by byte: the source range may overlap bytes written
			// during this same copy
			for k := 0; k <= matchLen; k++ {
				c := window[(matchPos+k)%WindowSize]

				dst = append(dst, c)
				window[r] = c
				r = (r + 1) % WindowSize
			}
		}

		flags >>= 1
		bit = (bit + 1) % 8
	}

	return dst, nil
}
