// Package tim2 decodes TIM2 (.tm2) textures: a container of one or more
// frames, each holding 4/8-bit palette indices or 16/24/32-bit colors in GS
// tiled order.
package tim2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// Image is a parsed TIM2 container.
type Image struct {
	Version uint16
	Frames  []*Frame
}

// Parse decodes a TIM2 container from buf.
func Parse(buf []byte) (*Image, error) {
	r := bytes.NewReader(buf)

	var hdr struct {
		Identifier uint32
		Version    uint16
		Count      uint16
		Reserved   [8]byte
	}

	if err := binary.Read(r, binary.BigEndian, &hdr.Identifier); err != nil {
		return nil, fmt.Errorf("failed to read identifier: %w", err)
	}
	if hdr.Identifier != Identifier {
		return nil, fmt.Errorf("%w: expected 0x%08X, got 0x%08X", ErrInvalidIdentifier, Identifier, hdr.Identifier)
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr.Version); err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr.Count); err != nil {
		return nil, fmt.Errorf("failed to read frame count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr.Reserved); err != nil {
		return nil, fmt.Errorf("failed to read reserved header bytes: %w", err)
	}

	img := &Image{
		Version: hdr.Version,
		Frames:  make([]*Frame, 0, hdr.Count),
	}

	for i := range int(hdr.Count) {
		f, err := readFrame(r)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		img.Frames = append(img.Frames, f)
	}

	return img, nil
}

// Load reads and decodes a TIM2 file.
func Load(path string) (*Image, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(buf)
}

// HasMagic reports whether buf starts with the TIM2 identifier.
func HasMagic(buf []byte) bool {
	return len(buf) >= len(Magic) && bytes.Equal(buf[:len(Magic)], Magic[:])
}

// MagicOffset looks for a TIM2 identifier wrapped in a compressed stream.
// A compressed image carries its identifier as literal bytes right after the
// first flag byte, at offset 5 or 9 depending on the wrapper's preamble. The
// returned offset is where the compressed stream (including its own
// preamble) starts.
func MagicOffset(buf []byte) (int, bool) {
	if len(buf) < FileHeaderSize {
		return 0, false
	}
	if bytes.Equal(buf[5:9], Magic[:]) {
		return 4, true
	}
	if bytes.Equal(buf[9:13], Magic[:]) {
		return 8, true
	}
	return 0, false
}
