// Package lzs reads the flat entry table found at the start of decompressed
// .lzs blobs that bundle several files.
//
// Layout: a u16 entry count, then for entry i a 2-byte (i == 0) or 4-byte
// (i > 0) gap followed by u32 offset, u32 size, u32 file number and a 48-byte
// name. Offsets are relative to the start of the blob.
package lzs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// NameSize is the fixed size of an entry name.
const NameSize = 48

var (
	// ErrInvalidFileNum is returned when an entry's file number does not
	// match its position in the table.
	ErrInvalidFileNum = errors.New("lzs: invalid file number")

	// ErrTruncated is returned when the table runs past the end of the blob.
	ErrTruncated = errors.New("lzs: entry table truncated")

	// ErrEntryRange is returned when an entry points outside the blob.
	ErrEntryRange = errors.New("lzs: entry range outside blob")
)

// FileNumError reports a file number mismatch.
type FileNumError struct {
	Got  int
	Want int
}

func (e *FileNumError) Error() string {
	return fmt.Sprintf("lzs: invalid file number %d, should be %d", e.Got, e.Want)
}

func (e *FileNumError) Unwrap() error { return ErrInvalidFileNum }

// Entry is one file of a flat table.
type Entry struct {
	Offset uint32
	Size   uint32
	Name   string
}

// Slice returns the entry's bytes within blob.
func (e Entry) Slice(blob []byte) ([]byte, error) {
	end := uint64(e.Offset) + uint64(e.Size)
	if end > uint64(len(blob)) {
		return nil, fmt.Errorf("%w: %q at %d+%d, blob is %d bytes", ErrEntryRange, e.Name, e.Offset, e.Size, len(blob))
	}
	return blob[e.Offset:end], nil
}

// ReadEntries parses the entry table at the start of blob.
func ReadEntries(blob []byte) ([]Entry, error) {
	pos := 0
	need := func(n int) error {
		if pos+n > len(blob) {
			return fmt.Errorf("%w: need %d bytes at %d, blob is %d bytes", ErrTruncated, n, pos, len(blob))
		}
		return nil
	}

	if err := need(2); err != nil {
		return nil, err
	}
	count := int(binary.LittleEndian.Uint16(blob))
	pos += 2

	entries := make([]Entry, 0, count)
	for i := range count {
		if i > 0 {
			pos += 4
		} else {
			pos += 2
		}

		if err := need(12 + NameSize); err != nil {
			return nil, err
		}

		e := Entry{
			Offset: binary.LittleEndian.Uint32(blob[pos:]),
			Size:   binary.LittleEndian.Uint32(blob[pos+4:]),
		}
		num := int(binary.LittleEndian.Uint32(blob[pos+8:]))
		e.Name = readName(blob[pos+12 : pos+12+NameSize])
		pos += 12 + NameSize

		if num != i {
			return nil, &FileNumError{Got: num, Want: i}
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// readName maps bytes outside printable ASCII to spaces and trims.
func readName(raw []byte) string {
	b := make([]byte, len(raw))
	for i, c := range raw {
		if c >= 32 && c < 127 {
			b[i] = c
		} else {
			b[i] = ' '
		}
	}
	return strings.TrimSpace(string(b))
}
