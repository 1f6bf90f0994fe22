package pac

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// ReadHeader reads the metadata header, including its reserved block.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Header{}, fmt.Errorf("failed to read header: %w", err)
	}
	return h, nil
}

// preallocMax caps how many entries a count from the header may reserve up
// front. Counts beyond it grow as entries are actually read.
const preallocMax = 4096

// ReadRecords reads n consecutive directory records.
func ReadRecords(r io.Reader, n uint32) ([]Record, error) {
	records := make([]Record, 0, min(n, preallocMax))
	for i := range n {
		var rec Record
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("failed to read record %d of %d: %w", i, n, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadInfos reads n consecutive child infos.
func ReadInfos(r io.Reader, n uint32) ([]Info, error) {
	infos := make([]Info, 0, min(n, preallocMax))
	for i := range n {
		var raw rawInfo
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return nil, fmt.Errorf("failed to read info %d of %d: %w", i, n, err)
		}

		kind := InfoKindDirectory
		if raw.Kind == infoKindFile {
			kind = InfoKindFile
		}

		infos = append(infos, Info{
			Kind:           kind,
			FilenameOffset: raw.FilenameOffset,
			FilenameLength: raw.FilenameLength,
			FileOffset:     raw.FileOffset,
			FileRealSize:   raw.FileRealSize,
			RecordID:       raw.RecordID,
			FileFullSize:   raw.FileFullSize,
			Checksum:       raw.Checksum,
		})
	}
	return infos, nil
}

// ReadNameTable reads the name table blob. The buffer grows with the bytes
// actually present, so an oversized header value fails instead of
// allocating.
func ReadNameTable(r io.Reader, size uint32) ([]byte, error) {
	table, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %d byte name table: %w", size, err)
	}
	if len(table) != int(size) {
		return nil, fmt.Errorf("failed to read %d byte name table, got %d: %w", size, len(table), io.ErrUnexpectedEOF)
	}
	return table, nil
}

// Name resolves an info's name from the name table. Surrounding whitespace
// and NUL padding are trimmed.
func Name(table []byte, info Info) (string, error) {
	start := uint64(info.FilenameOffset)
	end := start + uint64(info.FilenameLength)
	if end > uint64(len(table)) {
		return "", fmt.Errorf("name at %d+%d exceeds %d byte name table",
			info.FilenameOffset, info.FilenameLength, len(table))
	}

	return strings.TrimSpace(strings.Trim(string(table[start:end]), "\x00")), nil
}
