package parser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ossyrian/pacparse/internal/pac"
	"github.com/ossyrian/pacparse/internal/types"
)

// ErrInvalidMetadata is returned when the metadata contradicts itself.
var ErrInvalidMetadata = errors.New("invalid PAC metadata")

// Metadata is a loaded metadata file.
type Metadata struct {
	Header pac.Header
	Root   *types.Node

	// RecordsConsumed is the number of directory records visited while
	// building Root, the root record included.
	RecordsConsumed int
}

// MetadataReader reads PAC metadata files.
type MetadataReader struct {
	file   io.Reader
	logger *slog.Logger
	header pac.Header

	records []pac.Record
	infos   []pac.Info
	names   map[uint32]string
}

// NewMetadataReader returns a reader over r. A nil logger uses slog.Default.
func NewMetadataReader(r io.Reader, logger *slog.Logger) *MetadataReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataReader{file: r, logger: logger}
}

// ReadHeader reads the metadata header.
func (r *MetadataReader) ReadHeader() (*pac.Header, error) {
	h, err := pac.ReadHeader(r.file)
	if err != nil {
		return nil, err
	}

	r.logger.Info("read header",
		"record_count", h.RecordCount,
		"file_count", h.FileCount,
		"name_table_size", h.NameTableSize,
		"archive_total_size", h.ArchiveTotalSize,
	)

	r.header = h
	return &h, nil
}

// ReadRecords reads the directory records and checks that their child
// ranges add up to the header's file count.
func (r *MetadataReader) ReadRecords() ([]pac.Record, error) {
	records, err := pac.ReadRecords(r.file, r.header.RecordCount)
	if err != nil {
		return nil, err
	}

	var total uint64
	for i, rec := range records {
		if uint64(rec.InfoOffset)+uint64(rec.InfoCount) > uint64(r.header.FileCount) {
			return nil, fmt.Errorf("%w: record %d children %d+%d exceed %d infos",
				ErrInvalidMetadata, i, rec.InfoOffset, rec.InfoCount, r.header.FileCount)
		}
		total += uint64(rec.InfoCount)
	}
	if total != uint64(r.header.FileCount) {
		return nil, fmt.Errorf("%w: records list %d children, header lists %d",
			ErrInvalidMetadata, total, r.header.FileCount)
	}

	r.logger.Debug("read records", "count", len(records))

	r.records = records
	return records, nil
}

// ReadInfos reads the child infos and checks file ranges against the
// payload size.
func (r *MetadataReader) ReadInfos() ([]pac.Info, error) {
	infos, err := pac.ReadInfos(r.file, r.header.FileCount)
	if err != nil {
		return nil, err
	}

	for i, info := range infos {
		if !info.IsFile() {
			continue
		}
		if uint64(info.FileOffset)+uint64(info.FileRealSize) > uint64(r.header.ArchiveTotalSize) {
			return nil, fmt.Errorf("%w: info %d range %d+%d exceeds payload size %d",
				ErrInvalidMetadata, i, info.FileOffset, info.FileRealSize, r.header.ArchiveTotalSize)
		}
	}

	r.logger.Debug("read infos", "count", len(infos))

	r.infos = infos
	return infos, nil
}

// ReadNames reads the name table and resolves every info's name, keyed by
// its name table offset.
func (r *MetadataReader) ReadNames() (map[uint32]string, error) {
	table, err := pac.ReadNameTable(r.file, r.header.NameTableSize)
	if err != nil {
		return nil, err
	}

	names := make(map[uint32]string, len(r.infos))
	for i, info := range r.infos {
		if _, ok := names[info.FilenameOffset]; ok {
			continue
		}

		name, err := pac.Name(table, info)
		if err != nil {
			return nil, fmt.Errorf("%w: info %d: %w", ErrInvalidMetadata, i, err)
		}
		names[info.FilenameOffset] = name
	}

	r.names = names
	return names, nil
}

// BuildTree reconstructs the directory tree from the records, infos and
// names read so far. Records are consumed in preorder by one cursor shared
// across all levels. It returns the root and the number of records consumed.
func (r *MetadataReader) BuildTree(rootName string) (*types.Node, int, error) {
	return r.buildDirectory(rootName, 0)
}

// buildDirectory builds the directory described by records[cursor] and
// returns the cursor positioned after its last descendant.
func (r *MetadataReader) buildDirectory(name string, cursor int) (*types.Node, int, error) {
	if cursor >= len(r.records) {
		return nil, cursor, fmt.Errorf("%w: directory %q needs record %d, only %d present",
			ErrInvalidMetadata, name, cursor, len(r.records))
	}

	rec := r.records[cursor]
	cursor++

	dir := types.NewDirectory(name)
	dir.Children = make([]*types.Node, 0, rec.InfoCount)

	for i := range rec.InfoCount {
		info := r.infos[rec.InfoOffset+i]
		childName := r.names[info.FilenameOffset]

		if info.IsFile() {
			file := types.NewFile(childName, uint64(info.FileOffset), uint64(info.FileRealSize))
			file.FullSize = uint64(info.FileFullSize)
			file.Checksum = info.Checksum
			dir.Children = append(dir.Children, file)
			continue
		}

		var (
			sub *types.Node
			err error
		)
		sub, cursor, err = r.buildDirectory(childName, cursor)
		if err != nil {
			return nil, cursor, err
		}
		dir.Children = append(dir.Children, sub)
	}

	return dir, cursor, nil
}

// Parse reads a complete metadata file from r and builds its tree under a
// root directory called rootName.
func Parse(file io.Reader, rootName string, logger *slog.Logger) (*Metadata, error) {
	r := NewMetadataReader(file, logger)

	h, err := r.ReadHeader()
	if err != nil {
		return nil, err
	}
	if _, err := r.ReadRecords(); err != nil {
		return nil, err
	}
	if _, err := r.ReadInfos(); err != nil {
		return nil, err
	}
	if _, err := r.ReadNames(); err != nil {
		return nil, err
	}

	root, consumed, err := r.BuildTree(rootName)
	if err != nil {
		return nil, err
	}

	if consumed != len(r.records) {
		r.logger.Warn("not every directory record was reached",
			"consumed", consumed,
			"record_count", len(r.records),
		)
	}

	r.logger.Info("built tree",
		"root", rootName,
		"files", root.CountFiles(),
		"records_consumed", consumed,
	)

	return &Metadata{Header: *h, Root: root, RecordsConsumed: consumed}, nil
}

// Load parses the metadata file at path.
func Load(path, rootName string, logger *slog.Logger) (*Metadata, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()

	return Parse(f, rootName, logger.With("file", path))
}
