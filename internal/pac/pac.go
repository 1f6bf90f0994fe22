// Package pac describes the binary layout of PAC archive metadata: a header,
// a flat preorder list of directory records, a flat list of child infos and
// a name table. File contents live in a separate payload file addressed by
// the infos.
package pac

// Header is the metadata file header.
type Header struct {
	RecordCount      uint32
	FileCount        uint32
	NameTableSize    uint32
	ArchiveTotalSize uint32 // size of the payload file
	Reserved         [16]byte
}

// Record describes one directory. Its children are
// Infos[InfoOffset : InfoOffset+InfoCount].
type Record struct {
	ID                  uint32
	ParentID            uint32
	InfoOffset          uint32
	InfoCount           uint32
	_                   uint32
	DirectoryInfoOffset uint32 // unused
	_                   [8]byte
}

// InfoKind tells whether an info describes a file or a subdirectory.
type InfoKind uint16

const (
	InfoKindDirectory InfoKind = 0
	InfoKindFile      InfoKind = infoKindFile
)

func (k InfoKind) String() string {
	if k == InfoKindFile {
		return "File"
	}
	return "Directory"
}

// rawInfo is the on-disk layout of an Info.
type rawInfo struct {
	_              [2]byte
	Kind           uint16
	FilenameOffset uint32
	FilenameLength uint32
	FileOffset     uint32
	FileRealSize   uint32
	_              uint32
	RecordID       uint32
	FileFullSize   uint32
	Checksum       [ChecksumSize]byte
}

// Info describes one child of a directory record.
type Info struct {
	Kind           InfoKind
	FilenameOffset uint32 // into the name table
	FilenameLength uint32
	FileOffset     uint32 // into the payload file, files only
	FileRealSize   uint32 // stored size in the payload file
	RecordID       uint32
	FileFullSize   uint32 // uncompressed size hint
	Checksum       [ChecksumSize]byte
}

// IsFile reports whether the info describes a file.
func (i Info) IsFile() bool {
	return i.Kind == InfoKindFile
}
