package pac

const (
	// HeaderSize is the size of the metadata header, reserved block included.
	HeaderSize = 32

	// RecordSize is the on-disk size of one directory record.
	RecordSize = 32

	// InfoSize is the on-disk size of one child info entry.
	InfoSize = 64

	// ChecksumSize is the size of the SHA-256 digest stored per info.
	ChecksumSize = 32

	// infoKindFile is the kind flag value marking a file. Any other value
	// is a directory.
	infoKindFile = 1
)
